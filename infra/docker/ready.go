package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/client"
)

const (
	readyInitialInterval = 100 * time.Millisecond
	readyMaxInterval     = 2 * time.Second
	readyMaxElapsed      = 30 * time.Second
)

// WaitReady blocks until the daemon answers a ping or maxElapsed passes.
// A zero maxElapsed uses the default of 30s.
func WaitReady(ctx context.Context, docker client.APIClient, maxElapsed time.Duration) error {
	if maxElapsed <= 0 {
		maxElapsed = readyMaxElapsed
	}
	ping := func() error {
		_, err := docker.Ping(ctx)
		return err
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(readyInitialInterval),
		backoff.WithMaxInterval(readyMaxInterval),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("docker daemon not responding after %s: %w", maxElapsed, err)
	}
	return nil
}
