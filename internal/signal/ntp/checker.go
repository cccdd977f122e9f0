// Package ntp measures the local clock offset against an NTP pool. Cycle
// history timestamps are only comparable across hosts when clocks agree.
package ntp

import (
	"time"

	"github.com/beevik/ntp"
)

const (
	DefaultPool      = "pool.ntp.org"
	DefaultThreshold = 500 * time.Millisecond
	defaultTimeout   = 5 * time.Second
)

type Phase uint8

const (
	PhaseHealthy Phase = iota + 1
	PhaseUnhealthyOffset
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseHealthy:
		return "healthy"
	case PhaseUnhealthyOffset:
		return "unhealthy_offset"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

type Status struct {
	Offset    time.Duration
	Phase     Phase
	Error     string
	CheckedAt time.Time
}

// QueryFunc returns the clock offset reported by pool.
type QueryFunc func(pool string, timeout time.Duration) (time.Duration, error)

type Checker struct {
	pool      string
	threshold time.Duration
	query     QueryFunc
	now       func() time.Time
}

func NewChecker(pool string, threshold time.Duration) *Checker {
	if pool == "" {
		pool = DefaultPool
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Checker{pool: pool, threshold: threshold, query: queryPool, now: time.Now}
}

// WithQuery replaces the network query. Used by tests.
func (c *Checker) WithQuery(q QueryFunc) *Checker {
	c.query = q
	return c
}

// Check queries the pool once.
func (c *Checker) Check() Status {
	offset, err := c.query(c.pool, defaultTimeout)
	now := c.now()
	if err != nil {
		return Status{Phase: PhaseError, Error: err.Error(), CheckedAt: now}
	}

	phase := PhaseUnhealthyOffset
	if offset.Abs() < c.threshold {
		phase = PhaseHealthy
	}
	return Status{Offset: offset, Phase: phase, CheckedAt: now}
}

func queryPool(pool string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(pool, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
