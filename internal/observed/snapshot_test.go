package observed

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeReader struct {
	containers []Container
	volumes    []string
	networks   []string
	volumesErr error
}

func (f *fakeReader) ListContainers(context.Context) ([]Container, error) { return f.containers, nil }

func (f *fakeReader) InspectContainer(context.Context, string) (Record, error) {
	return Record{}, errors.New("not used")
}

func (f *fakeReader) ListVolumes(context.Context) ([]string, error) { return f.volumes, f.volumesErr }

func (f *fakeReader) ListNetworks(context.Context) ([]string, error) { return f.networks, nil }

func TestCollect(t *testing.T) {
	r := &fakeReader{
		containers: []Container{{ID: "c1", Image: "app:v1"}},
		volumes:    []string{"shop_data"},
		networks:   []string{"bridge", "shop_front"},
	}

	snap, err := Collect(context.Background(), r)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := Snapshot{
		Containers: r.containers,
		Volumes:    r.volumes,
		Networks:   r.networks,
	}
	if !reflect.DeepEqual(snap, want) {
		t.Fatalf("Collect() = %+v, want %+v", snap, want)
	}
}

func TestCollect_PropagatesListFailure(t *testing.T) {
	r := &fakeReader{volumesErr: errors.New("daemon gone")}
	_, err := Collect(context.Background(), r)
	if err == nil {
		t.Fatal("Collect() should fail when a listing fails")
	}
	if !strings.Contains(err.Error(), "list volumes") {
		t.Fatalf("error = %v, want list volumes context", err)
	}
}
