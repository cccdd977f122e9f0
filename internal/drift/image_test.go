package drift

import (
	"testing"
	"time"

	"driftd/internal/manifest"
	"driftd/internal/observed"
)

func TestImageMatches(t *testing.T) {
	tests := []struct {
		running, desired string
		want             bool
	}{
		{"app:v1", "app:v1", true},
		{"nginx", "docker.io/library/nginx:latest", true},
		{"nginx:latest", "nginx", true},
		{"ghcr.io/acme/api:1.2", "ghcr.io/acme/api:1.2", true},
		{"app:v1", "app:v2", false},
		{"app:v1", "", false},
		{"", "", false},
		{"registry:5000/app", "registry:5000/app:latest", true},
		{"Not A Ref", "Not A Ref", true},
	}
	for _, tt := range tests {
		if got := ImageMatches(tt.running, tt.desired); got != tt.want {
			t.Errorf("ImageMatches(%q, %q) = %v, want %v", tt.running, tt.desired, got, tt.want)
		}
	}
}

func TestCandidates_Order(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	containers := []observed.Container{
		{ID: "c-newer", Image: "app:v1", Created: base.Add(time.Hour)},
		{ID: "c-other", Image: "db:16", Created: base},
		{ID: "c-b", Image: "app:v1", Created: base},
		{ID: "c-a", Image: "app:v1", Created: base},
		{ID: "c-labelled", Image: "app:v1", Created: base.Add(2 * time.Hour), Labels: map[string]string{
			composeServiceLabel: "web",
			composeProjectLabel: "shop",
		}},
		{ID: "c-foreign", Image: "app:v1", Created: base.Add(-time.Hour), Labels: map[string]string{
			composeServiceLabel: "web",
			composeProjectLabel: "other",
		}},
	}
	svc := manifest.ServiceSpec{Name: "web", Image: "app:v1"}

	got := Candidates(containers, svc, "shop")
	want := []string{"c-labelled", "c-foreign", "c-a", "c-b", "c-newer"}
	if len(got) != len(want) {
		t.Fatalf("Candidates() returned %d containers, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("candidate %d = %s, want %s", i, c.ID, want[i])
		}
	}
}

func TestCandidates_NoMatch(t *testing.T) {
	containers := []observed.Container{{ID: "c1", Image: "db:16"}}
	if got := Candidates(containers, manifest.ServiceSpec{Name: "web", Image: "app:v1"}, ""); len(got) != 0 {
		t.Fatalf("Candidates() = %v, want none", got)
	}
}
