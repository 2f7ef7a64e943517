package html2pdf

import (
	"runtime"
	"testing"
)

func TestResolveWorkers(t *testing.T) {
	t.Parallel()

	auto := max(min(runtime.GOMAXPROCS(0), MaxWorkers), MinWorkers)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit value is kept", 3, 3},
		{"explicit one", 1, 1},
		{"explicit value is capped", MaxWorkers + 10, MaxWorkers},
		{"zero resolves from GOMAXPROCS", 0, auto},
		{"negative resolves from GOMAXPROCS", -4, auto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolveWorkers(tt.workers)
			if got != tt.want {
				t.Errorf("ResolveWorkers(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}
