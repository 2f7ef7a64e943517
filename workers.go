package html2pdf

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one conversion runs at a time.
	MinWorkers = 1

	// MaxWorkers caps concurrent tabs; every worker shares one browser, so
	// the bound is renderer memory rather than process count.
	MaxWorkers = 32
)

// ResolveWorkers determines the batch parallelism and the default idle tab
// cap. Priority: explicit value > GOMAXPROCS (adjusted by automaxprocs in
// containers). Exported for use by servers and CLIs.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return min(workers, MaxWorkers)
	}
	return max(min(runtime.GOMAXPROCS(0), MaxWorkers), MinWorkers)
}
