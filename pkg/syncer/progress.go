package syncer

// Phases of a run, in order.
const (
	PhaseIdle       = "idle"
	PhaseStarting   = "starting"
	PhaseFetching   = "fetching"
	PhaseExtracting = "extracting"
	PhasePreviews   = "previews"
	PhaseCommitting = "committing"
	PhaseDone       = "done"
)

// Progress is a polled view of the running sync. Percent never decreases
// within a run.
type Progress struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// advance returns p moved to the given phase, keeping Percent monotonic.
func (p Progress) advance(phase string, percent int, message string) Progress {
	if percent < p.Percent {
		percent = p.Percent
	}
	if percent > 100 {
		percent = 100
	}
	return Progress{Phase: phase, Percent: percent, Message: message}
}

// filePercent maps step (0..steps) of file i out of n into the 5-90 range
// reserved for per-file work.
func filePercent(i, n, step, steps int) int {
	if n == 0 || steps == 0 {
		return 90
	}
	return 5 + (85*(i*steps+step))/(n*steps)
}
