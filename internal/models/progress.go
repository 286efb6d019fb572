package models

// Phase is the stage of a detection run reported through progress events.
type Phase string

const (
	PhaseScanning  Phase = "scanning"
	PhaseComparing Phase = "comparing"
	PhaseDone      Phase = "done"
)

// Progress is a single progress event.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// Percent returns the completion percentage rounded down, or 0 when Total is 0.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Current * 100 / p.Total
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid and ignored.
type ProgressFunc func(Progress)

// Report calls f with p when f is not nil.
func (f ProgressFunc) Report(p Progress) {
	if f != nil {
		f(p)
	}
}
