package difficulty

// Score thresholds on the latest graded overall percentage.
const (
	HardThreshold   = 80.0
	MediumThreshold = 50.0
)

// Outcome is the part of a past activity the selector looks at.
type Outcome struct {
	// Date is the activity's calendar day as YYYY-MM-DD.
	Date string

	// Graded is true once a parent has scored the activity.
	Graded bool

	// Overall is the graded overall percentage. Ignored unless Graded.
	Overall float64
}

// Next picks the difficulty for the next activity. Only graded outcomes
// count; the one with the latest date decides. With no graded history the
// learner starts at Easy.
func Next(history []Outcome) Level {
	var latest *Outcome
	for i := range history {
		o := &history[i]
		if !o.Graded {
			continue
		}
		if latest == nil || o.Date > latest.Date {
			latest = o
		}
	}
	if latest == nil {
		return Easy
	}
	return ForScore(latest.Overall)
}

// ForScore maps an overall percentage to a level.
func ForScore(overall float64) Level {
	switch {
	case overall >= HardThreshold:
		return Hard
	case overall >= MediumThreshold:
		return Medium
	default:
		return Easy
	}
}
