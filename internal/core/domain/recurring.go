package domain

import "time"

// Frequency is the repeat interval of a recurring invoice template.
type Frequency string

const (
	FrequencyMonthly    Frequency = "Monthly"
	FrequencyQuarterly  Frequency = "Quarterly"
	FrequencyBiAnnually Frequency = "Bi-Annually"
	FrequencyAnnually   Frequency = "Annually"
)

// Advance returns t moved forward by one period. ok is false for an
// unknown frequency.
func (f Frequency) Advance(t time.Time) (next time.Time, ok bool) {
	switch f {
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0), true
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0), true
	case FrequencyBiAnnually:
		return t.AddDate(0, 6, 0), true
	case FrequencyAnnually:
		return t.AddDate(1, 0, 0), true
	}
	return t, false
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
