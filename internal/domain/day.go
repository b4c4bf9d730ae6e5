package domain

import "time"

// DayNumber identifies a publishing weekday: Monday=1 through Saturday=6.
// Sunday has no configuration of its own; callers normalize it to Monday
// before the value reaches the pipeline.
type DayNumber int

const (
	MinDay DayNumber = 1
	MaxDay DayNumber = 6
)

// Valid reports whether the day falls inside the configured range.
func (d DayNumber) Valid() bool {
	return d >= MinDay && d <= MaxDay
}

// EffectiveDay maps a wall-clock instant to its DayNumber, folding
// Sunday onto Monday.
func EffectiveDay(now time.Time) DayNumber {
	wd := int(now.Weekday())
	if wd == 0 {
		return MinDay
	}
	return DayNumber(wd)
}
