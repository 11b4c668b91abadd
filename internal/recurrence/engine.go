package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily generates one occurrence per day.
	FrequencyDaily
	// FrequencyWeekly generates one occurrence every seven days.
	FrequencyWeekly
	// FrequencyMonthly generates one occurrence per calendar month,
	// preserving the day-of-month of the first occurrence.
	FrequencyMonthly
)

// String returns the canonical name of the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "Daily"
	case FrequencyWeekly:
		return "Weekly"
	case FrequencyMonthly:
		return "Monthly"
	default:
		return "Unspecified"
	}
}

// ParseFrequency maps a frequency name to its typed value.
func ParseFrequency(value string) (Frequency, error) {
	switch value {
	case "Daily":
		return FrequencyDaily, nil
	case "Weekly":
		return FrequencyWeekly, nil
	case "Monthly":
		return FrequencyMonthly, nil
	default:
		return FrequencyUnspecified, fmt.Errorf("%w: %q", ErrInvalidFrequency, value)
	}
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// String formats the time of day as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the time of day as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Rule describes a recurring reservation request.
type Rule struct {
	Frequency Frequency
	FirstDate time.Time
	EndDate   time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// Occurrence is one concrete instance generated from a rule.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrInvalidTimeOfDay indicates a time-of-day value could not be parsed.
var ErrInvalidTimeOfDay = errors.New("recurrence: invalid time of day")

// ErrInvalidWindow indicates the daily window end does not follow its start.
var ErrInvalidWindow = errors.New("recurrence: window end must be after start")

// Expand generates the ordered, finite occurrence sequence for a rule.
//
// Expansion is a pure function of the rule: it performs no I/O and is safe
// to re-run for previews. Semantics:
//   - The series end date is inclusive; an end date before the first
//     occurrence date yields an empty sequence, not an error.
//   - Daily steps one day, Weekly seven days.
//   - Monthly preserves the first occurrence's day-of-month, clamping to
//     the last day of shorter months (31st -> 30th/28th/29th).
func Expand(rule Rule) ([]Occurrence, error) {
	if rule.Frequency == FrequencyUnspecified {
		return nil, ErrInvalidFrequency
	}
	if rule.EndTime.Minutes() <= rule.StartTime.Minutes() {
		return nil, ErrInvalidWindow
	}

	loc := rule.FirstDate.Location()
	first := dateOnly(rule.FirstDate, loc)
	last := dateOnly(rule.EndDate, loc)
	if last.Before(first) {
		return nil, nil
	}

	occurrences := make([]Occurrence, 0)
	emit := func(day time.Time) {
		occurrences = append(occurrences, Occurrence{
			Start: atTimeOfDay(day, rule.StartTime, loc),
			End:   atTimeOfDay(day, rule.EndTime, loc),
		})
	}

	switch rule.Frequency {
	case FrequencyDaily, FrequencyWeekly:
		step := 1
		if rule.Frequency == FrequencyWeekly {
			step = 7
		}
		for day := first; !day.After(last); day = day.AddDate(0, 0, step) {
			emit(day)
		}
	case FrequencyMonthly:
		anchorDay := first.Day()
		for i := 0; ; i++ {
			day := monthlyCandidate(first, anchorDay, i, loc)
			if day.After(last) {
				break
			}
			emit(day)
		}
	default:
		return nil, ErrInvalidFrequency
	}

	return occurrences, nil
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func atTimeOfDay(day time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, loc)
}

// monthlyCandidate returns the anchor day-of-month in the i-th month after
// the first occurrence, clamped to the length of that month.
func monthlyCandidate(first time.Time, anchorDay, i int, loc *time.Location) time.Time {
	firstOfMonth := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, i, 0)
	day := anchorDay
	if max := daysInMonth(firstOfMonth.Year(), firstOfMonth.Month(), loc); day > max {
		day = max
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, loc)
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
