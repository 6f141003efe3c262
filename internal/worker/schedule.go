package worker

import (
	"time"

	"github.com/riverqueue/river"
)

// DailySchedule fires once a day at Hour:Minute UTC.
type DailySchedule struct {
	Hour   int
	Minute int
}

// Ensure DailySchedule conforms to the river.PeriodicSchedule interface at compile time.
var _ river.PeriodicSchedule = DailySchedule{}

// Next returns the first firing time strictly after current.
func (s DailySchedule) Next(current time.Time) time.Time {
	current = current.UTC()
	next := time.Date(current.Year(), current.Month(), current.Day(), s.Hour, s.Minute, 0, 0, time.UTC)
	if !next.After(current) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}
