package compaction

import (
	"fmt"
	"time"
)

const (
	// DevInterval is the sweep cadence used during development.
	DevInterval = 300 * time.Second
	// DefaultHour and DefaultMinute place the production sweep at 02:00 local time.
	DefaultHour   = 2
	DefaultMinute = 0
)

// Policy decides when the next sweep starts.
type Policy interface {
	// Next returns the first run time strictly after now.
	Next(now time.Time) time.Time
	String() string
}

type every struct {
	d time.Duration
}

// Every runs a sweep each d after the previous one finished.
// A non-positive d falls back to DevInterval.
func Every(d time.Duration) Policy {
	if d <= 0 {
		d = DevInterval
	}
	return every{d: d}
}

func (e every) Next(now time.Time) time.Time {
	return now.Add(e.d)
}

func (e every) String() string {
	return "every " + e.d.String()
}

type dailyAt struct {
	hour, minute int
	loc          *time.Location
}

// DailyAt runs a sweep once a day at hour:minute wall-clock time in loc
// (time.Local when nil). Out-of-range values are rejected.
func DailyAt(hour, minute int, loc *time.Location) (Policy, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid daily time %02d:%02d", hour, minute)
	}
	if loc == nil {
		loc = time.Local
	}
	return dailyAt{hour: hour, minute: minute, loc: loc}, nil
}

// Next returns today's slot when it is still ahead, tomorrow's otherwise.
// A slot that falls in a DST gap is normalised forward by time.Date.
func (d dailyAt) Next(now time.Time) time.Time {
	local := now.In(d.loc)
	y, m, day := local.Date()
	next := time.Date(y, m, day, d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(y, m, day+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

func (d dailyAt) String() string {
	return fmt.Sprintf("daily at %02d:%02d %s", d.hour, d.minute, d.loc)
}
