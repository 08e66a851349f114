// Package timeutil provides date arithmetic for the practice calendar. All
// scheduling is day-granular: a "date" is a civil day in the club's timezone,
// normalized to midnight. No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage form of a practice date.
const DateLayout = "2006-01-02"

// Clock resolves the current practice date. A fixed override lets operators
// replay or pre-test a specific day without touching the system clock.
type Clock struct {
	loc      *time.Location
	override time.Time
	fixed    bool
}

// NewClock creates a clock in the given timezone. A nil location means UTC.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// NewFixedClock creates a clock pinned to one date, for operator overrides
// and tests.
func NewFixedClock(loc *time.Location, date time.Time) *Clock {
	c := NewClock(loc)
	c.override = DateOf(date.In(c.loc))
	c.fixed = true
	return c
}

// Location returns the clock's timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Today returns the current practice date at midnight.
func (c *Clock) Today() time.Time {
	if c.fixed {
		return c.override
	}
	return DateOf(time.Now().In(c.loc))
}

// Tomorrow returns the practice date one day after Today.
func (c *Clock) Tomorrow() time.Time {
	return c.Today().AddDate(0, 0, 1)
}

// DateOf truncates a time to midnight in its own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate checks whether two times fall on the same civil day, each in its
// own location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate renders a date in the storage layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a storage-layout date in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// NextOccurrence returns the next time the wall clock reads hour:minute in
// the given location, strictly after from.
func NextOccurrence(from time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := from.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
