// Package timespan implements the half-open time interval used by unit states
// and administrative snapshots.
package timespan

import (
	"fmt"
	"time"

	"admhist/pkg/faults"
)

// Span is a half-open interval [Start, End). End must be strictly after
// Start. The middle point is derived at construction (and on truncation) and
// cannot be set directly.
type Span struct {
	Start time.Time
	End   time.Time

	middle time.Time
}

// New builds a span and fails if it would be empty or inverted.
func New(start, end time.Time) (*Span, error) {
	if !end.After(start) {
		return nil, faults.Shapef("invalid timespan: end %s is not after start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	s := &Span{Start: start, End: end}
	s.updateMiddle()
	return s, nil
}

// MustNew is a test/fixture helper; it panics on an invalid span.
func MustNew(start, end time.Time) *Span {
	s, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return s
}

// Middle returns the midpoint of the span, rounded up to the next midnight
// unless the midpoint already falls on one.
func (s *Span) Middle() time.Time { return s.middle }

func (s *Span) updateMiddle() {
	mid := s.Start.Add(s.End.Sub(s.Start) / 2)
	s.middle = ceilToMidnight(mid)
}

func ceilToMidnight(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if t.Equal(day) {
		return t
	}
	return day.AddDate(0, 0, 1)
}

// ContainsInstant reports whether t falls inside the half-open interval:
// Start <= t < End.
func (s *Span) ContainsInstant(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// ContainsSpan reports whether other lies within this span, inclusive on
// both endpoints. This is intentionally a different predicate from
// ContainsInstant: an instant at End is outside the span, but a sub-span
// ending exactly at End is contained. The two must not be unified.
func (s *Span) ContainsSpan(other *Span) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}

// SetEnd truncates (or extends) the span and recomputes the middle. It
// refuses to produce an empty span.
func (s *Span) SetEnd(end time.Time) error {
	if !end.After(s.Start) {
		return faults.Shapef("invalid timespan truncation: end %s is not after start %s", end.Format("2006-01-02"), s.Start.Format("2006-01-02"))
	}
	s.End = end
	s.updateMiddle()
	return nil
}

// Clone returns an independent copy.
func (s *Span) Clone() *Span {
	c := *s
	return &c
}

func (s *Span) String() string {
	return fmt.Sprintf("[%s, %s)", s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
}
