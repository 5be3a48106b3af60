// Package history replays a dated change list against one running
// (administrative state, region registry, district registry) triple,
// producing one hierarchy snapshot per distinct change date.
package history

import (
	"fmt"
	"sort"
	"time"

	"admhist/pkg/admstate"
	"admhist/pkg/changes"
	"admhist/pkg/faults"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

// Config is everything a replay needs: the global timespan, the initial
// hierarchy (its span must equal the global one), the two registries and
// the unordered change list.
type Config struct {
	Span         *timespan.Span
	InitialState *admstate.State
	Regions      *units.Registry
	Districts    *units.Registry
	Changes      []*changes.Change
}

// History holds the chronology and, after Replay, the full sequence of
// snapshots. External collaborators consume it read-only.
type History struct {
	Span      *timespan.Span
	Regions   *units.Registry
	Districts *units.Registry

	StatesList  []*admstate.State
	ChangesList []*changes.Change

	dates    []time.Time
	byDate   map[time.Time][]*changes.Change
	replayed bool
}

// New validates the configuration and totally orders the changes: grouped
// by date ascending; within a date, changes with an explicit order come
// first, ascending; changes without one follow in input order. The ordering
// among order-less same-date changes is an explicit contract of this
// function, not an accident of the input container.
func New(cfg Config) (*History, error) {
	if cfg.Span == nil {
		return nil, faults.Shapef("history has no global timespan")
	}
	if cfg.InitialState == nil || cfg.Regions == nil || cfg.Districts == nil {
		return nil, faults.Shapef("history needs an initial state and both registries")
	}
	if cfg.InitialState.Span == nil {
		return nil, faults.Shapef("initial state has no timespan")
	}
	if !cfg.InitialState.Span.Start.Equal(cfg.Span.Start) || !cfg.InitialState.Span.End.Equal(cfg.Span.End) {
		return nil, faults.Shapef("initial state span %s does not equal the global timespan %s",
			cfg.InitialState.Span, cfg.Span)
	}
	// The global span is kept on its own copy: replaying truncates snapshot
	// spans, and the caller may have handed the initial state the same Span
	// value it configured here.
	h := &History{
		Span:        cfg.Span.Clone(),
		Regions:     cfg.Regions,
		Districts:   cfg.Districts,
		StatesList:  []*admstate.State{cfg.InitialState},
		ChangesList: append([]*changes.Change(nil), cfg.Changes...),
		byDate:      make(map[time.Time][]*changes.Change),
	}
	for _, c := range h.ChangesList {
		if !cfg.Span.ContainsInstant(c.Date) || c.Date.Equal(cfg.Span.Start) {
			return nil, faults.Shapef("change dated %s falls outside the global timespan %s",
				c.Date.Format("2006-01-02"), cfg.Span)
		}
	}
	sortChanges(h.ChangesList)
	for _, c := range h.ChangesList {
		if _, seen := h.byDate[c.Date]; !seen {
			h.dates = append(h.dates, c.Date)
		}
		h.byDate[c.Date] = append(h.byDate[c.Date], c)
	}
	return h, nil
}

// sortChanges totally orders the list: by date ascending, then explicit
// orders ascending before order-less changes, with the input order preserved
// among the latter (stable sort).
func sortChanges(list []*changes.Change) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		switch {
		case a.Order == nil && b.Order == nil:
			return false
		case a.Order == nil:
			return false
		case b.Order == nil:
			return true
		default:
			return *a.Order < *b.Order
		}
	})
}

// Replay applies every change, date by date, against the single running
// triple. Same-date changes run sequentially and each observes the effects
// of the previous one; there is no snapshot isolation within a date. After
// each date's batch the previous snapshot is closed at that date and the
// new one appended. The replay is strictly sequential and aborts on the
// first failing change with no partial checkpoint.
func (h *History) Replay() error {
	if h.replayed {
		return faults.Invariantf("history already replayed")
	}
	h.replayed = true
	for _, date := range h.dates {
		previous := h.StatesList[len(h.StatesList)-1]
		span, err := timespan.New(date, h.Span.End)
		if err != nil {
			return err
		}
		running := previous.Clone(span)
		env := changes.Env{
			State:     running,
			Regions:   h.Regions,
			Districts: h.Districts,
			Horizon:   h.Span.End,
		}
		for _, c := range h.byDate[date] {
			if err := c.Apply(env); err != nil {
				return fmt.Errorf("replay aborted at %s: %w", date.Format("2006-01-02"), err)
			}
		}
		if err := previous.Span.SetEnd(date); err != nil {
			return err
		}
		h.StatesList = append(h.StatesList, running)
	}
	return nil
}

// ChangeDates lists the distinct change dates, ascending.
func (h *History) ChangeDates() []time.Time {
	return append([]time.Time(nil), h.dates...)
}

// StateAt returns the snapshot whose timespan covers the date, nil outside
// the replayed range.
func (h *History) StateAt(date time.Time) *admstate.State {
	for _, st := range h.StatesList {
		if st.Span != nil && st.Span.ContainsInstant(date) {
			return st
		}
	}
	return nil
}

// Summarize renders one line per change, in replay order.
func (h *History) Summarize() []string {
	out := make([]string, 0, len(h.ChangesList))
	for _, c := range h.ChangesList {
		out = append(out, c.Summary())
	}
	return out
}
