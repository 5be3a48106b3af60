// Package units implements temporal versioning for administrative units.
// A Unit (region or district) owns an ordered, non-overlapping sequence of
// time-bounded states; a Registry is the catalog of every unit of one kind
// that ever existed, including abolished ones.
package units

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"admhist/pkg/faults"
	"admhist/pkg/timespan"
)

type Kind string

const (
	KindRegion   Kind = "region"
	KindDistrict Kind = "district"
)

// District types carried over from the source records: "w" for rural,
// "m" for municipal.
const (
	DistTypeRural     = "w"
	DistTypeMunicipal = "m"
)

// ChangeRef is one entry of a unit's append-only audit log. Changes are
// referenced by opaque ID rather than by pointer so that units and changes
// never own each other.
type ChangeRef struct {
	Event    string
	ChangeID string
}

// State is one time-bounded snapshot of a unit's mutable attributes. It is
// exclusively owned by its Unit and never shared between units or states.
type State struct {
	ID       string
	Name     string
	SeatName string

	// District-specific attributes; zero-valued on region states.
	DistType  string
	Territory interface{} // geometry placeholder, filled by external overlay tooling

	Span *timespan.Span

	// Audit links to the changes that opened and closed this state.
	PrevChangeID string
	NextChangeID string
}

// Unit is one region or district with its full version history.
type Unit struct {
	Kind             Kind
	NameID           string
	NameVariants     []string
	SeatNameVariants []string
	IsHomeland       bool // regions only

	States  []*State
	Changes []ChangeRef
}

// New validates the immutable identity of a unit. The canonical NameID must
// appear among its own name variants.
func New(kind Kind, nameID string, nameVariants, seatNameVariants []string) (*Unit, error) {
	if nameID == "" {
		return nil, faults.Shapef("unit has empty name_id")
	}
	if !contains(nameVariants, nameID) {
		return nil, faults.Shapef("name_id %q must be one of its own name variants %v", nameID, nameVariants)
	}
	return &Unit{
		Kind:             kind,
		NameID:           nameID,
		NameVariants:     append([]string(nil), nameVariants...),
		SeatNameVariants: append([]string(nil), seatNameVariants...),
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MatchesName reports whether name is one of the unit's name or seat name
// variants.
func (u *Unit) MatchesName(name string) bool {
	return contains(u.NameVariants, name) || contains(u.SeatNameVariants, name)
}

// AddState appends a state and keeps the sequence sorted by start date.
func (u *Unit) AddState(st *State) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	u.States = append(u.States, st)
	u.sortStates()
}

func (u *Unit) sortStates() {
	sort.SliceStable(u.States, func(i, j int) bool {
		return u.States[i].Span.Start.Before(u.States[j].Span.Start)
	})
}

// FindStateAt returns the state whose span covers date, or nil when the date
// falls outside every state (including historical existence gaps).
func (u *Unit) FindStateAt(date time.Time) *State {
	for _, st := range u.States {
		if st.Span != nil && st.Span.ContainsInstant(date) {
			return st
		}
	}
	return nil
}

// FindStateBySpan returns the state with exactly the given boundaries.
func (u *Unit) FindStateBySpan(span *timespan.Span) *State {
	for _, st := range u.States {
		if st.Span != nil && st.Span.Start.Equal(span.Start) && st.Span.End.Equal(span.End) {
			return st
		}
	}
	return nil
}

// ExistsAt reports whether the unit has a state covering the date.
func (u *Unit) ExistsAt(date time.Time) bool {
	return u.FindStateAt(date) != nil
}

// CreateNextState splits the state covering date in two: the covering state
// is truncated to end at date and a clone of it opens at date, running to
// the old end. The clone is an explicit field-by-field copy so no mutable
// attribute is shared between the two states. Fails when no state covers
// the date, or when the date coincides with a state boundary (either half
// would be empty).
func (u *Unit) CreateNextState(date time.Time) (*State, *State, error) {
	last := u.FindStateAt(date)
	if last == nil {
		return nil, nil, faults.Invariantf("%s %s: no state covers %s", u.Kind, u.NameID, date.Format("2006-01-02"))
	}
	newSpan, err := timespan.New(date, last.Span.End)
	if err != nil {
		return nil, nil, err
	}
	if err := last.Span.SetEnd(date); err != nil {
		return nil, nil, err
	}
	next := &State{
		ID:        uuid.NewString(),
		Name:      last.Name,
		SeatName:  last.SeatName,
		DistType:  last.DistType,
		Territory: last.Territory,
		Span:      newSpan,
	}
	u.States = append(u.States, next)
	u.sortStates()
	return last, next, nil
}

// Abolish truncates the covering state at date. The unit stays in its
// registry and may regain a state later (reentry), leaving a historical gap.
func (u *Unit) Abolish(date time.Time) (*State, error) {
	last := u.FindStateAt(date)
	if last == nil {
		return nil, faults.Invariantf("%s %s: no state covers %s", u.Kind, u.NameID, date.Format("2006-01-02"))
	}
	if err := last.Span.SetEnd(date); err != nil {
		return nil, err
	}
	return last, nil
}

// RecordChange appends one audit entry. The log is append-only and is never
// pruned.
func (u *Unit) RecordChange(event, changeID string) {
	u.Changes = append(u.Changes, ChangeRef{Event: event, ChangeID: changeID})
}
