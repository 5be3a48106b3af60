package units

import (
	"time"

	"admhist/pkg/faults"
)

// Registry is the catalog of every unit of one kind that ever existed.
type Registry struct {
	Kind  Kind
	Units []*Unit
}

func NewRegistry(kind Kind) *Registry {
	return &Registry{Kind: kind}
}

// Existing pairs a unit with its state active at some queried date.
type Existing struct {
	Unit  *Unit
	State *State
}

// FindUnit resolves a name against every unit's name and seat variants.
// Exactly one match is expected: zero matches is a consistency error,
// several matches mean the registry data itself is ambiguous. Callers that
// want all candidates (for diagnostics or suggestions) should use FindUnits.
func (r *Registry) FindUnit(name string) (*Unit, error) {
	matches := r.FindUnits(name)
	switch len(matches) {
	case 0:
		return nil, faults.Consistencyf("%s %q is not in the registry", r.Kind, name)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, 0, len(matches))
		for _, u := range matches {
			ids = append(ids, u.NameID)
		}
		return nil, faults.Invariantf("%s name %q is ambiguous, matches %v", r.Kind, name, ids)
	}
}

// FindUnits returns every unit matching the name, without the
// exactly-one-match expectation of FindUnit.
func (r *Registry) FindUnits(name string) []*Unit {
	var matches []*Unit
	for _, u := range r.Units {
		if u.MatchesName(name) {
			matches = append(matches, u)
		}
	}
	return matches
}

// ByNameID looks a unit up by its canonical identifier only.
func (r *Registry) ByNameID(nameID string) *Unit {
	for _, u := range r.Units {
		if u.NameID == nameID {
			return u
		}
	}
	return nil
}

// FindUnitStateAt resolves the unit and its state covering date. The state
// is nil when the unit exists but has no coverage at the date.
func (r *Registry) FindUnitStateAt(name string, date time.Time) (*Unit, *State, error) {
	u, err := r.FindUnit(name)
	if err != nil {
		return nil, nil, err
	}
	return u, u.FindStateAt(date), nil
}

// CreateNextState splits the named unit's covering state at date.
func (r *Registry) CreateNextState(name string, date time.Time) (*State, *State, error) {
	u, err := r.FindUnit(name)
	if err != nil {
		return nil, nil, err
	}
	return u.CreateNextState(date)
}

// AllUnitStatesAt returns every unit existing at date together with its
// active state.
func (r *Registry) AllUnitStatesAt(date time.Time) []Existing {
	var out []Existing
	for _, u := range r.Units {
		if st := u.FindStateAt(date); st != nil {
			out = append(out, Existing{Unit: u, State: st})
		}
	}
	return out
}

// AddUnit registers a unit. When a unit with the same canonical identifier
// already exists, its states are appended to the existing unit instead of
// duplicating the catalog entry; this is how an abolished unit re-enters
// history after a gap. Name and seat name variants the catalog has not seen
// yet are merged in, so lookups by a reentry-era spelling keep resolving.
func (r *Registry) AddUnit(u *Unit) (*Unit, error) {
	if u.Kind != r.Kind {
		return nil, faults.Shapef("cannot add %s %q to the %s registry", u.Kind, u.NameID, r.Kind)
	}
	if existing := r.ByNameID(u.NameID); existing != nil {
		for _, st := range u.States {
			if st.Span != nil && existing.FindStateAt(st.Span.Start) != nil {
				return nil, faults.Consistencyf("%s %q already has a state covering %s", u.Kind, u.NameID, st.Span.Start.Format("2006-01-02"))
			}
			existing.AddState(st)
		}
		for _, v := range u.NameVariants {
			if !contains(existing.NameVariants, v) {
				existing.NameVariants = append(existing.NameVariants, v)
			}
		}
		for _, v := range u.SeatNameVariants {
			if !contains(existing.SeatNameVariants, v) {
				existing.SeatNameVariants = append(existing.SeatNameVariants, v)
			}
		}
		return existing, nil
	}
	r.Units = append(r.Units, u)
	return u, nil
}
