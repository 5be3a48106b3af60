package changes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// Reformable state attributes, keyed the way the input records name them.
const (
	AttrName     = "current_name"
	AttrSeatName = "current_seat_name"
	AttrDistType = "current_dist_type"
)

// UnitReform changes attributes of a single unit at a date: the unit's
// current state is split at the date and the new state receives the
// after-reform values, provided it currently holds exactly the to-reform
// values (stale-precondition check).
type UnitReform struct {
	UnitKind    units.Kind
	CurrentName string
	ToReform    map[string]string
	AfterReform map[string]string
}

func NewUnitReform(kind units.Kind, currentName string, toReform, afterReform map[string]string) (*UnitReform, error) {
	if kind != units.KindRegion && kind != units.KindDistrict {
		return nil, faults.Shapef("unit reform: unknown unit kind %q", kind)
	}
	if currentName == "" {
		return nil, faults.Shapef("unit reform: empty unit name")
	}
	if len(toReform) == 0 {
		return nil, faults.Shapef("unit reform of %q: nothing to reform", currentName)
	}
	for key := range toReform {
		if _, ok := afterReform[key]; !ok {
			return nil, faults.Shapef("unit reform of %q: %q present before but not after the reform", currentName, key)
		}
		if err := validateAttr(kind, key); err != nil {
			return nil, err
		}
	}
	for key := range afterReform {
		if _, ok := toReform[key]; !ok {
			return nil, faults.Shapef("unit reform of %q: %q present after but not before the reform", currentName, key)
		}
	}
	return &UnitReform{
		UnitKind:    kind,
		CurrentName: currentName,
		ToReform:    toReform,
		AfterReform: afterReform,
	}, nil
}

func validateAttr(kind units.Kind, key string) error {
	switch key {
	case AttrName, AttrSeatName:
		return nil
	case AttrDistType:
		if kind != units.KindDistrict {
			return faults.Shapef("attribute %q applies to districts only", key)
		}
		return nil
	default:
		return faults.Shapef("unknown reformable attribute %q", key)
	}
}

func stateAttr(st *units.State, key string) (string, error) {
	switch key {
	case AttrName:
		return st.Name, nil
	case AttrSeatName:
		return st.SeatName, nil
	case AttrDistType:
		return st.DistType, nil
	default:
		return "", faults.Invariantf("unknown reformable attribute %q", key)
	}
}

func setStateAttr(st *units.State, key, value string) error {
	switch key {
	case AttrName:
		st.Name = value
	case AttrSeatName:
		st.SeatName = value
	case AttrDistType:
		st.DistType = value
	default:
		return faults.Invariantf("unknown reformable attribute %q", key)
	}
	return nil
}

func (m *UnitReform) sortedKeys() []string {
	keys := make([]string, 0, len(m.ToReform))
	for k := range m.ToReform {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *UnitReform) Kind() string { return "UnitReform" }

func (m *UnitReform) Summary(date time.Time, source string) string {
	var parts []string
	for _, key := range m.sortedKeys() {
		parts = append(parts, fmt.Sprintf("%s: %q -> %q", key, m.ToReform[key], m.AfterReform[key]))
	}
	return fmt.Sprintf("%s: the %s %s was reformed (%s) (%s)",
		date.Format("2006-01-02"), m.UnitKind, m.CurrentName, strings.Join(parts, ", "), source)
}

func (m *UnitReform) DistrictsInvolved() []string {
	if m.UnitKind == units.KindDistrict {
		return []string{m.CurrentName}
	}
	return nil
}

func (m *UnitReform) fillUnitsAffected(c *Change, env Env) error {
	if m.UnitKind == units.KindRegion {
		c.Before.Regions = []string{m.CurrentName}
		c.After.Regions = []string{m.CurrentName}
	} else {
		c.Before.Districts = []string{m.CurrentName}
		c.After.Districts = []string{m.CurrentName}
	}
	return nil
}

func (m *UnitReform) verifyAddresses(c *Change, env Env) error {
	u, err := env.registryFor(m.UnitKind).FindUnit(m.CurrentName)
	if err != nil {
		return err
	}
	if _, ok := env.State.FindAddress(u.NameID, m.UnitKind); !ok {
		return faults.Consistencyf("%s %q is not in the administrative hierarchy", m.UnitKind, u.NameID)
	}
	return nil
}

func (m *UnitReform) verifyReformTargets(c *Change, env Env) error {
	u, err := env.registryFor(m.UnitKind).FindUnit(m.CurrentName)
	if err != nil {
		return err
	}
	st := u.FindStateAt(c.Date)
	if st == nil {
		return faults.Consistencyf("%s %q has no state on %s", m.UnitKind, u.NameID, c.Date.Format("2006-01-02"))
	}
	for _, key := range m.sortedKeys() {
		current, err := stateAttr(st, key)
		if err != nil {
			return err
		}
		if current != m.ToReform[key] {
			return faults.Consistencyf("reform of %s %q on %s expects %s %q but found %q",
				m.UnitKind, u.NameID, c.Date.Format("2006-01-02"), key, m.ToReform[key], current)
		}
	}
	return nil
}

func (m *UnitReform) apply(c *Change, env Env) error {
	u, err := env.registryFor(m.UnitKind).FindUnit(m.CurrentName)
	if err != nil {
		return err
	}
	ended, next, err := u.CreateNextState(c.Date)
	if err != nil {
		return err
	}
	for _, key := range m.sortedKeys() {
		current, err := stateAttr(next, key)
		if err != nil {
			return err
		}
		if current != m.ToReform[key] {
			return faults.Consistencyf("reform of %s %q on %s expects %s %q but found %q",
				m.UnitKind, u.NameID, c.Date.Format("2006-01-02"), key, m.ToReform[key], current)
		}
		if err := setStateAttr(next, key, m.AfterReform[key]); err != nil {
			return err
		}
	}
	c.tag(u, "reform")
	c.endState(ended)
	c.openState(next)
	return nil
}
