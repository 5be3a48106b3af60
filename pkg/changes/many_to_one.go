package changes

import (
	"fmt"
	"strings"
	"time"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// ManyToOne is the mirror of OneToMany: several independent sources are
// abolished or re-stated, then a single destination is created or re-stated.
type ManyToOne struct {
	UnitKind units.Kind
	TakeFrom []TransferSource
	TakeTo   TransferSink
}

func NewManyToOne(kind units.Kind, from []TransferSource, to TransferSink) (*ManyToOne, error) {
	if kind != units.KindRegion && kind != units.KindDistrict {
		return nil, faults.Shapef("many-to-one: unknown unit kind %q", kind)
	}
	if len(from) == 0 {
		return nil, faults.Shapef("many-to-one into %q: no sources", to.name())
	}
	for _, src := range from {
		if src.CurrentName == "" {
			return nil, faults.Shapef("many-to-one: empty source unit name")
		}
	}
	if err := to.validate(); err != nil {
		return nil, err
	}
	return &ManyToOne{UnitKind: kind, TakeFrom: from, TakeTo: to}, nil
}

func (m *ManyToOne) Kind() string { return "ManyToOne" }

func (m *ManyToOne) sourceNames(deleted bool) []string {
	var names []string
	for _, src := range m.TakeFrom {
		if src.DeleteUnit == deleted {
			names = append(names, src.CurrentName)
		}
	}
	return names
}

func (m *ManyToOne) Summary(date time.Time, source string) string {
	var parts []string
	if partial := m.sourceNames(false); len(partial) > 0 {
		parts = append(parts, fmt.Sprintf("parts of the districts %s", strings.Join(partial, ", ")))
	}
	if whole := m.sourceNames(true); len(whole) > 0 {
		parts = append(parts, fmt.Sprintf("the entire territory of the districts %s", strings.Join(whole, ", ")))
	}
	origin := strings.Join(parts, " and ")
	if m.TakeTo.Create {
		return fmt.Sprintf("%s: from %s the district %s was created (%s)",
			date.Format("2006-01-02"), origin, m.TakeTo.name(), source)
	}
	return fmt.Sprintf("%s: %s were merged into the district %s (%s)",
		date.Format("2006-01-02"), origin, m.TakeTo.name(), source)
}

func (m *ManyToOne) DistrictsInvolved() []string {
	var names []string
	for _, src := range m.TakeFrom {
		names = append(names, src.CurrentName)
	}
	return append(names, m.TakeTo.name())
}

func (m *ManyToOne) fillUnitsAffected(c *Change, env Env) error {
	for _, src := range m.TakeFrom {
		c.Before.Districts = append(c.Before.Districts, src.CurrentName)
		if !src.DeleteUnit {
			c.After.Districts = append(c.After.Districts, src.CurrentName)
		}
	}
	if !m.TakeTo.Create {
		c.Before.Districts = append(c.Before.Districts, m.TakeTo.CurrentName)
	}
	c.After.Districts = append(c.After.Districts, m.TakeTo.name())
	return nil
}

func (m *ManyToOne) verifyAddresses(c *Change, env Env) error {
	if m.UnitKind != units.KindDistrict {
		return faults.Invariantf("many-to-one transfer between regions is not implemented")
	}
	for _, src := range m.TakeFrom {
		if err := verifySource(env, src); err != nil {
			return err
		}
	}
	return verifySink(c, env, &m.TakeTo)
}

func (m *ManyToOne) verifyReformTargets(c *Change, env Env) error { return nil }

func (m *ManyToOne) apply(c *Change, env Env) error {
	if m.UnitKind != units.KindDistrict {
		return faults.Invariantf("many-to-one transfer between regions is not implemented")
	}
	var fresh []*units.State
	for _, src := range m.TakeFrom {
		next, err := applySource(c, env, src)
		if err != nil {
			return err
		}
		if next != nil {
			fresh = append(fresh, next)
		}
	}
	st, err := applySink(c, env, &m.TakeTo)
	if err != nil {
		return err
	}
	fresh = append(fresh, st)
	for _, st := range fresh {
		st.Territory = nil
	}
	return nil
}
