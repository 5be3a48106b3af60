package changes

import (
	"fmt"
	"strings"
	"time"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// OneToMany distributes one source unit over several destinations: the
// source is abolished or re-stated, every destination is created or
// re-stated, and all freshly opened states have their territory nulled
// until external overlay tooling recomputes it.
type OneToMany struct {
	UnitKind units.Kind
	TakeFrom TransferSource
	TakeTo   []TransferSink
}

func NewOneToMany(kind units.Kind, from TransferSource, to []TransferSink) (*OneToMany, error) {
	if kind != units.KindRegion && kind != units.KindDistrict {
		return nil, faults.Shapef("one-to-many: unknown unit kind %q", kind)
	}
	if from.CurrentName == "" {
		return nil, faults.Shapef("one-to-many: empty source unit name")
	}
	if len(to) == 0 {
		return nil, faults.Shapef("one-to-many from %q: no destinations", from.CurrentName)
	}
	for i := range to {
		if err := to[i].validate(); err != nil {
			return nil, err
		}
	}
	return &OneToMany{UnitKind: kind, TakeFrom: from, TakeTo: to}, nil
}

func (m *OneToMany) Kind() string { return "OneToMany" }

func (m *OneToMany) sinkNames() []string {
	names := make([]string, 0, len(m.TakeTo))
	for i := range m.TakeTo {
		names = append(names, m.TakeTo[i].name())
	}
	return names
}

func (m *OneToMany) Summary(date time.Time, source string) string {
	destinations := strings.Join(m.sinkNames(), ", ")
	plural := ""
	if len(m.TakeTo) > 1 {
		plural = "s"
	}
	if m.TakeFrom.DeleteUnit {
		return fmt.Sprintf("%s: the district %s was abolished and its territory was integrated into the district%s %s (%s)",
			date.Format("2006-01-02"), m.TakeFrom.CurrentName, plural, destinations, source)
	}
	return fmt.Sprintf("%s: part of the territory of the district %s was integrated into the district%s %s (%s)",
		date.Format("2006-01-02"), m.TakeFrom.CurrentName, plural, destinations, source)
}

func (m *OneToMany) DistrictsInvolved() []string {
	return append([]string{m.TakeFrom.CurrentName}, m.sinkNames()...)
}

func (m *OneToMany) fillUnitsAffected(c *Change, env Env) error {
	c.Before.Districts = []string{m.TakeFrom.CurrentName}
	if !m.TakeFrom.DeleteUnit {
		c.After.Districts = append(c.After.Districts, m.TakeFrom.CurrentName)
	}
	for i := range m.TakeTo {
		sink := &m.TakeTo[i]
		if !sink.Create {
			c.Before.Districts = append(c.Before.Districts, sink.CurrentName)
		}
		c.After.Districts = append(c.After.Districts, sink.name())
	}
	return nil
}

func (m *OneToMany) verifyAddresses(c *Change, env Env) error {
	if m.UnitKind != units.KindDistrict {
		return faults.Invariantf("one-to-many transfer between regions is not implemented")
	}
	if err := verifySource(env, m.TakeFrom); err != nil {
		return err
	}
	for i := range m.TakeTo {
		if err := verifySink(c, env, &m.TakeTo[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *OneToMany) verifyReformTargets(c *Change, env Env) error { return nil }

func (m *OneToMany) apply(c *Change, env Env) error {
	if m.UnitKind != units.KindDistrict {
		return faults.Invariantf("one-to-many transfer between regions is not implemented")
	}
	var fresh []*units.State
	next, err := applySource(c, env, m.TakeFrom)
	if err != nil {
		return err
	}
	if next != nil {
		fresh = append(fresh, next)
	}
	for i := range m.TakeTo {
		st, err := applySink(c, env, &m.TakeTo[i])
		if err != nil {
			return err
		}
		fresh = append(fresh, st)
	}
	for _, st := range fresh {
		st.Territory = nil
	}
	return nil
}
