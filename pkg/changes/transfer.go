package changes

import (
	"admhist/pkg/admstate"
	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// TransferSource is one side a territory transfer takes from: either the
// whole unit (DeleteUnit, the unit is abolished and leaves the hierarchy) or
// a part of it (the unit is re-stated at the change date; the attribute
// delta is deliberately not modeled, territory stays a placeholder).
type TransferSource struct {
	CurrentName string
	DeleteUnit  bool
}

// TransferSink is one side a transfer gives to: either an existing unit
// (re-stated at the change date) or a newly created one. A created sink
// carries the full unit payload with its single initial state (the span is
// opened at apply time) and the hierarchy address to register it under.
type TransferSink struct {
	Create      bool
	CurrentName string
	NewUnit     *units.Unit
	NewAddress  admstate.Address
}

func (s *TransferSink) validate() error {
	if s.Create {
		if s.NewUnit == nil {
			return faults.Shapef("transfer sink with create=true carries no unit payload")
		}
		if s.NewUnit.Kind != units.KindDistrict {
			return faults.Shapef("transfer sink %q: only districts can be created by a transfer", s.NewUnit.NameID)
		}
		if len(s.NewUnit.States) != 1 {
			return faults.Shapef("transfer sink %q: a created unit must carry exactly one initial state", s.NewUnit.NameID)
		}
		if !s.NewAddress.IsDistrict() {
			return faults.Shapef("transfer sink %q: new address %s is not a district address", s.NewUnit.NameID, s.NewAddress)
		}
		return nil
	}
	if s.CurrentName == "" {
		return faults.Shapef("transfer sink with create=false carries no unit name")
	}
	return nil
}

func (s *TransferSink) name() string {
	if s.Create {
		return s.NewUnit.NameID
	}
	return s.CurrentName
}

// applySource abolishes or re-states one source unit and links the audit
// trail. Returns the freshly opened state, nil for an abolished source.
func applySource(c *Change, env Env, src TransferSource) (*units.State, error) {
	from, err := env.Districts.FindUnit(src.CurrentName)
	if err != nil {
		return nil, err
	}
	if src.DeleteUnit {
		ended, err := from.Abolish(c.Date)
		if err != nil {
			return nil, err
		}
		if _, _, err := env.State.FindAndPop(from.NameID, units.KindDistrict); err != nil {
			return nil, err
		}
		c.tag(from, "abolished")
		c.endState(ended)
		return nil, nil
	}
	ended, next, err := from.CreateNextState(c.Date)
	if err != nil {
		return nil, err
	}
	c.tag(from, "territory")
	c.endState(ended)
	c.openState(next)
	return next, nil
}

// applySink creates or re-states one sink unit. A created district that was
// abolished earlier under the same identifier re-enters by receiving a new
// state rather than a duplicate catalog entry.
func applySink(c *Change, env Env, sink *TransferSink) (*units.State, error) {
	if sink.Create {
		span, err := env.horizonSpan(c.Date)
		if err != nil {
			return nil, err
		}
		st := sink.NewUnit.States[0]
		st.Span = span
		u, err := env.Districts.AddUnit(sink.NewUnit)
		if err != nil {
			return nil, err
		}
		if err := env.State.AddAddress(sink.NewAddress, admstate.Content{}); err != nil {
			return nil, err
		}
		// A created unit is always a territory recipient: districts come
		// into existence only by being given territory.
		c.tag(u, "created")
		c.openState(st)
		return st, nil
	}
	u, err := env.Districts.FindUnit(sink.CurrentName)
	if err != nil {
		return nil, err
	}
	ended, next, err := u.CreateNextState(c.Date)
	if err != nil {
		return nil, err
	}
	c.tag(u, "territory")
	c.endState(ended)
	c.openState(next)
	return next, nil
}

// verifySink checks one sink without mutating the triple and canonicalizes
// its address fields.
func verifySink(c *Change, env Env, sink *TransferSink) error {
	if !sink.Create {
		u, err := env.Districts.FindUnit(sink.CurrentName)
		if err != nil {
			return err
		}
		if _, ok := env.State.FindAddress(u.NameID, units.KindDistrict); !ok {
			return faults.Consistencyf("district %q is not in the administrative hierarchy", u.NameID)
		}
		return nil
	}
	region, err := env.Regions.FindUnit(sink.NewAddress.Region)
	if err != nil {
		return err
	}
	if !region.ExistsAt(c.Date) {
		return faults.Consistencyf("region %q has no state on %s", region.NameID, c.Date.Format("2006-01-02"))
	}
	regionAddr := admstate.RegionAddress(sink.NewAddress.Country, region.NameID)
	if !env.State.GetAddress(regionAddr) {
		return faults.Consistencyf("address %s is not in the administrative hierarchy", regionAddr)
	}
	canonical := admstate.DistrictAddress(sink.NewAddress.Country, region.NameID, sink.NewUnit.NameID)
	if env.State.GetAddress(canonical) {
		return faults.Consistencyf("address %s is already in the administrative hierarchy", canonical)
	}
	sink.NewAddress = canonical
	return nil
}

// verifySource checks that one source unit sits in the hierarchy.
func verifySource(env Env, src TransferSource) error {
	u, err := env.Districts.FindUnit(src.CurrentName)
	if err != nil {
		return err
	}
	if _, ok := env.State.FindAddress(u.NameID, units.KindDistrict); !ok {
		return faults.Consistencyf("district %q is not in the administrative hierarchy", u.NameID)
	}
	return nil
}
