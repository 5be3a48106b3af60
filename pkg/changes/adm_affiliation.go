package changes

import (
	"fmt"
	"time"

	"admhist/pkg/admstate"
	"admhist/pkg/faults"
)

// ChangeAdmState re-parents a subtree of the hierarchy: a region moves
// between countries, or a district moves between regions. Both addresses
// must have the same arity. No unit state in the registries is touched;
// only the address map changes.
type ChangeAdmState struct {
	TakeFrom admstate.Address
	TakeTo   admstate.Address
}

func NewChangeAdmState(from, to admstate.Address) (*ChangeAdmState, error) {
	if from.Region == "" || to.Region == "" {
		return nil, faults.Shapef("affiliation change: address without a region (%s -> %s)", from, to)
	}
	if from.IsDistrict() != to.IsDistrict() {
		return nil, faults.Shapef("affiliation change: addresses %s and %s differ in arity", from, to)
	}
	return &ChangeAdmState{TakeFrom: from, TakeTo: to}, nil
}

func (m *ChangeAdmState) Kind() string { return "ChangeAdmState" }

func (m *ChangeAdmState) Summary(date time.Time, source string) string {
	if m.TakeFrom.IsDistrict() {
		return fmt.Sprintf("%s: from this date on, the district %s belonged to (%s, %s) (%s)",
			date.Format("2006-01-02"), m.TakeFrom.District, m.TakeTo.Country, m.TakeTo.Region, source)
	}
	return fmt.Sprintf("%s: from this date on, the region %s belonged to %s (%s)",
		date.Format("2006-01-02"), m.TakeFrom.Region, m.TakeTo.Country, source)
}

func (m *ChangeAdmState) DistrictsInvolved() []string {
	if m.TakeFrom.IsDistrict() {
		return []string{m.TakeFrom.District}
	}
	return nil
}

func (m *ChangeAdmState) fillUnitsAffected(c *Change, env Env) error {
	c.Before.Regions = append(c.Before.Regions, m.TakeFrom.Region)
	if m.TakeTo.Region != m.TakeFrom.Region {
		c.Before.Regions = append(c.Before.Regions, m.TakeTo.Region)
	}
	c.After.Regions = c.Before.Regions
	if m.TakeFrom.IsDistrict() {
		c.Before.Districts = []string{m.TakeFrom.District}
		c.After.Districts = []string{m.TakeFrom.District}
	}
	return nil
}

func (m *ChangeAdmState) verifyAddresses(c *Change, env Env) error {
	from, err := env.State.VerifyAndStandardizeAddress(m.TakeFrom, env.Regions, env.Districts, c.Date)
	if err != nil {
		return err
	}
	to, err := env.State.StandardizeAddress(m.TakeTo, env.Regions, env.Districts, c.Date)
	if err != nil {
		return err
	}
	if to.IsDistrict() {
		parent := admstate.RegionAddress(to.Country, to.Region)
		if !env.State.GetAddress(parent) {
			return faults.Consistencyf("address %s is not in the administrative hierarchy", parent)
		}
	}
	if env.State.GetAddress(to) {
		return faults.Consistencyf("address %s is already in the administrative hierarchy", to)
	}
	m.TakeFrom = from
	m.TakeTo = to
	return nil
}

func (m *ChangeAdmState) verifyReformTargets(c *Change, env Env) error { return nil }

func (m *ChangeAdmState) apply(c *Change, env Env) error {
	content, err := env.State.PopAddress(m.TakeFrom)
	if err != nil {
		return err
	}
	if err := env.State.AddAddress(m.TakeTo, content); err != nil {
		return err
	}
	tagged := map[string]bool{}
	for _, regionID := range []string{m.TakeFrom.Region, m.TakeTo.Region} {
		if tagged[regionID] {
			continue
		}
		tagged[regionID] = true
		region := env.Regions.ByNameID(regionID)
		if region == nil {
			return faults.Consistencyf("region %q is not in the registry", regionID)
		}
		c.tag(region, "adm_affiliation")
	}
	if m.TakeFrom.IsDistrict() {
		district := env.Districts.ByNameID(m.TakeFrom.District)
		if district == nil {
			return faults.Consistencyf("district %q is not in the registry", m.TakeFrom.District)
		}
		c.tag(district, "adm_affiliation")
	}
	return nil
}
