// Package admstate implements the hierarchical address map: which district
// belongs to which region and country, valid for one timespan. The hierarchy
// is stored as a flat set keyed by full address rather than as nested maps,
// so moving or removing a subtree never mutates deep into shared containers.
package admstate

import (
	"fmt"
	"sort"
	"time"

	"admhist/pkg/faults"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

type Country string

const (
	Homeland Country = "HOMELAND"
	Abroad   Country = "ABROAD"
)

func validCountry(c Country) bool { return c == Homeland || c == Abroad }

// Address identifies one position in the hierarchy: a region when District
// is empty, a district otherwise.
type Address struct {
	Country  Country
	Region   string
	District string
}

func RegionAddress(c Country, region string) Address {
	return Address{Country: c, Region: region}
}

func DistrictAddress(c Country, region, district string) Address {
	return Address{Country: c, Region: region, District: district}
}

func (a Address) IsDistrict() bool { return a.District != "" }

func (a Address) String() string {
	if a.IsDistrict() {
		return fmt.Sprintf("(%s, %s, %s)", a.Country, a.Region, a.District)
	}
	return fmt.Sprintf("(%s, %s)", a.Country, a.Region)
}

// Content is the payload carried when a subtree is popped and re-added.
// Popping a region carries its district list; popping a district carries
// nothing.
type Content struct {
	Districts []string
}

// State is the administrative hierarchy valid during one timespan. One
// instance exists per maximal interval between two address-affecting events.
type State struct {
	Span *timespan.Span

	regions   map[Country]map[string]bool
	districts map[Address]bool
}

func New(span *timespan.Span) *State {
	return &State{
		Span:      span,
		regions:   make(map[Country]map[string]bool),
		districts: make(map[Address]bool),
	}
}

// Clone returns a deep copy of the hierarchy under a new span, for opening
// the next snapshot.
func (s *State) Clone(span *timespan.Span) *State {
	c := New(span)
	for country, regs := range s.regions {
		for region := range regs {
			c.ensureRegion(country, region)
		}
	}
	for addr := range s.districts {
		c.districts[addr] = true
	}
	return c
}

func (s *State) ensureRegion(country Country, region string) {
	if s.regions[country] == nil {
		s.regions[country] = make(map[string]bool)
	}
	s.regions[country][region] = true
}

func (s *State) hasRegion(country Country, region string) bool {
	return s.regions[country][region]
}

// AddAddress inserts an entry. The parent path must already exist; there is
// no implicit creation of intermediate levels.
func (s *State) AddAddress(addr Address, content Content) error {
	if !validCountry(addr.Country) {
		return faults.Consistencyf("unknown country %q in address %s", addr.Country, addr)
	}
	if addr.Region == "" {
		return faults.Shapef("address %s has no region", addr)
	}
	if addr.IsDistrict() {
		if !s.hasRegion(addr.Country, addr.Region) {
			return faults.Consistencyf("region %q does not belong to (%s)", addr.Region, addr.Country)
		}
		s.districts[addr] = true
		return nil
	}
	s.ensureRegion(addr.Country, addr.Region)
	for _, d := range content.Districts {
		s.districts[DistrictAddress(addr.Country, addr.Region, d)] = true
	}
	return nil
}

// PopAddress removes an entry and returns what it carried. Popping a region
// also removes all its districts, which travel in the returned content.
func (s *State) PopAddress(addr Address) (Content, error) {
	if !validCountry(addr.Country) {
		return Content{}, faults.Consistencyf("unknown country %q in address %s", addr.Country, addr)
	}
	if !s.hasRegion(addr.Country, addr.Region) {
		return Content{}, faults.Consistencyf("region %q does not belong to (%s)", addr.Region, addr.Country)
	}
	if addr.IsDistrict() {
		if !s.districts[addr] {
			return Content{}, faults.Consistencyf("district %q does not belong to (%s, %s)", addr.District, addr.Country, addr.Region)
		}
		delete(s.districts, addr)
		return Content{}, nil
	}
	content := Content{Districts: s.regionDistricts(addr.Country, addr.Region)}
	for _, d := range content.Districts {
		delete(s.districts, DistrictAddress(addr.Country, addr.Region, d))
	}
	delete(s.regions[addr.Country], addr.Region)
	return content, nil
}

// GetAddress reports whether the address exists. No mutation.
func (s *State) GetAddress(addr Address) bool {
	if addr.IsDistrict() {
		return s.districts[addr]
	}
	return s.hasRegion(addr.Country, addr.Region)
}

// FindAddress reverse-looks a unit up across the whole hierarchy.
func (s *State) FindAddress(nameID string, kind units.Kind) (Address, bool) {
	if kind == units.KindDistrict {
		for _, addr := range s.sortedDistrictAddresses() {
			if addr.District == nameID {
				return addr, true
			}
		}
		return Address{}, false
	}
	for _, country := range []Country{Homeland, Abroad} {
		for region := range s.regions[country] {
			if region == nameID {
				return RegionAddress(country, region), true
			}
		}
	}
	return Address{}, false
}

// FindAndPop removes a unit found by reverse lookup and fails loudly when it
// is absent from the hierarchy.
func (s *State) FindAndPop(nameID string, kind units.Kind) (Address, Content, error) {
	addr, ok := s.FindAddress(nameID, kind)
	if !ok {
		return Address{}, Content{}, faults.Consistencyf("%s %q is not in the administrative hierarchy", kind, nameID)
	}
	content, err := s.PopAddress(addr)
	return addr, content, err
}

func (s *State) regionDistricts(country Country, region string) []string {
	var out []string
	for addr := range s.districts {
		if addr.Country == country && addr.Region == region {
			out = append(out, addr.District)
		}
	}
	sort.Strings(out)
	return out
}

func (s *State) sortedDistrictAddresses() []Address {
	out := make([]Address, 0, len(s.districts))
	for addr := range s.districts {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.District < b.District
	})
	return out
}

func (s *State) sortedRegionAddresses() []Address {
	var out []Address
	for _, country := range []Country{Homeland, Abroad} {
		regs := make([]string, 0, len(s.regions[country]))
		for region := range s.regions[country] {
			regs = append(regs, region)
		}
		sort.Strings(regs)
		for _, region := range regs {
			out = append(out, RegionAddress(country, region))
		}
	}
	return out
}

// Addresses returns every region and district address in the hierarchy,
// sorted, regions first.
func (s *State) Addresses() []Address {
	return append(s.sortedRegionAddresses(), s.sortedDistrictAddresses()...)
}

// AllRegionNames returns the identifiers of every region in the hierarchy,
// sorted.
func (s *State) AllRegionNames() []string {
	var out []string
	for _, addr := range s.sortedRegionAddresses() {
		out = append(out, addr.Region)
	}
	return out
}

// AllDistrictNames returns the identifiers of every district in the
// hierarchy, sorted.
func (s *State) AllDistrictNames() []string {
	var out []string
	for _, addr := range s.sortedDistrictAddresses() {
		out = append(out, addr.District)
	}
	return out
}

func (s *State) String() string {
	if s.Span == nil {
		return "AdministrativeState(unbounded)"
	}
	return fmt.Sprintf("AdministrativeState%s", s.Span)
}

// VerifyAndStandardizeAddress canonicalizes the region and district parts of
// an address to their registry name identifiers, verifying along the way, in
// order: the region is in the registry, the region has a state at date, the
// district (for a district address) is in the registry, the district has a
// state at date, and finally that the canonical address is present in this
// hierarchy. Each failed check raises its own consistency error.
func (s *State) VerifyAndStandardizeAddress(addr Address, regions, districts *units.Registry, date time.Time) (Address, error) {
	canonical, err := s.standardizeAgainstRegistries(addr, regions, districts, date)
	if err != nil {
		return Address{}, err
	}
	if !s.GetAddress(canonical) {
		return Address{}, faults.Consistencyf("address %s is not in the administrative hierarchy", canonical)
	}
	return canonical, nil
}

// StandardizeAddress canonicalizes an address and runs the registry checks,
// without requiring it to be present in the hierarchy. Used for destination
// addresses that are about to be created.
func (s *State) StandardizeAddress(addr Address, regions, districts *units.Registry, date time.Time) (Address, error) {
	return s.standardizeAgainstRegistries(addr, regions, districts, date)
}

func (s *State) standardizeAgainstRegistries(addr Address, regions, districts *units.Registry, date time.Time) (Address, error) {
	if !validCountry(addr.Country) {
		return Address{}, faults.Consistencyf("unknown country %q in address %s", addr.Country, addr)
	}
	region, err := regions.FindUnit(addr.Region)
	if err != nil {
		return Address{}, err
	}
	if !region.ExistsAt(date) {
		return Address{}, faults.Consistencyf("region %q has no state on %s", region.NameID, date.Format("2006-01-02"))
	}
	canonical := RegionAddress(addr.Country, region.NameID)
	if addr.IsDistrict() {
		district, err := districts.FindUnit(addr.District)
		if err != nil {
			return Address{}, err
		}
		if !district.ExistsAt(date) {
			return Address{}, faults.Consistencyf("district %q has no state on %s", district.NameID, date.Format("2006-01-02"))
		}
		canonical = DistrictAddress(addr.Country, region.NameID, district.NameID)
	}
	return canonical, nil
}

// VerifyConsistency cross-checks the hierarchy against the two registries.
// The check date, when given, must lie inside this state's own timespan;
// otherwise the state's middle point is used. The checks are: (a) every
// address in the hierarchy corresponds to a registry unit with a state
// active at the check date; (b) every registry unit active at the check
// date holds an address somewhere in the hierarchy; (c) the active state
// of every registry unit spans this whole administrative state, which
// detects temporal desynchronization between the structures. Verification
// is side-effect-free.
func (s *State) VerifyConsistency(regions, districts *units.Registry, checkDate *time.Time) error {
	date := s.Span.Middle()
	if checkDate != nil {
		if !s.Span.ContainsInstant(*checkDate) {
			return faults.Consistencyf("check date %s is outside the administrative state's timespan %s", checkDate.Format("2006-01-02"), s.Span)
		}
		date = *checkDate
	}

	for _, addr := range s.sortedRegionAddresses() {
		if err := s.verifyHierarchyUnit(regions, addr.Region, units.KindRegion, date); err != nil {
			return err
		}
	}
	for _, addr := range s.sortedDistrictAddresses() {
		if err := s.verifyHierarchyUnit(districts, addr.District, units.KindDistrict, date); err != nil {
			return err
		}
	}

	for _, reg := range []*units.Registry{regions, districts} {
		for _, ex := range reg.AllUnitStatesAt(date) {
			if _, ok := s.FindAddress(ex.Unit.NameID, reg.Kind); !ok {
				return faults.Consistencyf("%s %q exists on %s but is not in the administrative hierarchy",
					ex.Unit.Kind, ex.Unit.NameID, date.Format("2006-01-02"))
			}
			if !ex.State.Span.ContainsSpan(s.Span) {
				return faults.Consistencyf("%s %q: state %s does not span the whole administrative state %s",
					ex.Unit.Kind, ex.Unit.NameID, ex.State.Span, s.Span)
			}
		}
	}
	return nil
}

func (s *State) verifyHierarchyUnit(reg *units.Registry, nameID string, kind units.Kind, date time.Time) error {
	u := reg.ByNameID(nameID)
	if u == nil {
		return faults.Consistencyf("%s %q exists in the administrative state but not in the registry", kind, nameID)
	}
	st := u.FindStateAt(date)
	if st == nil {
		return faults.Consistencyf("%s %q exists in the administrative state %s but has no registry state on %s",
			kind, nameID, s.Span, date.Format("2006-01-02"))
	}
	return nil
}
