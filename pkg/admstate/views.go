package admstate

import (
	"sort"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// ListOptions controls the derived address-list views. Variant expansion and
// current-name substitution need the registries to resolve names and imply a
// consistency check first; the views themselves carry no invariants.
type ListOptions struct {
	OnlyHomeland bool
	WithVariants bool
	CurrentNames bool

	Regions   *units.Registry
	Districts *units.Registry
}

// ToAddressList flattens the hierarchy into sorted rows. A row is
// (country, region, district), or (region, district) when restricted to the
// homeland. With WithVariants every known name variant is expanded; with
// CurrentNames the display names active at the state's middle point replace
// the canonical identifiers.
func (s *State) ToAddressList(opts ListOptions) ([][]string, error) {
	if opts.WithVariants || opts.CurrentNames {
		if opts.Regions == nil || opts.Districts == nil {
			return nil, faults.Shapef("address list with variants or current names requires both registries")
		}
		if err := s.VerifyConsistency(opts.Regions, opts.Districts, nil); err != nil {
			return nil, err
		}
	}

	date := s.Span.Middle()
	var rows [][]string
	for _, regionAddr := range s.sortedRegionAddresses() {
		if opts.OnlyHomeland && regionAddr.Country != Homeland {
			continue
		}
		regionNames := []string{regionAddr.Region}
		if opts.WithVariants || opts.CurrentNames {
			region, state, err := opts.Regions.FindUnitStateAt(regionAddr.Region, date)
			if err != nil {
				return nil, err
			}
			if opts.WithVariants {
				regionNames = region.NameVariants
			} else {
				regionNames = []string{state.Name}
			}
		}
		var districtNames []string
		for _, d := range s.regionDistricts(regionAddr.Country, regionAddr.Region) {
			if opts.WithVariants || opts.CurrentNames {
				district, state, err := opts.Districts.FindUnitStateAt(d, date)
				if err != nil {
					return nil, err
				}
				if opts.WithVariants {
					districtNames = append(districtNames, district.NameVariants...)
				} else {
					districtNames = append(districtNames, state.Name)
				}
			} else {
				districtNames = append(districtNames, d)
			}
		}
		for _, rn := range regionNames {
			for _, dn := range districtNames {
				if opts.OnlyHomeland {
					rows = append(rows, []string{rn, dn})
				} else {
					rows = append(rows, []string{string(regionAddr.Country), rn, dn})
				}
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return rows, nil
}
