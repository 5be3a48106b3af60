// Package loader reads the input JSON documents (initial hierarchy, unit
// catalogs, dated change records) into typed objects. It is a thin boundary:
// every invariant is re-validated by the core constructors regardless of the
// shape checks done here.
package loader

import (
	"os"
	"time"

	"github.com/tidwall/gjson"

	"admhist/pkg/admstate"
	"admhist/pkg/faults"
	"admhist/pkg/history"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

// Inputs names the four input documents plus the global timespan the
// reconstruction covers.
type Inputs struct {
	RegionsPath      string
	DistrictsPath    string
	InitialStatePath string
	ChangesPath      string
	Span             *timespan.Span
}

// Load builds an un-replayed history from the input documents.
func Load(in Inputs) (*history.History, error) {
	regions, err := LoadRegions(in.RegionsPath, in.Span)
	if err != nil {
		return nil, err
	}
	districts, err := LoadDistricts(in.DistrictsPath, in.Span)
	if err != nil {
		return nil, err
	}
	initial, err := LoadInitialState(in.InitialStatePath, in.Span)
	if err != nil {
		return nil, err
	}
	changeList, err := LoadChanges(in.ChangesPath)
	if err != nil {
		return nil, err
	}
	return history.New(history.Config{
		Span:         in.Span,
		InitialState: initial,
		Regions:      regions,
		Districts:    districts,
		Changes:      changeList,
	})
}

func readJSON(path string) (gjson.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, faults.Shapef("%s: not valid JSON", path)
	}
	return gjson.ParseBytes(raw), nil
}

// ParseDate accepts plain dates and RFC3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, faults.Shapef("cannot parse date %q", s)
}

func stringList(res gjson.Result) []string {
	var out []string
	for _, v := range res.Array() {
		out = append(out, v.String())
	}
	return out
}

// LoadRegions reads the region catalog. Every region's single initial state
// receives its own copy of the global timespan.
func LoadRegions(path string, span *timespan.Span) (*units.Registry, error) {
	return loadUnits(path, span, units.KindRegion)
}

// LoadDistricts reads the district catalog.
func LoadDistricts(path string, span *timespan.Span) (*units.Registry, error) {
	return loadUnits(path, span, units.KindDistrict)
}

func loadUnits(path string, span *timespan.Span, kind units.Kind) (*units.Registry, error) {
	doc, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, faults.Shapef("%s: expected a JSON array of %ss", path, kind)
	}
	registry := units.NewRegistry(kind)
	for _, entry := range doc.Array() {
		u, err := parseUnit(entry, kind)
		if err != nil {
			return nil, err
		}
		u.States[0].Span = span.Clone()
		if _, err := registry.AddUnit(u); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// parseUnit builds a unit with one initial state. The state's span is left
// nil; catalogs bind it to the global timespan, change payloads bind it at
// apply time.
func parseUnit(entry gjson.Result, kind units.Kind) (*units.Unit, error) {
	u, err := units.New(kind,
		entry.Get("name_id").String(),
		stringList(entry.Get("name_variants")),
		stringList(entry.Get("seat_name_variants")))
	if err != nil {
		return nil, err
	}
	if kind == units.KindRegion {
		u.IsHomeland = entry.Get("is_homeland").Bool()
	}
	state := entry.Get("state")
	if !state.Exists() {
		return nil, faults.Shapef("%s %q has no initial state", kind, u.NameID)
	}
	st := &units.State{
		Name:     state.Get("current_name").String(),
		SeatName: state.Get("current_seat_name").String(),
	}
	if st.Name == "" {
		st.Name = u.NameID
	}
	if kind == units.KindDistrict {
		st.DistType = state.Get("current_dist_type").String()
		if st.DistType != units.DistTypeRural && st.DistType != units.DistTypeMunicipal {
			return nil, faults.Shapef("district %q has invalid dist type %q", u.NameID, st.DistType)
		}
	}
	u.AddState(st)
	return u, nil
}

// LoadInitialState reads the nested country -> region -> district document
// into the flat hierarchy, valid for the whole global timespan.
func LoadInitialState(path string, span *timespan.Span) (*admstate.State, error) {
	doc, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	state := admstate.New(span.Clone())
	var loadErr error
	doc.ForEach(func(country, regionsDoc gjson.Result) bool {
		c := admstate.Country(country.String())
		regionsDoc.ForEach(func(region, districtsDoc gjson.Result) bool {
			if err := state.AddAddress(admstate.RegionAddress(c, region.String()), admstate.Content{}); err != nil {
				loadErr = err
				return false
			}
			districtsDoc.ForEach(func(district, _ gjson.Result) bool {
				if err := state.AddAddress(admstate.DistrictAddress(c, region.String(), district.String()), admstate.Content{}); err != nil {
					loadErr = err
					return false
				}
				return true
			})
			return loadErr == nil
		})
		return loadErr == nil
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return state, nil
}
