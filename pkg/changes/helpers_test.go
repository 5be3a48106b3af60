package changes

import (
	"testing"
	"time"

	"admhist/pkg/admstate"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	histStart = day(1900, 1, 1)
	horizon   = day(1950, 1, 1)
)

// newEnv builds the same shape of environment a replay would hand to a change
// dated at the given date: registries covering the full history, the running
// snapshot opened at the date.
func newEnv(t *testing.T, date time.Time) Env {
	t.Helper()
	full := timespan.MustNew(histStart, horizon)

	regions := units.NewRegistry(units.KindRegion)
	districts := units.NewRegistry(units.KindDistrict)

	addUnit := func(reg *units.Registry, kind units.Kind, nameID, seatName, distType string, variants ...string) {
		u, err := units.New(kind, nameID, append([]string{nameID}, variants...), []string{seatName})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		u.AddState(&units.State{
			Name:     nameID,
			SeatName: seatName,
			DistType: distType,
			Span:     full.Clone(),
		})
		if _, err := reg.AddUnit(u); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	addUnit(regions, units.KindRegion, "posen", "Posen", "", "Posen")
	addUnit(regions, units.KindRegion, "bromberg", "Bromberg", "")
	addUnit(regions, units.KindRegion, "brandenburg", "Potsdam", "")
	addUnit(districts, units.KindDistrict, "meseritz", "Meseritz", units.DistTypeRural, "Meseritz")
	addUnit(districts, units.KindDistrict, "birnbaum", "Birnbaum", units.DistTypeRural, "Birnbaum")
	addUnit(districts, units.KindDistrict, "schwerin", "Schwerin (Warthe)", units.DistTypeRural)
	addUnit(districts, units.KindDistrict, "zuellichau", "Zuellichau", units.DistTypeRural)

	initial := admstate.New(full)
	must := func(err error) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	must(initial.AddAddress(admstate.RegionAddress(admstate.Homeland, "posen"),
		admstate.Content{Districts: []string{"meseritz", "birnbaum"}}))
	must(initial.AddAddress(admstate.RegionAddress(admstate.Homeland, "bromberg"),
		admstate.Content{Districts: []string{"schwerin"}}))
	must(initial.AddAddress(admstate.RegionAddress(admstate.Abroad, "brandenburg"),
		admstate.Content{Districts: []string{"zuellichau"}}))

	running := initial.Clone(timespan.MustNew(date, horizon))
	return Env{State: running, Regions: regions, Districts: districts, Horizon: horizon}
}

func mustChange(t *testing.T, date time.Time, matter Matter) *Change {
	t.Helper()
	c, err := New(date, "test gazette", "", nil, matter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

// newDistrictPayload builds the unit payload a creating transfer sink
// carries; its single state is unbounded until apply time.
func newDistrictPayload(t *testing.T, nameID, seatName, distType string) *units.Unit {
	t.Helper()
	u, err := units.New(units.KindDistrict, nameID, []string{nameID}, []string{seatName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u.AddState(&units.State{Name: nameID, SeatName: seatName, DistType: distType})
	return u
}

func affectedEvents(c *Change) []string {
	var out []string
	for _, a := range c.UnitsAffected {
		out = append(out, a.Event+":"+a.NameID)
	}
	return out
}
