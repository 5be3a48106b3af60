package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"admhist/pkg/admstate"
	"admhist/pkg/changes"
	"admhist/pkg/faults"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	histStart = day(1900, 1, 1)
	histEnd   = day(1950, 1, 1)
)

func fixtureConfig(t *testing.T, changeList ...*changes.Change) Config {
	t.Helper()
	span := timespan.MustNew(histStart, histEnd)

	regions := units.NewRegistry(units.KindRegion)
	districts := units.NewRegistry(units.KindDistrict)
	addUnit := func(reg *units.Registry, kind units.Kind, nameID, seatName string) {
		u, err := units.New(kind, nameID, []string{nameID}, []string{seatName})
		require.NoError(t, err)
		distType := ""
		if kind == units.KindDistrict {
			distType = units.DistTypeRural
		}
		u.AddState(&units.State{Name: nameID, SeatName: seatName, DistType: distType, Span: span.Clone()})
		_, err = reg.AddUnit(u)
		require.NoError(t, err)
	}
	addUnit(regions, units.KindRegion, "posen", "Posen")
	addUnit(regions, units.KindRegion, "bromberg", "Bromberg")
	addUnit(districts, units.KindDistrict, "meseritz", "Meseritz")
	addUnit(districts, units.KindDistrict, "birnbaum", "Birnbaum")

	initial := admstate.New(span)
	require.NoError(t, initial.AddAddress(admstate.RegionAddress(admstate.Homeland, "posen"),
		admstate.Content{Districts: []string{"meseritz", "birnbaum"}}))
	require.NoError(t, initial.AddAddress(admstate.RegionAddress(admstate.Homeland, "bromberg"), admstate.Content{}))

	return Config{
		Span:         span,
		InitialState: initial,
		Regions:      regions,
		Districts:    districts,
		Changes:      changeList,
	}
}

func seatReform(t *testing.T, date time.Time, name, from, to string, order *int) *changes.Change {
	t.Helper()
	matter, err := changes.NewUnitReform(units.KindDistrict, name,
		map[string]string{changes.AttrSeatName: from},
		map[string]string{changes.AttrSeatName: to})
	require.NoError(t, err)
	c, err := changes.New(date, "test gazette", "", order, matter)
	require.NoError(t, err)
	return c
}

func intp(v int) *int { return &v }

func TestNewRejectsChangesOutsideTheSpan(t *testing.T) {
	_, err := New(fixtureConfig(t, seatReform(t, day(1960, 1, 1), "meseritz", "Meseritz", "Obrawalde", nil)))
	var shape *faults.ShapeError
	require.ErrorAs(t, err, &shape)

	// A change dated exactly at the global start would have nothing to split.
	_, err = New(fixtureConfig(t, seatReform(t, histStart, "meseritz", "Meseritz", "Obrawalde", nil)))
	require.ErrorAs(t, err, &shape)
}

func TestNewRejectsMismatchedInitialSpan(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.InitialState = admstate.New(timespan.MustNew(histStart, day(1940, 1, 1)))
	var shape *faults.ShapeError
	_, err := New(cfg)
	require.ErrorAs(t, err, &shape)
}

func TestNewOrdersChanges(t *testing.T) {
	// Same date: explicit orders ascending first, then order-less changes in
	// input order.
	late := seatReform(t, day(1920, 1, 1), "meseritz", "Meseritz", "A", intp(2))
	early := seatReform(t, day(1920, 1, 1), "meseritz", "A", "B", intp(1))
	tailOne := seatReform(t, day(1920, 1, 1), "meseritz", "B", "C", nil)
	tailTwo := seatReform(t, day(1920, 1, 1), "meseritz", "C", "D", nil)
	previous := seatReform(t, day(1910, 1, 1), "birnbaum", "Birnbaum", "X", nil)

	h, err := New(fixtureConfig(t, late, tailOne, early, tailTwo, previous))
	require.NoError(t, err)
	require.Equal(t, []*changes.Change{previous, early, late, tailOne, tailTwo}, h.ChangesList)
	require.Equal(t, []time.Time{day(1910, 1, 1), day(1920, 1, 1)}, h.ChangeDates())
}

func TestReplayProducesOneSnapshotPerDate(t *testing.T) {
	h, err := New(fixtureConfig(t,
		seatReform(t, day(1910, 1, 1), "meseritz", "Meseritz", "Obrawalde", nil),
		seatReform(t, day(1930, 1, 1), "meseritz", "Obrawalde", "Betsche", nil),
	))
	require.NoError(t, err)
	require.NoError(t, h.Replay())

	require.Len(t, h.StatesList, 3)
	spans := []string{"[1900-01-01, 1910-01-01)", "[1910-01-01, 1930-01-01)", "[1930-01-01, 1950-01-01)"}
	for i, st := range h.StatesList {
		require.Equal(t, spans[i], st.Span.String())
	}

	// The watersheds line up with the unit's state sequence.
	u := h.Districts.ByNameID("meseritz")
	require.Len(t, u.States, 3)
	require.Equal(t, "Meseritz", u.States[0].SeatName)
	require.Equal(t, "Obrawalde", u.States[1].SeatName)
	require.Equal(t, "Betsche", u.States[2].SeatName)

	// Every snapshot verifies against the final registries.
	for _, st := range h.StatesList {
		require.NoError(t, st.VerifyConsistency(h.Regions, h.Districts, nil))
	}

	require.Same(t, h.StatesList[1], h.StateAt(day(1920, 6, 1)))
	require.Nil(t, h.StateAt(day(1960, 1, 1)))
}

// Two changes on the same date run sequentially: the second observes the
// effect of the first, and only one snapshot comes out of the date.
func TestReplaySameDateChangesSeeEachOther(t *testing.T) {
	date := day(1920, 1, 10)

	// Order 1 creates a district; order 2 moves it to another region. The
	// move can only succeed if it sees the creation.
	neustadt, err := units.New(units.KindDistrict, "neustadt", []string{"neustadt"}, []string{"Neustadt"})
	require.NoError(t, err)
	neustadt.AddState(&units.State{Name: "neustadt", SeatName: "Neustadt", DistType: units.DistTypeMunicipal})
	split, err := changes.NewOneToMany(units.KindDistrict,
		changes.TransferSource{CurrentName: "meseritz"},
		[]changes.TransferSink{{
			Create:     true,
			NewUnit:    neustadt,
			NewAddress: admstate.DistrictAddress(admstate.Homeland, "posen", "neustadt"),
		}})
	require.NoError(t, err)
	create, err := changes.New(date, "test gazette", "", intp(1), split)
	require.NoError(t, err)

	moveMatter, err := changes.NewChangeAdmState(
		admstate.DistrictAddress(admstate.Homeland, "posen", "neustadt"),
		admstate.DistrictAddress(admstate.Homeland, "bromberg", "neustadt"))
	require.NoError(t, err)
	move, err := changes.New(date, "test gazette", "", intp(2), moveMatter)
	require.NoError(t, err)

	h, err := New(fixtureConfig(t, move, create))
	require.NoError(t, err)
	require.NoError(t, h.Replay())

	require.Len(t, h.StatesList, 2)
	final := h.StatesList[1]
	require.True(t, final.GetAddress(admstate.DistrictAddress(admstate.Homeland, "bromberg", "neustadt")))
	require.False(t, final.GetAddress(admstate.DistrictAddress(admstate.Homeland, "posen", "neustadt")))

	// The snapshot before the date knows nothing about the district.
	require.False(t, h.StatesList[0].GetAddress(admstate.DistrictAddress(admstate.Homeland, "posen", "neustadt")))
}

func TestReplayAbortsOnFirstFailure(t *testing.T) {
	h, err := New(fixtureConfig(t,
		seatReform(t, day(1910, 1, 1), "meseritz", "Meseritz", "Obrawalde", nil),
		seatReform(t, day(1930, 1, 1), "meseritz", "WRONG", "Betsche", nil),
	))
	require.NoError(t, err)

	err = h.Replay()
	require.Error(t, err)
	require.Contains(t, err.Error(), "replay aborted at 1930-01-01")
	var cons *faults.ConsistencyError
	require.ErrorAs(t, err, &cons)

	// The first date's work survives; there is no rollback.
	require.Len(t, h.StatesList, 2)
}

func TestReplayRunsOnlyOnce(t *testing.T) {
	h, err := New(fixtureConfig(t))
	require.NoError(t, err)
	require.NoError(t, h.Replay())
	err = h.Replay()
	var inv *faults.InvariantError
	require.ErrorAs(t, err, &inv)
}

func TestSummarizeRendersReplayOrder(t *testing.T) {
	h, err := New(fixtureConfig(t,
		seatReform(t, day(1930, 1, 1), "meseritz", "Obrawalde", "Betsche", nil),
		seatReform(t, day(1910, 1, 1), "meseritz", "Meseritz", "Obrawalde", nil),
	))
	require.NoError(t, err)
	lines := h.Summarize()
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "1910-01-01")
	require.Contains(t, lines[1], "1930-01-01")
}
