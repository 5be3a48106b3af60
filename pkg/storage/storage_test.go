package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"admhist/pkg/admstate"
	"admhist/pkg/changes"
	"admhist/pkg/history"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// replayedHistory builds and replays a two-change history: a seat reform in
// 1920 and a district moving regions in 1930.
func replayedHistory(t *testing.T) *history.History {
	t.Helper()
	span := timespan.MustNew(day(1900, 1, 1), day(1950, 1, 1))

	regions := units.NewRegistry(units.KindRegion)
	districts := units.NewRegistry(units.KindDistrict)
	addUnit := func(reg *units.Registry, kind units.Kind, nameID, seatName, distType string) {
		u, err := units.New(kind, nameID, []string{nameID}, []string{seatName})
		require.NoError(t, err)
		u.AddState(&units.State{Name: nameID, SeatName: seatName, DistType: distType, Span: span.Clone()})
		_, err = reg.AddUnit(u)
		require.NoError(t, err)
	}
	addUnit(regions, units.KindRegion, "posen", "Posen", "")
	addUnit(regions, units.KindRegion, "bromberg", "Bromberg", "")
	addUnit(districts, units.KindDistrict, "meseritz", "Meseritz", units.DistTypeRural)
	addUnit(districts, units.KindDistrict, "birnbaum", "Birnbaum", units.DistTypeRural)

	initial := admstate.New(span)
	require.NoError(t, initial.AddAddress(admstate.RegionAddress(admstate.Homeland, "posen"),
		admstate.Content{Districts: []string{"meseritz", "birnbaum"}}))
	require.NoError(t, initial.AddAddress(admstate.RegionAddress(admstate.Homeland, "bromberg"), admstate.Content{}))

	reformMatter, err := changes.NewUnitReform(units.KindDistrict, "meseritz",
		map[string]string{changes.AttrSeatName: "Meseritz"},
		map[string]string{changes.AttrSeatName: "Obrawalde"})
	require.NoError(t, err)
	reform, err := changes.New(day(1920, 6, 1), "Gazette 7", "seat moved", nil, reformMatter)
	require.NoError(t, err)

	moveMatter, err := changes.NewChangeAdmState(
		admstate.DistrictAddress(admstate.Homeland, "posen", "meseritz"),
		admstate.DistrictAddress(admstate.Homeland, "bromberg", "meseritz"))
	require.NoError(t, err)
	move, err := changes.New(day(1930, 1, 1), "Gazette 12", "", nil, moveMatter)
	require.NoError(t, err)

	h, err := history.New(history.Config{
		Span:         span,
		InitialState: initial,
		Regions:      regions,
		Districts:    districts,
		Changes:      []*changes.Change{move, reform},
	})
	require.NoError(t, err)
	require.NoError(t, h.Replay())
	return h
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "admhist.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := replayedHistory(t)
	db := openTestDB(t)
	require.NoError(t, db.SaveHistory(ctx, h))

	states, err := db.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 3)
	require.Equal(t, day(1900, 1, 1), states[0].ValidFrom)
	require.Equal(t, day(1920, 6, 1), states[0].ValidTo)
	require.Equal(t, day(1950, 1, 1), states[2].ValidTo)

	entries, err := db.StateEntriesAt(ctx, day(1935, 1, 1))
	require.NoError(t, err)
	// Two regions and two districts; meseritz sits under bromberg by then.
	require.Len(t, entries, 4)
	require.Contains(t, entries, EntryRow{Country: "HOMELAND", RegionID: "bromberg", DistrictID: "meseritz"})
	require.Contains(t, entries, EntryRow{Country: "HOMELAND", RegionID: "posen", DistrictID: "birnbaum"})

	none, err := db.StateEntriesAt(ctx, day(1960, 1, 1))
	require.NoError(t, err)
	require.Empty(t, none)

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Regions: 2, Districts: 2, States: 3, Changes: 2}, stats)
}

func TestSaveHistoryReplacesPreviousRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.SaveHistory(ctx, replayedHistory(t)))
	require.NoError(t, db.SaveHistory(ctx, replayedHistory(t)))

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Regions: 2, Districts: 2, States: 3, Changes: 2}, stats)
}

func TestListChangesFilters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.SaveHistory(ctx, replayedHistory(t)))

	all, err := db.ListChanges(ctx, ChangeListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "UnitReform", all[0].Kind)
	require.Equal(t, "Gazette 7", all[0].Source)
	require.Equal(t, "seat moved", all[0].Description)
	require.Nil(t, all[0].Order)
	require.Contains(t, all[0].Summary, "reformed")

	since, err := db.ListChanges(ctx, ChangeListOptions{Since: day(1925, 1, 1)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	require.Equal(t, "ChangeAdmState", since[0].Kind)

	byDistrict, err := db.ListChanges(ctx, ChangeListOptions{District: "meseritz"})
	require.NoError(t, err)
	require.Len(t, byDistrict, 2)

	limited, err := db.ListChanges(ctx, ChangeListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, day(1920, 6, 1), limited[0].Date)
}

func TestUnitTimelineAndEvents(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.SaveHistory(ctx, replayedHistory(t)))

	timeline, err := db.UnitTimeline(ctx, "district", "meseritz")
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	require.Equal(t, "Meseritz", timeline[0].SeatName)
	require.Equal(t, "Obrawalde", timeline[1].SeatName)
	require.Equal(t, day(1920, 6, 1), timeline[0].ValidTo)
	require.Equal(t, day(1920, 6, 1), timeline[1].ValidFrom)
	require.Equal(t, units.DistTypeRural, timeline[0].DistType)

	events, err := db.UnitEvents(ctx, "district", "meseritz")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "reform", events[0].Event)
	require.Equal(t, "adm_affiliation", events[1].Event)
	require.Contains(t, events[1].Summary, "belonged to")

	empty, err := db.UnitTimeline(ctx, "district", "atlantis")
	require.NoError(t, err)
	require.Empty(t, empty)
}
