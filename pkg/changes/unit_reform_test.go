package changes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

func TestNewUnitReformValidation(t *testing.T) {
	_, err := NewUnitReform(units.KindDistrict, "meseritz", nil, nil)
	require.Error(t, err, "empty reform must be rejected")

	_, err = NewUnitReform(units.KindDistrict, "meseritz",
		map[string]string{AttrName: "a"},
		map[string]string{AttrSeatName: "b"})
	require.Error(t, err, "key sets must match")

	_, err = NewUnitReform(units.KindRegion, "posen",
		map[string]string{AttrDistType: units.DistTypeRural},
		map[string]string{AttrDistType: units.DistTypeMunicipal})
	require.Error(t, err, "dist_type is a district attribute")
	var shape *faults.ShapeError
	require.ErrorAs(t, err, &shape)

	_, err = NewUnitReform(units.KindDistrict, "meseritz",
		map[string]string{"population": "1"},
		map[string]string{"population": "2"})
	require.Error(t, err, "unknown attributes must be rejected")
}

func TestUnitReformSplitsStateAndSetsAttributes(t *testing.T) {
	date := day(1920, 6, 1)
	env := newEnv(t, date)
	matter, err := NewUnitReform(units.KindDistrict, "Meseritz",
		map[string]string{AttrSeatName: "Meseritz"},
		map[string]string{AttrSeatName: "Obrawalde"})
	require.NoError(t, err)
	c := mustChange(t, date, matter)

	require.NoError(t, c.Apply(env))

	u := env.Districts.ByNameID("meseritz")
	require.Len(t, u.States, 2)
	old, next := u.States[0], u.States[1]
	require.Equal(t, date, old.Span.End)
	require.Equal(t, "Meseritz", old.SeatName, "the closed state keeps the old value")
	require.Equal(t, date, next.Span.Start)
	require.Equal(t, horizon, next.Span.End)
	require.Equal(t, "Obrawalde", next.SeatName)
	require.Equal(t, "meseritz", next.Name, "untouched attributes carry over")

	// Audit trail: envelope and unit agree on what happened.
	require.Equal(t, []string{"reform:meseritz"}, affectedEvents(c))
	require.Equal(t, []string{old.ID}, c.EndedStateIDs)
	require.Equal(t, []string{next.ID}, c.NewStateIDs)
	require.Equal(t, c.ID, old.NextChangeID)
	require.Equal(t, c.ID, next.PrevChangeID)
	require.Equal(t, []units.ChangeRef{{Event: "reform", ChangeID: c.ID}}, u.Changes)
}

func TestUnitReformStalePreconditionBlocksApplication(t *testing.T) {
	date := day(1920, 6, 1)
	env := newEnv(t, date)
	matter, err := NewUnitReform(units.KindDistrict, "meseritz",
		map[string]string{AttrSeatName: "Betsche"}, // not the current seat
		map[string]string{AttrSeatName: "Obrawalde"})
	require.NoError(t, err)
	c := mustChange(t, date, matter)

	err = c.Apply(env)
	var cons *faults.ConsistencyError
	require.ErrorAs(t, err, &cons)
	require.Contains(t, err.Error(), "Betsche")

	// Verification precedes mutation: the unit is untouched.
	u := env.Districts.ByNameID("meseritz")
	require.Len(t, u.States, 1)
	require.Equal(t, horizon, u.States[0].Span.End)
	require.Empty(t, u.Changes)
}

func TestUnitReformRequiresHierarchyMembership(t *testing.T) {
	date := day(1920, 6, 1)
	env := newEnv(t, date)
	_, _, err := env.State.FindAndPop("meseritz", units.KindDistrict)
	require.NoError(t, err)

	matter, err := NewUnitReform(units.KindDistrict, "meseritz",
		map[string]string{AttrSeatName: "Meseritz"},
		map[string]string{AttrSeatName: "Obrawalde"})
	require.NoError(t, err)
	c := mustChange(t, date, matter)

	err = c.Apply(env)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not in the administrative hierarchy")
}

func TestUnitReformRegionRename(t *testing.T) {
	date := day(1919, 8, 1)
	env := newEnv(t, date)
	matter, err := NewUnitReform(units.KindRegion, "Posen",
		map[string]string{AttrName: "posen"},
		map[string]string{AttrName: "Poznan"})
	require.NoError(t, err)
	c := mustChange(t, date, matter)

	require.NoError(t, c.Apply(env))
	u := env.Regions.ByNameID("posen")
	require.Len(t, u.States, 2)
	require.Equal(t, "Poznan", u.States[1].Name)
	require.Equal(t, "posen", u.NameID, "the canonical identifier never changes")
}
