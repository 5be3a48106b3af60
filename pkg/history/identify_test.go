package history

import (
	"testing"

	"github.com/stretchr/testify/require"

	"admhist/pkg/admstate"
	"admhist/pkg/changes"
)

func replayedFixture(t *testing.T) *History {
	t.Helper()
	matter, err := changes.NewChangeAdmState(
		admstate.DistrictAddress(admstate.Homeland, "posen", "meseritz"),
		admstate.DistrictAddress(admstate.Homeland, "bromberg", "meseritz"))
	require.NoError(t, err)
	move, err := changes.New(day(1920, 1, 10), "test gazette", "", nil, matter)
	require.NoError(t, err)

	h, err := New(fixtureConfig(t, move))
	require.NoError(t, err)
	require.NoError(t, h.Replay())
	return h
}

func TestIdentifyStateFindsExactMatch(t *testing.T) {
	h := replayedFixture(t)

	exact, closest, err := h.IdentifyState([][]string{
		{"posen", "birnbaum"},
		{"bromberg", "meseritz"},
	})
	require.NoError(t, err)
	require.Nil(t, closest)
	require.NotNil(t, exact)
	require.Same(t, h.StatesList[1], exact.State)
	require.Zero(t, exact.Distance)
}

func TestIdentifyStateRanksClosestCandidates(t *testing.T) {
	h := replayedFixture(t)

	// One pair off from the first snapshot: meseritz listed under the wrong
	// region for it.
	exact, closest, err := h.IdentifyState([][]string{
		{"posen", "birnbaum"},
		{"posen", "meseritz"},
		{"posen", "ghost"},
	})
	require.NoError(t, err)
	require.Nil(t, exact)
	require.NotEmpty(t, closest)

	best := closest[0]
	require.Same(t, h.StatesList[0], best.State)
	require.Equal(t, 1, best.Distance)
	require.Equal(t, [][]string{{"posen", "ghost"}}, best.MissingFromState)
	require.Empty(t, best.ExtraInState)

	for i := 1; i < len(closest); i++ {
		require.GreaterOrEqual(t, closest[i].Distance, closest[i-1].Distance)
	}
}

func TestIdentifyStateMatchesEarlierSnapshots(t *testing.T) {
	h := replayedFixture(t)

	exact, _, err := h.IdentifyState([][]string{
		{"posen", "birnbaum"},
		{"posen", "meseritz"},
	})
	require.NoError(t, err)
	require.NotNil(t, exact)
	require.Same(t, h.StatesList[0], exact.State)
}
