package history

import (
	"sort"

	"admhist/pkg/admstate"
)

// StateMatch scores one snapshot against an external (region, district)
// pair list.
type StateMatch struct {
	State    *admstate.State
	Distance int
	// Pairs present in the query but absent from the snapshot.
	MissingFromState [][]string
	// Pairs present in the snapshot but absent from the query.
	ExtraInState [][]string
}

// IdentifyState matches a sorted list of homeland (region, district) pairs
// against every replayed snapshot. It returns the exact match when one
// snapshot covers the list perfectly, otherwise the closest candidates
// (up to three) ordered by distance, for diagnostics.
func (h *History) IdentifyState(pairs [][]string) (*StateMatch, []StateMatch, error) {
	query := make(map[[2]string]bool, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			continue
		}
		query[[2]string{p[0], p[1]}] = true
	}

	var matches []StateMatch
	for _, st := range h.StatesList {
		rows, err := st.ToAddressList(admstate.ListOptions{OnlyHomeland: true})
		if err != nil {
			return nil, nil, err
		}
		inState := make(map[[2]string]bool, len(rows))
		for _, row := range rows {
			inState[[2]string{row[0], row[1]}] = true
		}
		m := StateMatch{State: st}
		for pair := range query {
			if !inState[pair] {
				m.MissingFromState = append(m.MissingFromState, []string{pair[0], pair[1]})
			}
		}
		for pair := range inState {
			if !query[pair] {
				m.ExtraInState = append(m.ExtraInState, []string{pair[0], pair[1]})
			}
		}
		sortPairRows(m.MissingFromState)
		sortPairRows(m.ExtraInState)
		m.Distance = len(m.MissingFromState) + len(m.ExtraInState)
		if m.Distance == 0 {
			return &m, nil, nil
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > 3 {
		matches = matches[:3]
	}
	return nil, matches, nil
}

func sortPairRows(rows [][]string) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})
}
