package combat

import (
	"errors"
	"sort"
)

// ErrNoValidActors is returned by AdvanceTurn when a full pass over the
// turn order finds nobody able to act. The victory check ends sessions
// before this can happen, so seeing it means a broken invariant, not a
// normal outcome.
var ErrNoValidActors = errors.New("no participant in turn order can act")

// ComputeTurnOrder returns the initial turn order: participant CharIDs
// sorted by Speed descending, ties broken by registration order. The sort
// is stable so the order is deterministic and reproducible.
//
// Postcondition: the returned slice is a permutation of all participant
// CharIDs.
func ComputeTurnOrder(participants []*Participant) []string {
	sorted := make([]*Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Speed > sorted[j].Speed
	})
	order := make([]string, len(sorted))
	for i, p := range sorted {
		order[i] = p.CharID
	}
	return order
}

// AdvanceTurn steps the turn index forward circularly, skipping defeated
// and fled participants. It returns the next index and whether the order
// wrapped past the end (which increments the round).
//
// Precondition: currentIndex is in range; byID covers every id in order.
// Postcondition: on success, order[nextIndex] identifies a participant with
// CanAct(). Returns ErrNoValidActors after a full fruitless cycle.
func AdvanceTurn(order []string, currentIndex int, byID map[string]*Participant) (nextIndex int, wrapped bool, err error) {
	n := len(order)
	idx := currentIndex
	for steps := 0; steps < n; steps++ {
		idx++
		if idx >= n {
			idx = 0
			wrapped = true
		}
		p := byID[order[idx]]
		if p != nil && p.CanAct() {
			return idx, wrapped, nil
		}
	}
	return currentIndex, false, ErrNoValidActors
}

// participantIndex builds a CharID lookup for AdvanceTurn.
func participantIndex(s *Session) map[string]*Participant {
	byID := make(map[string]*Participant, len(s.Participants))
	for _, p := range s.Participants {
		byID[p.CharID] = p
	}
	return byID
}
