package engine

import (
	"math/rand"

	"stepdojo/internal/catalog"
)

// Sample picks one puzzle uniformly at random from the domain, skipping
// any id present in excluded. It reports false when every puzzle has
// been excluded, which the caller surfaces as content exhaustion. Pure:
// no session state is touched, and excluded ids that never existed in
// the domain are simply ignored.
func Sample(d catalog.Domain, excluded map[string]struct{}, rng *rand.Rand) (catalog.Puzzle, bool) {
	var eligible []catalog.Puzzle
	for _, st := range d.Stages {
		for _, p := range st.Puzzles {
			if _, done := excluded[p.ID]; done {
				continue
			}
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return catalog.Puzzle{}, false
	}
	return eligible[rng.Intn(len(eligible))], true
}
