package engine

import "stepdojo/internal/catalog"

// Scoring constants. The time bonus rewards a tenth of a point per
// remaining second, floored.
const (
	CorrectPoints    = 1000
	TimeBonusDivisor = 10
	WrongPenalty     = 50
)

// Outcome is the verdict on a full arrangement.
type Outcome int

const (
	OutcomeAdvance Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

// Result carries the post-evaluation score state. Score and
// CompletedCount are the new authoritative values; Points is the delta
// applied on a correct arrangement (zero on defeat).
type Result struct {
	Outcome        Outcome
	Score          int
	CompletedCount int
	Points         int
}

// Evaluate judges a fully arranged sequence against the canonical one.
// Correctness is positional identity by step id; a single misplaced
// step yields Defeat with no partial credit. Call only when the
// arrangement is complete. The score floor is 0 and victory requires at
// least one solve even when winThreshold is configured at or below
// zero.
func Evaluate(arranged, canonical []catalog.Step, timeRemaining, score, completedCount, winThreshold int) Result {
	correct := len(arranged) == len(canonical)
	if correct {
		for i := range arranged {
			if arranged[i].ID != canonical[i].ID {
				correct = false
				break
			}
		}
	}

	if !correct {
		s := score - WrongPenalty
		if s < 0 {
			s = 0
		}
		return Result{Outcome: OutcomeDefeat, Score: s, CompletedCount: completedCount}
	}

	points := CorrectPoints + timeRemaining/TimeBonusDivisor
	r := Result{
		Score:          score + points,
		CompletedCount: completedCount + 1,
		Points:         points,
	}
	if winThreshold < 1 {
		winThreshold = 1
	}
	if r.CompletedCount >= winThreshold {
		r.Outcome = OutcomeVictory
	} else {
		r.Outcome = OutcomeAdvance
	}
	return r
}
