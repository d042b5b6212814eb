package engine

import (
	"fmt"
	"math/rand"
	"time"

	"stepdojo/internal/catalog"
)

// TimeBudget is the countdown, in seconds, granted per puzzle.
const TimeBudget = 180

// Default overlay display durations. The victory notice lingers longer
// so the final score registers before the completed screen.
const (
	DefaultMessageDelay = 1500 * time.Millisecond
	DefaultVictoryDelay = 3 * time.Second
)

// Engine is the puzzle session state machine. It is not safe for
// concurrent use; the caller serializes ticks, moves and navigation
// through a single event stream and reads the returned Snapshot after
// each one. Events that are invalid for the current phase are silent
// no-ops returning the unchanged snapshot.
type Engine struct {
	cat catalog.Catalog
	rng *rand.Rand

	winThreshold int
	messageDelay time.Duration
	victoryDelay time.Duration

	phase          Phase
	domain         *catalog.Domain
	activePuzzleID string
	puzzleTitle    string
	canonical      []catalog.Step
	shuffled       []catalog.Step
	arranged       []catalog.Step
	score          int
	completedCount int
	completedIDs   map[string]struct{}
	timeRemaining  int
	overlay        *overlay
	lastSolve      *Solve

	// gen invalidates deferred overlay callbacks. Every transition
	// that could strand a pending callback bumps it; ResolveOverlay
	// with a stale value is a no-op.
	gen uint64
}

// New builds an engine over a loaded catalog. The random source drives
// both puzzle sampling and step shuffling and is injected so tests can
// pin orderings. A win threshold below 1 is clamped to 1.
func New(cat catalog.Catalog, rng *rand.Rand) *Engine {
	threshold := cat.LevelsToWin
	if threshold < 1 {
		threshold = 1
	}
	return &Engine{
		cat:          cat,
		rng:          rng,
		winThreshold: threshold,
		messageDelay: DefaultMessageDelay,
		victoryDelay: DefaultVictoryDelay,
		phase:        PhaseMenu,
		completedIDs: map[string]struct{}{},
	}
}

// SetDelays overrides the overlay display durations. Tests use zero
// delays to resolve overlays inline.
func (e *Engine) SetDelays(message, victory time.Duration) {
	e.messageDelay = message
	e.victoryDelay = victory
}

// SelectDomain records the menu's domain choice without starting a
// session. Unknown names and calls outside the menu are ignored.
func (e *Engine) SelectDomain(name string) Snapshot {
	if e.phase != PhaseMenu {
		return e.Snapshot()
	}
	if d := e.cat.ByName(name); d != nil {
		e.domain = d
	}
	return e.Snapshot()
}

// StartSession leaves the menu and loads the first puzzle. The named
// domain wins over any prior selection; with neither, the first catalog
// domain is used. Score, solve count and the exclusion set reset. When
// the domain has no eligible puzzle the session never reaches playing:
// an exhaustion overlay is shown and the deferred transition returns to
// the menu.
func (e *Engine) StartSession(name string) Snapshot {
	if e.phase != PhaseMenu {
		return e.Snapshot()
	}
	if d := e.cat.ByName(name); d != nil {
		e.domain = d
	}
	if e.domain == nil {
		if len(e.cat.Domains) == 0 {
			return e.Snapshot()
		}
		e.domain = &e.cat.Domains[0]
	}
	e.gen++
	e.score = 0
	e.completedCount = 0
	e.completedIDs = map[string]struct{}{}
	e.lastSolve = nil
	e.advance()
	return e.Snapshot()
}

// MoveStep relocates one step between the shuffled pool and the
// arranged sequence. Filling the arrangement to canonical length
// triggers evaluation immediately. Moves outside playing, while an
// overlay is up, or naming an absent step are no-ops.
func (e *Engine) MoveStep(stepID string, from, to Pool) Snapshot {
	if e.phase != PhasePlaying || e.overlay != nil || from == to {
		return e.Snapshot()
	}
	src, dst := e.pool(from), e.pool(to)
	if src == nil || dst == nil {
		return e.Snapshot()
	}
	idx := -1
	for i, s := range *src {
		if s.ID == stepID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return e.Snapshot()
	}
	step := (*src)[idx]
	*src = append((*src)[:idx], (*src)[idx+1:]...)
	*dst = append(*dst, step)

	if len(e.arranged) == len(e.canonical) {
		e.resolveArrangement()
	}
	return e.Snapshot()
}

// Tick burns one second of the countdown. Only meaningful while playing
// with no overlay up; at zero the session times out to the menu with
// the accrued score untouched.
func (e *Engine) Tick() Snapshot {
	if e.phase != PhasePlaying || e.overlay != nil || e.timeRemaining <= 0 {
		return e.Snapshot()
	}
	e.timeRemaining--
	if e.timeRemaining == 0 {
		e.setOverlay(overlay{
			kind:  MessageTimeout,
			title: "Time's Up",
			text:  "The countdown ran out before the sequence was complete.",
			delay: e.messageDelay,
			next:  nextMenu,
		})
	}
	return e.Snapshot()
}

// ReturnToMenu abandons whatever is in flight and resets to the menu.
// The domain selection survives; everything else, including pending
// overlay transitions, is discarded.
func (e *Engine) ReturnToMenu() Snapshot {
	if e.phase == PhaseMenu && e.overlay == nil {
		return e.Snapshot()
	}
	e.gen++
	e.toMenu()
	return e.Snapshot()
}

// PlayAgain leaves the completed screen for the menu, keeping the
// domain that was just won for convenience.
func (e *Engine) PlayAgain() Snapshot {
	if e.phase != PhaseCompleted {
		return e.Snapshot()
	}
	e.gen++
	e.toMenu()
	return e.Snapshot()
}

// ResolveOverlay applies the deferred transition of the overlay that
// was active when gen was read. A mismatched gen means the session
// moved on (manual reset, new overlay) and the call does nothing.
func (e *Engine) ResolveOverlay(gen uint64) Snapshot {
	if e.overlay == nil || gen != e.gen {
		return e.Snapshot()
	}
	next := e.overlay.next
	e.overlay = nil
	e.gen++
	switch next {
	case nextMenu:
		e.toMenu()
	case nextCompleted:
		e.toCompleted()
	case nextAdvance:
		e.advance()
	}
	return e.Snapshot()
}

// Snapshot projects the current state for the presentation layer.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:          e.phase,
		Score:          e.score,
		CompletedCount: e.completedCount,
		WinThreshold:   e.winThreshold,
		TimeRemaining:  e.timeRemaining,
		PuzzleID:       e.activePuzzleID,
		PuzzleTitle:    e.puzzleTitle,
		Shuffled:       append([]catalog.Step(nil), e.shuffled...),
		Arranged:       append([]catalog.Step(nil), e.arranged...),
		Gen:            e.gen,
	}
	if e.domain != nil {
		snap.Domain = e.domain.Name
	}
	if e.overlay != nil {
		snap.Overlay = &OverlayView{
			Kind:  e.overlay.kind,
			Title: e.overlay.title,
			Text:  e.overlay.text,
			Delay: e.overlay.delay,
		}
	}
	if e.lastSolve != nil {
		ls := *e.lastSolve
		snap.LastSolve = &ls
	}
	return snap
}

func (e *Engine) pool(p Pool) *[]catalog.Step {
	switch p {
	case PoolShuffled:
		return &e.shuffled
	case PoolArranged:
		return &e.arranged
	}
	return nil
}

// advance loads the next puzzle: sample excluding solved ids, shuffle a
// working copy into the available pool, reset the clock. Exhaustion
// ends the run through the overlay path.
func (e *Engine) advance() {
	puzzle, ok := Sample(*e.domain, e.completedIDs, e.rng)
	if !ok {
		e.clearPuzzle()
		e.phase = PhasePlaying
		e.setOverlay(overlay{
			kind:  MessageExhausted,
			title: "All Clear",
			text:  fmt.Sprintf("Every puzzle in %s has been solved this session.", e.domain.Title),
			delay: e.messageDelay,
			next:  nextMenu,
		})
		return
	}
	e.activePuzzleID = puzzle.ID
	e.puzzleTitle = puzzle.Title
	e.canonical = puzzle.Steps
	e.shuffled = append([]catalog.Step(nil), puzzle.Steps...)
	e.rng.Shuffle(len(e.shuffled), func(i, j int) {
		e.shuffled[i], e.shuffled[j] = e.shuffled[j], e.shuffled[i]
	})
	e.arranged = nil
	e.timeRemaining = TimeBudget
	e.phase = PhasePlaying
	e.overlay = nil
}

// resolveArrangement runs the scorer on a full arrangement and raises
// the matching overlay.
func (e *Engine) resolveArrangement() {
	res := Evaluate(e.arranged, e.canonical, e.timeRemaining, e.score, e.completedCount, e.winThreshold)
	e.score = res.Score
	switch res.Outcome {
	case OutcomeDefeat:
		e.setOverlay(overlay{
			kind:  MessageFail,
			title: "Out of Order",
			text:  "That sequence doesn't match the workflow. Back to the menu.",
			delay: e.messageDelay,
			next:  nextMenu,
		})
		return
	case OutcomeVictory, OutcomeAdvance:
		e.completedCount = res.CompletedCount
		e.completedIDs[e.activePuzzleID] = struct{}{}
		e.lastSolve = &Solve{
			PuzzleID: e.activePuzzleID,
			Points:   res.Points,
			TimeLeft: e.timeRemaining,
		}
	}
	if res.Outcome == OutcomeVictory {
		e.setOverlay(overlay{
			kind:  MessageVictory,
			title: "Victory",
			text:  fmt.Sprintf("Final score: %d", e.score),
			delay: e.victoryDelay,
			next:  nextCompleted,
		})
		return
	}
	e.setOverlay(overlay{
		kind:  MessageSuccess,
		title: "Sequence Complete",
		text:  fmt.Sprintf("+%d points", e.lastSolve.Points),
		delay: e.messageDelay,
		next:  nextAdvance,
	})
}

// setOverlay raises a blocking overlay and bumps the generation so any
// callback scheduled for an earlier overlay can no longer fire.
func (e *Engine) setOverlay(o overlay) {
	e.gen++
	e.overlay = &o
}

func (e *Engine) toMenu() {
	e.phase = PhaseMenu
	e.overlay = nil
	e.clearPuzzle()
	e.score = 0
	e.completedCount = 0
	e.completedIDs = map[string]struct{}{}
	e.timeRemaining = 0
}

// toCompleted keeps the final score and solve count for the completed
// screen but drops the puzzle pools; a completed session has no live
// puzzle.
func (e *Engine) toCompleted() {
	e.phase = PhaseCompleted
	e.overlay = nil
	e.clearPuzzle()
	e.timeRemaining = 0
}

func (e *Engine) clearPuzzle() {
	e.activePuzzleID = ""
	e.puzzleTitle = ""
	e.canonical = nil
	e.shuffled = nil
	e.arranged = nil
}
