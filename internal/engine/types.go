package engine

import (
	"time"

	"stepdojo/internal/catalog"
)

// Phase is the coarse session lifecycle state.
type Phase string

const (
	PhaseMenu      Phase = "menu"
	PhasePlaying   Phase = "playing"
	PhaseCompleted Phase = "completed"
)

// Pool names one of the two step containers the player moves between.
type Pool string

const (
	PoolShuffled Pool = "shuffled"
	PoolArranged Pool = "arranged"
)

// MessageKind classifies the blocking overlay shown between a puzzle
// resolution and the next transition.
type MessageKind string

const (
	MessageSuccess   MessageKind = "success"
	MessageFail      MessageKind = "fail"
	MessageTimeout   MessageKind = "timeout"
	MessageVictory   MessageKind = "victory"
	MessageExhausted MessageKind = "exhausted"
)

// overlayNext is what applying the overlay's deferred transition does.
type overlayNext int

const (
	nextMenu overlayNext = iota
	nextCompleted
	nextAdvance
)

type overlay struct {
	kind  MessageKind
	title string
	text  string
	delay time.Duration
	next  overlayNext
}

// OverlayView is the presentation-facing projection of an active overlay.
// Delay tells the caller when to invoke ResolveOverlay.
type OverlayView struct {
	Kind  MessageKind
	Title string
	Text  string
	Delay time.Duration
}

// Solve records the most recent correct arrangement, for history and
// overlay copy. Points is the delta awarded, not the running total.
type Solve struct {
	PuzzleID string
	Points   int
	TimeLeft int
}

// Snapshot is the full read model handed to the presentation layer after
// every event. Slices are copies; callers may hold them across events.
type Snapshot struct {
	Phase          Phase
	Domain         string
	PuzzleID       string
	PuzzleTitle    string
	Score          int
	CompletedCount int
	WinThreshold   int
	TimeRemaining  int
	Shuffled       []catalog.Step
	Arranged       []catalog.Step
	Overlay        *OverlayView
	Gen            uint64
	LastSolve      *Solve
}
