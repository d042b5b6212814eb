package ui

type Controller interface {
	OnOpenDomainSelect()
	OnSelectDomain(domain string)
	OnStartSession(domain string)
	OnMoveStep(stepID string, toArranged bool)
	OnReturnToMenu()
	OnPlayAgain()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetMenuState(state MenuState)
	SetDomains(domains []DomainSummary)
	SetSession(SessionState)
	SetOverlay(state *OverlayState)
	SetCompleted(CompletedState)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenMenu Screen = iota
	ScreenDomainSelect
	ScreenPlaying
	ScreenCompleted
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

// StepRow is one step as the board renders it.
type StepRow struct {
	ID          string
	Title       string
	Description string
	Phase       string
}

// SessionState mirrors the live puzzle for the playing screen.
type SessionState struct {
	Domain         string
	DomainTitle    string
	PuzzleTitle    string
	Score          int
	CompletedCount int
	WinThreshold   int
	TimeRemaining  int
	TimeBudget     int
	Available      []StepRow
	Arranged       []StepRow
}

// OverlayState is the blocking notice between puzzle resolution and the
// next transition. It has no actions; the controller dismisses it on
// its own schedule.
type OverlayState struct {
	Kind  string
	Title string
	Text  string
}

type CompletedState struct {
	DomainTitle string
	Score       int
	Solved      int
}

type MenuState struct {
	DomainCount int
	PuzzleCount int
	LastDomain  string
	LastOutcome string
	LastScore   int
	Sessions    int
	Victories   int
	TotalSolves int
	BestScore   int
	Tip         string
}

type DomainSummary struct {
	Name          string
	Title         string
	DescriptionMD string
	Stages        []StageSummary
	PuzzleCount   int
}

type StageSummary struct {
	Name    string
	Title   string
	Puzzles int
}
