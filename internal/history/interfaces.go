package history

import (
	"context"
	"time"
)

// Store records finished-play history and small app settings. It never
// restores a live session; a run that ends stays ended.
type Store interface {
	EnsureSchema(ctx context.Context) error
	StartGameSession(ctx context.Context, rec GameSession) (int64, error)
	FinishGameSession(ctx context.Context, id int64, outcome Outcome, score, solved int) error
	RecordSolve(ctx context.Context, solve Solve) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetLastSession(ctx context.Context) (*LastSession, error)
	Close() error
}

// Outcome is how a game session ended.
type Outcome string

const (
	OutcomeVictory   Outcome = "victory"
	OutcomeDefeat    Outcome = "defeat"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeAbandoned Outcome = "abandoned"
)

type GameSession struct {
	SessionID string
	Domain    string
	StartTS   time.Time
}

type Solve struct {
	SessionID string
	PuzzleID  string
	Points    int
	TimeLeft  int
	SolvedTS  time.Time
}

type Summary struct {
	Sessions  int
	Victories int
	Solves    int
	BestScore int
}

type LastSession struct {
	Domain  string
	StartTS time.Time
	Outcome Outcome
	Score   int
	Solved  int
}
