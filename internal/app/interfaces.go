package app

import (
	"context"

	"stepdojo/internal/history"
)

// Store is the slice of the history layer the controller needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	StartGameSession(ctx context.Context, rec history.GameSession) (int64, error)
	FinishGameSession(ctx context.Context, id int64, outcome history.Outcome, score, solved int) error
	RecordSolve(ctx context.Context, solve history.Solve) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (history.Summary, error)
	GetLastSession(ctx context.Context) (*history.LastSession, error)
	Close() error
}
