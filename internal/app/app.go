package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stepdojo/internal/catalog"
	"stepdojo/internal/engine"
	"stepdojo/internal/history"
	"stepdojo/internal/telemetry"
	"stepdojo/internal/ui"

	"github.com/google/uuid"
)

var menuTips = []string{
	"Steps carry lifecycle tags: initiation, execution, settlement. The canonical order follows them.",
	"A correct sequence pays 1000 points plus a bonus for time left on the clock.",
	"One wrong full arrangement ends the run. Read the whole pool before placing.",
	"Solved puzzles never repeat within a run.",
}

// App drives the puzzle session engine and bridges it to the terminal
// view and the history store. Controller callbacks arrive on view
// goroutines and the countdown ticks on another; every engine event is
// serialized through mu and followed by a single state push to the
// view.
type App struct {
	cfg Config

	logger *telemetry.Logger
	store  Store
	view   ui.View
	cat    catalog.Catalog

	sessionID string

	mu             sync.Mutex
	eng            *engine.Engine
	runID          int64
	recordedSolves int
	scheduledGen   uint64
	pendingOutcome history.Outcome
	lastPhase      engine.Phase
	lastScore      int
	lastSolved     int
	domainSelect   bool
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	logger, err := telemetry.NewLogger(cfg.LogPath, sessionID)
	if err != nil {
		return nil, err
	}

	store, err := history.NewSQLite(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	if len(cat.Domains) == 0 {
		_ = store.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("no domains available under %s", cfg.CatalogDir)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	eng := engine.New(cat, rand.New(rand.NewSource(seed)))

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		ThemeVariant: cfg.UI.Theme,
		MotionLevel:  cfg.UI.MotionLevel,
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		view:      view,
		cat:       cat,
		sessionID: sessionID,
		eng:       eng,
		lastPhase: engine.PhaseMenu,
	}
	view.SetController(a)
	view.SetDomains(a.domainSummaries())
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Event("app_start", map[string]any{"catalog": a.cfg.CatalogDir, "levels_to_win": a.cat.LevelsToWin})

	a.mu.Lock()
	if a.cfg.Domain != "" {
		a.eng.SelectDomain(a.cfg.Domain)
	} else if settings, err := a.store.LoadSettings(ctx); err == nil {
		if last := settings["last_domain"]; last != "" {
			a.eng.SelectDomain(last)
		}
	}
	a.mu.Unlock()

	a.view.SetMenuState(a.menuState(ctx))
	a.view.SetScreen(ui.ScreenMenu)

	stop := make(chan struct{})
	ticker := time.NewTicker(time.Second)
	go func() {
		for {
			select {
			case <-ticker.C:
				a.handleTick()
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		ticker.Stop()
		close(stop)
	}()

	return a.view.Run()
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.mu.Lock()
	if a.runID != 0 {
		outcome := a.pendingOutcome
		if outcome == "" {
			outcome = history.OutcomeAbandoned
		}
		_ = a.store.FinishGameSession(ctx, a.runID, outcome, a.lastScore, a.lastSolved)
		a.runID = 0
	}
	a.mu.Unlock()

	a.logger.Event("app_stop", nil)
	_ = a.store.Close()
	_ = a.logger.Close()
}

func (a *App) handleTick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := a.eng.Tick()
	if snap.Phase != engine.PhasePlaying && a.lastPhase != engine.PhasePlaying {
		return
	}
	a.syncLocked(snap)
}

func (a *App) resolveOverlay(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncLocked(a.eng.ResolveOverlay(gen))
}

// OnOpenDomainSelect switches to the domain browser. The engine stays
// in the menu phase; this screen is purely presentational.
func (a *App) OnOpenDomainSelect() {
	a.mu.Lock()
	a.domainSelect = true
	a.mu.Unlock()
	a.view.SetScreen(ui.ScreenDomainSelect)
}

func (a *App) OnSelectDomain(domain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eng.SelectDomain(domain)
}

func (a *App) OnStartSession(domain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.domainSelect = false
	a.syncLocked(a.eng.StartSession(domain))
}

func (a *App) OnMoveStep(stepID string, toArranged bool) {
	from, to := engine.PoolShuffled, engine.PoolArranged
	if !toArranged {
		from, to = engine.PoolArranged, engine.PoolShuffled
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncLocked(a.eng.MoveStep(stepID, from, to))
}

func (a *App) OnReturnToMenu() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.domainSelect = false
	a.syncLocked(a.eng.ReturnToMenu())
}

func (a *App) OnPlayAgain() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncLocked(a.eng.PlayAgain())
}

func (a *App) OnQuit() {
	a.view.Stop()
}

// syncLocked reconciles one post-event snapshot: history bookkeeping,
// deferred overlay resolution, and a state push to the view. Callers
// hold mu.
func (a *App) syncLocked(snap engine.Snapshot) {
	ctx := context.Background()

	if snap.Phase == engine.PhasePlaying {
		a.lastScore = snap.Score
		a.lastSolved = snap.CompletedCount
	}

	if snap.Phase == engine.PhasePlaying && a.runID == 0 {
		id, err := a.store.StartGameSession(ctx, history.GameSession{
			SessionID: a.sessionID,
			Domain:    snap.Domain,
			StartTS:   time.Now().UTC(),
		})
		if err != nil {
			a.logger.Error("history_start_failed", map[string]any{"error": err.Error()})
			a.view.FlashStatus("history unavailable")
		} else {
			a.runID = id
		}
		a.recordedSolves = 0
		a.pendingOutcome = ""
		_ = a.store.SaveSettings(ctx, map[string]string{"last_domain": snap.Domain})
		a.logger.Event("session_start", map[string]any{"domain": snap.Domain})
	}

	if snap.Overlay != nil {
		switch snap.Overlay.Kind {
		case engine.MessageFail:
			a.pendingOutcome = history.OutcomeDefeat
		case engine.MessageTimeout:
			a.pendingOutcome = history.OutcomeTimeout
		case engine.MessageVictory:
			a.pendingOutcome = history.OutcomeVictory
		case engine.MessageExhausted:
			a.pendingOutcome = history.OutcomeExhausted
		}
	}

	if snap.LastSolve != nil && snap.CompletedCount > a.recordedSolves {
		a.recordedSolves = snap.CompletedCount
		if err := a.store.RecordSolve(ctx, history.Solve{
			SessionID: a.sessionID,
			PuzzleID:  snap.LastSolve.PuzzleID,
			Points:    snap.LastSolve.Points,
			TimeLeft:  snap.LastSolve.TimeLeft,
			SolvedTS:  time.Now().UTC(),
		}); err != nil {
			a.logger.Error("history_solve_failed", map[string]any{"error": err.Error()})
			a.view.FlashStatus("history unavailable")
		}
		a.logger.Event("puzzle_solved", map[string]any{
			"puzzle":    snap.LastSolve.PuzzleID,
			"points":    snap.LastSolve.Points,
			"time_left": snap.LastSolve.TimeLeft,
		})
	}

	if snap.Phase != engine.PhasePlaying && a.runID != 0 {
		outcome := a.pendingOutcome
		if outcome == "" {
			outcome = history.OutcomeAbandoned
		}
		score, solved := a.lastScore, a.lastSolved
		if snap.Phase == engine.PhaseCompleted {
			score, solved = snap.Score, snap.CompletedCount
		}
		if err := a.store.FinishGameSession(ctx, a.runID, outcome, score, solved); err != nil {
			a.logger.Error("history_finish_failed", map[string]any{"error": err.Error()})
			a.view.FlashStatus("history unavailable")
		}
		a.logger.Event("session_end", map[string]any{"outcome": string(outcome), "score": score, "solved": solved})
		a.runID = 0
		a.pendingOutcome = ""
	}

	if snap.Overlay != nil && snap.Gen != a.scheduledGen {
		a.scheduledGen = snap.Gen
		gen := snap.Gen
		time.AfterFunc(snap.Overlay.Delay, func() { a.resolveOverlay(gen) })
	}

	a.pushLocked(ctx, snap)
	a.lastPhase = snap.Phase
}

func (a *App) pushLocked(ctx context.Context, snap engine.Snapshot) {
	a.view.SetSession(a.sessionState(snap))
	if snap.Overlay != nil {
		a.view.SetOverlay(&ui.OverlayState{
			Kind:  string(snap.Overlay.Kind),
			Title: snap.Overlay.Title,
			Text:  snap.Overlay.Text,
		})
	} else {
		a.view.SetOverlay(nil)
	}

	switch snap.Phase {
	case engine.PhasePlaying:
		a.view.SetScreen(ui.ScreenPlaying)
	case engine.PhaseCompleted:
		a.view.SetCompleted(ui.CompletedState{
			DomainTitle: a.domainTitle(snap.Domain),
			Score:       snap.Score,
			Solved:      snap.CompletedCount,
		})
		a.view.SetScreen(ui.ScreenCompleted)
	case engine.PhaseMenu:
		if a.lastPhase != engine.PhaseMenu {
			a.view.SetMenuState(a.menuState(ctx))
		}
		if !a.domainSelect {
			a.view.SetScreen(ui.ScreenMenu)
		}
	}
}

func (a *App) sessionState(snap engine.Snapshot) ui.SessionState {
	return ui.SessionState{
		Domain:         snap.Domain,
		DomainTitle:    a.domainTitle(snap.Domain),
		PuzzleTitle:    snap.PuzzleTitle,
		Score:          snap.Score,
		CompletedCount: snap.CompletedCount,
		WinThreshold:   snap.WinThreshold,
		TimeRemaining:  snap.TimeRemaining,
		TimeBudget:     engine.TimeBudget,
		Available:      stepRows(snap.Shuffled),
		Arranged:       stepRows(snap.Arranged),
	}
}

func (a *App) domainTitle(name string) string {
	if d := a.cat.ByName(name); d != nil {
		return d.Title
	}
	return name
}

func (a *App) menuState(ctx context.Context) ui.MenuState {
	state := ui.MenuState{
		DomainCount: len(a.cat.Domains),
	}
	for _, d := range a.cat.Domains {
		state.PuzzleCount += d.PuzzleCount()
	}
	if sum, err := a.store.GetSummary(ctx); err == nil {
		state.Sessions = sum.Sessions
		state.Victories = sum.Victories
		state.TotalSolves = sum.Solves
		state.BestScore = sum.BestScore
		state.Tip = menuTips[sum.Sessions%len(menuTips)]
	} else {
		state.Tip = menuTips[0]
	}
	if settings, err := a.store.LoadSettings(ctx); err == nil {
		if last := settings["last_domain"]; last != "" && a.cat.ByName(last) != nil {
			state.LastDomain = last
		}
	}
	if last, err := a.store.GetLastSession(ctx); err == nil && last != nil {
		state.LastOutcome = string(last.Outcome)
		state.LastScore = last.Score
	}
	return state
}

func (a *App) domainSummaries() []ui.DomainSummary {
	out := make([]ui.DomainSummary, 0, len(a.cat.Domains))
	for _, d := range a.cat.Domains {
		s := ui.DomainSummary{
			Name:          d.Name,
			Title:         d.Title,
			DescriptionMD: d.DescriptionMD,
			PuzzleCount:   d.PuzzleCount(),
		}
		for _, st := range d.Stages {
			s.Stages = append(s.Stages, ui.StageSummary{
				Name:    st.Name,
				Title:   st.Title,
				Puzzles: len(st.Puzzles),
			})
		}
		out = append(out, s)
	}
	return out
}

func stepRows(steps []catalog.Step) []ui.StepRow {
	rows := make([]ui.StepRow, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, ui.StepRow{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Phase:       string(s.Phase),
		})
	}
	return rows
}
