package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"stepdojo/internal/catalog"
	"stepdojo/internal/engine"
	"stepdojo/internal/history"
	"stepdojo/internal/telemetry"
	"stepdojo/internal/ui"
)

type mockStore struct {
	mu       sync.Mutex
	nextID   int64
	started  []history.GameSession
	finished []finishedRun
	solves   []history.Solve
	solveErr error
	settings map[string]string
	summary  history.Summary
	last     *history.LastSession
}

type finishedRun struct {
	ID      int64
	Outcome history.Outcome
	Score   int
	Solved  int
}

func newMockStore() *mockStore {
	return &mockStore{settings: map[string]string{}}
}

func (m *mockStore) EnsureSchema(context.Context) error { return nil }

func (m *mockStore) StartGameSession(_ context.Context, s history.GameSession) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.started = append(m.started, s)
	return m.nextID, nil
}

func (m *mockStore) FinishGameSession(_ context.Context, id int64, outcome history.Outcome, score, solved int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, finishedRun{id, outcome, score, solved})
	return nil
}

func (m *mockStore) RecordSolve(_ context.Context, s history.Solve) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.solveErr != nil {
		return m.solveErr
	}
	m.solves = append(m.solves, s)
	return nil
}

func (m *mockStore) SaveSettings(_ context.Context, kv map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range kv {
		m.settings[k] = v
	}
	return nil
}

func (m *mockStore) LoadSettings(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) GetSummary(context.Context) (history.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary, nil
}

func (m *mockStore) GetLastSession(context.Context) (*history.LastSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *mockStore) Close() error { return nil }

type mockView struct {
	mu        sync.Mutex
	screens   []ui.Screen
	sessions  []ui.SessionState
	overlays  []*ui.OverlayState
	completed []ui.CompletedState
	menus     []ui.MenuState
	flashes   []string
	stopped   bool
}

func (v *mockView) Run() error { return nil }

func (v *mockView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *mockView) SetController(ui.Controller) {}

func (v *mockView) SetScreen(s ui.Screen) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screens = append(v.screens, s)
}

func (v *mockView) SetMenuState(m ui.MenuState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.menus = append(v.menus, m)
}

func (v *mockView) SetDomains([]ui.DomainSummary) {}

func (v *mockView) SetSession(s ui.SessionState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sessions = append(v.sessions, s)
}

func (v *mockView) SetOverlay(o *ui.OverlayState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overlays = append(v.overlays, o)
}

func (v *mockView) SetCompleted(c ui.CompletedState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.completed = append(v.completed, c)
}

func (v *mockView) FlashStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flashes = append(v.flashes, msg)
}

func (v *mockView) lastScreen() ui.Screen {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.screens) == 0 {
		return ui.ScreenMenu
	}
	return v.screens[len(v.screens)-1]
}

func testCatalog(levelsToWin int) catalog.Catalog {
	steps := func(ids ...string) []catalog.Step {
		out := make([]catalog.Step, 0, len(ids))
		for _, id := range ids {
			out = append(out, catalog.Step{ID: id, Title: id, Phase: catalog.PhaseDefault})
		}
		return out
	}
	return catalog.Catalog{
		LevelsToWin: levelsToWin,
		Domains: []catalog.Domain{{
			Kind:          catalog.DomainKind,
			SchemaVersion: catalog.SupportedSchemaVersion,
			Name:          "lending",
			Title:         "Consumer Lending",
			Stages: []catalog.Stage{{
				Name: "origination",
				Puzzles: []catalog.Puzzle{
					{ID: "loan-app", Title: "Loan Application", Steps: steps("intake", "verify", "fund")},
					{ID: "payoff", Title: "Early Payoff", Steps: steps("request", "quote", "settle")},
				},
			}},
		}},
	}
}

func newTestApp(t *testing.T, levelsToWin int) (*App, *mockStore, *mockView) {
	t.Helper()
	cat := testCatalog(levelsToWin)
	eng := engine.New(cat, rand.New(rand.NewSource(7)))
	eng.SetDelays(0, 0)
	logger, err := telemetry.NewLogger("", "test-session")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	store := newMockStore()
	view := &mockView{}
	a := &App{
		cfg:       DefaultConfig(),
		logger:    logger,
		store:     store,
		view:      view,
		cat:       cat,
		sessionID: "test-session",
		eng:       eng,
		lastPhase: engine.PhaseMenu,
	}
	return a, store, view
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func (a *App) currentSnapshot() engine.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eng.Snapshot()
}

// solveActive replays the canonical step order of the active puzzle
// through the controller.
func solveActive(a *App) {
	snap := a.currentSnapshot()
	d := a.cat.ByName(snap.Domain)
	for _, p := range d.Puzzles() {
		if p.ID != snap.PuzzleID {
			continue
		}
		for _, s := range p.Steps {
			a.OnMoveStep(s.ID, true)
		}
	}
}

func TestStartSessionRecordsRunAndLastDomain(t *testing.T) {
	a, store, view := newTestApp(t, 1)

	a.OnStartSession("lending")

	store.mu.Lock()
	starts := len(store.started)
	last := store.settings["last_domain"]
	store.mu.Unlock()
	if starts != 1 {
		t.Fatalf("expected one recorded session start, got %d", starts)
	}
	if last != "lending" {
		t.Fatalf("expected last_domain persisted, got %q", last)
	}
	if view.lastScreen() != ui.ScreenPlaying {
		t.Fatalf("expected playing screen, got %v", view.lastScreen())
	}
}

func TestVictoryRecordsSolveAndFinishesRun(t *testing.T) {
	a, store, view := newTestApp(t, 1)

	a.OnStartSession("lending")
	solveActive(a)

	waitUntil(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.finished) == 1
	})

	store.mu.Lock()
	if len(store.solves) != 1 {
		store.mu.Unlock()
		t.Fatalf("expected one recorded solve")
	}
	solve := store.solves[0]
	fin := store.finished[0]
	store.mu.Unlock()

	if solve.Points < engine.CorrectPoints {
		t.Fatalf("expected at least base points, got %d", solve.Points)
	}
	if fin.Outcome != history.OutcomeVictory {
		t.Fatalf("expected victory outcome, got %q", fin.Outcome)
	}
	if fin.Score != solve.Points || fin.Solved != 1 {
		t.Fatalf("unexpected final score/solved: %d/%d", fin.Score, fin.Solved)
	}
	waitUntil(t, func() bool { return view.lastScreen() == ui.ScreenCompleted })
}

func TestWrongArrangementFinishesRunAsDefeat(t *testing.T) {
	a, store, _ := newTestApp(t, 1)

	a.OnStartSession("lending")

	// The reversed order is never canonical for the fixture puzzles.
	snap := a.currentSnapshot()
	for i := len(snap.Shuffled) - 1; i >= 0; i-- {
		a.OnMoveStep(snap.Shuffled[i].ID, true)
	}

	waitUntil(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.finished) == 1
	})

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.finished[0].Outcome != history.OutcomeDefeat {
		t.Fatalf("expected defeat outcome, got %q", store.finished[0].Outcome)
	}
	if len(store.solves) != 0 {
		t.Fatalf("expected no recorded solves, got %d", len(store.solves))
	}
}

func TestReturnToMenuFinishesRunAsAbandoned(t *testing.T) {
	a, store, view := newTestApp(t, 2)

	a.OnStartSession("lending")
	a.OnReturnToMenu()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.finished) != 1 {
		t.Fatalf("expected one finished run, got %d", len(store.finished))
	}
	if store.finished[0].Outcome != history.OutcomeAbandoned {
		t.Fatalf("expected abandoned outcome, got %q", store.finished[0].Outcome)
	}
	if view.lastScreen() != ui.ScreenMenu {
		t.Fatalf("expected menu screen, got %v", view.lastScreen())
	}
}

func TestCloseFinishesOpenRun(t *testing.T) {
	a, store, _ := newTestApp(t, 2)

	a.OnStartSession("lending")
	a.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.finished) != 1 {
		t.Fatalf("expected close to finish the open run, got %d", len(store.finished))
	}
	if store.finished[0].Outcome != history.OutcomeAbandoned {
		t.Fatalf("expected abandoned outcome, got %q", store.finished[0].Outcome)
	}
}

func TestMenuStateAggregatesHistory(t *testing.T) {
	a, store, _ := newTestApp(t, 1)
	store.summary = history.Summary{Sessions: 5, Victories: 2, Solves: 9, BestScore: 3100}
	store.settings["last_domain"] = "lending"
	store.last = &history.LastSession{Domain: "lending", Outcome: history.OutcomeVictory, Score: 3100, Solved: 3}

	state := a.menuState(context.Background())
	if state.DomainCount != 1 || state.PuzzleCount != 2 {
		t.Fatalf("unexpected catalog counts: %d domains, %d puzzles", state.DomainCount, state.PuzzleCount)
	}
	if state.Sessions != 5 || state.Victories != 2 || state.TotalSolves != 9 || state.BestScore != 3100 {
		t.Fatalf("unexpected summary projection: %+v", state)
	}
	if state.LastDomain != "lending" {
		t.Fatalf("expected last domain lending, got %q", state.LastDomain)
	}
	if state.LastOutcome != string(history.OutcomeVictory) || state.LastScore != 3100 {
		t.Fatalf("expected last run victory/3100, got %q/%d", state.LastOutcome, state.LastScore)
	}
	if state.Tip == "" {
		t.Fatalf("expected a menu tip")
	}
}

func TestHistoryWriteFailureFlashesStatus(t *testing.T) {
	a, store, view := newTestApp(t, 2)
	store.mu.Lock()
	store.solveErr = errors.New("disk full")
	store.mu.Unlock()

	a.OnStartSession("lending")
	solveActive(a)

	view.mu.Lock()
	defer view.mu.Unlock()
	found := false
	for _, f := range view.flashes {
		if f == "history unavailable" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a status flash after a failed history write, got %v", view.flashes)
	}
}

func TestDomainSelectKeepsScreenUntilStart(t *testing.T) {
	a, _, view := newTestApp(t, 1)

	a.OnOpenDomainSelect()
	if view.lastScreen() != ui.ScreenDomainSelect {
		t.Fatalf("expected domain select screen, got %v", view.lastScreen())
	}
	a.OnSelectDomain("lending")
	if view.lastScreen() != ui.ScreenDomainSelect {
		t.Fatalf("selection should not leave the domain select screen")
	}
	a.OnStartSession("lending")
	if view.lastScreen() != ui.ScreenPlaying {
		t.Fatalf("expected playing screen after start, got %v", view.lastScreen())
	}
}
