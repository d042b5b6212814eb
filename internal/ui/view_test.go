package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type mockController struct {
	mu         sync.Mutex
	starts     []string
	selects    []string
	moves      []string
	returns    int
	playAgains int
	quits      int
}

func (m *mockController) OnOpenDomainSelect() {}
func (m *mockController) OnSelectDomain(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selects = append(m.selects, domain)
}
func (m *mockController) OnStartSession(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, domain)
}
func (m *mockController) OnMoveStep(stepID string, toArranged bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir := "<-"
	if toArranged {
		dir = "->"
	}
	m.moves = append(m.moves, stepID+dir)
}
func (m *mockController) OnReturnToMenu() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returns++
}
func (m *mockController) OnPlayAgain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playAgains++
}
func (m *mockController) OnQuit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quits++
}

func (m *mockController) snapshot() mockController {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mockController{
		starts:     append([]string(nil), m.starts...),
		selects:    append([]string(nil), m.selects...),
		moves:      append([]string(nil), m.moves...),
		returns:    m.returns,
		playAgains: m.playAgains,
		quits:      m.quits,
	}
}

func press(v *Root, code rune, mod tea.KeyMod) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(300 * time.Millisecond)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met before deadline")
	}
}

func testSession() SessionState {
	return SessionState{
		Domain:        "lending",
		DomainTitle:   "Lending",
		PuzzleTitle:   "Loan Application",
		TimeRemaining: 120,
		TimeBudget:    180,
		WinThreshold:  3,
		Available: []StepRow{
			{ID: "run-credit-check", Title: "Run credit check", Phase: "execution"},
			{ID: "issue-decision", Title: "Issue decision", Phase: "settlement"},
		},
		Arranged: []StepRow{
			{ID: "collect-documents", Title: "Collect documents", Phase: "initiation"},
		},
	}
}

func TestEnterMovesSelectedAvailableStep(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())

	press(v, tea.KeyEnter, 0)

	waitFor(t, func() bool { return len(ctrl.snapshot().moves) == 1 })
	if got := ctrl.snapshot().moves[0]; got != "run-credit-check->" {
		t.Fatalf("move = %q, want run-credit-check->", got)
	}
}

func TestTabSwitchesPanelAndMovesBack(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())

	press(v, tea.KeyTab, 0)
	press(v, tea.KeyEnter, 0)

	waitFor(t, func() bool { return len(ctrl.snapshot().moves) == 1 })
	if got := ctrl.snapshot().moves[0]; got != "collect-documents<-" {
		t.Fatalf("move = %q, want collect-documents<-", got)
	}
}

func TestEscOpensAbandonConfirmWithoutImmediateReturn(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())

	press(v, tea.KeyEsc, 0)

	if ctrl.snapshot().returns != 0 {
		t.Fatalf("expected no immediate return to menu")
	}
	if !v.abandonOpen {
		t.Fatalf("expected abandon confirm modal to be open")
	}

	press(v, tea.KeyRight, 0)
	press(v, tea.KeyEnter, 0)
	waitFor(t, func() bool { return ctrl.snapshot().returns == 1 })
}

func TestEngineOverlaySwallowsBoardKeys(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())
	v.SetOverlay(&OverlayState{Kind: "success", Title: "Sequence Complete", Text: "+1012 points"})

	press(v, tea.KeyEnter, 0)
	press(v, tea.KeyEsc, 0)

	time.Sleep(50 * time.Millisecond)
	snap := ctrl.snapshot()
	if len(snap.moves) != 0 || snap.returns != 0 {
		t.Fatalf("overlay did not block input: %+v", &snap)
	}
}

func TestDomainSelectEnterStartsSession(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetDomains([]DomainSummary{
		{Name: "lending", Title: "Lending", PuzzleCount: 3},
		{Name: "payments", Title: "Payments", PuzzleCount: 2},
	})
	v.SetScreen(ScreenDomainSelect)

	press(v, tea.KeyDown, 0)
	press(v, tea.KeyEnter, 0)

	waitFor(t, func() bool { return len(ctrl.snapshot().starts) == 1 })
	snap := ctrl.snapshot()
	if snap.starts[0] != "payments" {
		t.Fatalf("started %q, want payments", snap.starts[0])
	}
	if len(snap.selects) == 0 || snap.selects[len(snap.selects)-1] != "payments" {
		t.Fatalf("selection not reported: %v", snap.selects)
	}
}

func TestCompletedEnterPlaysAgain(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenCompleted)
	v.SetCompleted(CompletedState{DomainTitle: "Lending", Score: 3020, Solved: 3})

	press(v, tea.KeyEnter, 0)
	waitFor(t, func() bool { return ctrl.snapshot().playAgains == 1 })
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	v := New(Options{})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())

	press(v, 'q', tea.ModCtrl)
	waitFor(t, func() bool { return ctrl.snapshot().quits == 1 })
}

func TestViewImplementsInterfaceCompileTime(t *testing.T) {
	var _ View = New(Options{})
}

func TestOverlaySpringScalesModal(t *testing.T) {
	v := New(Options{})
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())
	v.SetOverlay(&OverlayState{Kind: "success", Title: "Sequence Complete", Text: "+1012 points"})

	v.overlayPos = 0
	if got := v.renderModal(); got != "" {
		t.Fatalf("expected no modal at spring position 0, got %d bytes", len(got))
	}

	v.overlayPos = 0.5
	half := v.renderModal()
	v.overlayPos = 1
	full := v.renderModal()
	if half == "" || full == "" {
		t.Fatalf("expected modal to render at positions 0.5 and 1")
	}
	if strings.Count(half, "\n") >= strings.Count(full, "\n") {
		t.Fatalf("modal height did not grow with spring position: half=%d full=%d",
			strings.Count(half, "\n"), strings.Count(full, "\n"))
	}
}

func TestMotionOffShowsModalAtFullSize(t *testing.T) {
	v := New(Options{MotionLevel: "off"})
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())

	press(v, tea.KeyEsc, 0)
	if !v.abandonOpen {
		t.Fatalf("expected abandon confirm to open")
	}
	modal := v.renderModal()
	if modal == "" {
		t.Fatalf("expected the confirm modal to render without animation frames")
	}
	if !strings.Contains(ansi.Strip(modal), "Abandon Run") {
		t.Fatalf("modal missing title: %q", modal)
	}
}

func TestCompactLayoutStacksPanels(t *testing.T) {
	bothOnOneLine := func(s string) bool {
		for _, line := range strings.Split(s, "\n") {
			if strings.Contains(line, "Available Steps") && strings.Contains(line, "Your Sequence") {
				return true
			}
		}
		return false
	}

	v := New(Options{})
	v.SetScreen(ScreenPlaying)
	v.SetSession(testSession())

	v.cols, v.rows = 120, 30
	if !bothOnOneLine(v.renderPlaying()) {
		t.Fatalf("wide layout should render the pools side by side")
	}

	v.cols, v.rows = 80, 24
	if bothOnOneLine(v.renderPlaying()) {
		t.Fatalf("compact layout should stack the pools")
	}
}

func TestDrawPanelStylesTitleIntoTopBorder(t *testing.T) {
	v := New(Options{ASCIIOnly: true})
	panel := v.drawPanel("Results", []string{"line"}, 30, 5)
	lines := strings.Split(ansi.Strip(panel), "\n")
	if !strings.Contains(lines[0], " Results ") {
		t.Fatalf("top border missing title: %q", lines[0])
	}
	for i, line := range lines {
		if got := len([]rune(line)); got != 30 {
			t.Fatalf("line %d width = %d, want 30", i, got)
		}
	}
}

func TestDispatchWithoutControllerLogsDrop(t *testing.T) {
	v := New(Options{})
	var buf bytes.Buffer
	lg := clog.New(&buf)
	lg.SetLevel(clog.DebugLevel)
	v.logger = lg

	v.dispatchController(func(Controller) {})

	if !strings.Contains(buf.String(), "dropping intent") {
		t.Fatalf("expected a debug line for a dropped intent, got %q", buf.String())
	}
}

func TestMenuShowsLastRunOutcome(t *testing.T) {
	v := New(Options{})
	v.SetMenuState(MenuState{
		DomainCount: 2,
		PuzzleCount: 8,
		LastDomain:  "lending",
		LastOutcome: "victory",
		LastScore:   3120,
		Sessions:    4,
	})
	v.cols, v.rows = 110, 30

	out := ansi.Strip(v.renderMenu())
	if !strings.Contains(out, "Last run: victory, score 3120") {
		t.Fatalf("menu missing last run summary")
	}
}
