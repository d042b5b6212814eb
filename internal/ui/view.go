package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

type boardKeyMap struct {
	Switch key.Binding
	Move   key.Binding
	Select key.Binding
	Menu   key.Binding
	Quit   key.Binding
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Move, k.Switch, k.Menu, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Select, k.Move}, {k.Switch, k.Menu, k.Quit}}
}

type Root struct {
	theme       Theme
	ascii       bool
	debug       bool
	ctrl        Controller
	motionLevel string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	session   SessionState
	menu      MenuState
	domains   []DomainSummary
	overlay   *OverlayState
	completed CompletedState

	statusFlash string

	menuIndex   int
	domainIndex int
	boardFocus  int // 0 = available pool, 1 = arranged sequence
	availIndex  int
	arrIndex    int
	abandonOpen bool
	abandonIdx  int

	help      help.Model
	keymap    boardKeyMap
	countdown progress.Model
	markdown  *glamour.TermRenderer
	logger    *clog.Logger

	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	ThemeVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "stepdojo-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable, descriptions render as plain text", "err", err)
		renderer = nil
	}

	theme := DefaultTheme()
	if opts.ThemeVariant != "" {
		theme = ThemeForVariant(opts.ThemeVariant)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}

	countdown := progress.New(
		progress.WithWidth(28),
		progress.WithColors(lipgloss.Color("#72E8A5"), lipgloss.Color("#F5CE6C"), lipgloss.Color("#FF7A8A")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		countdown.SetSpringOptions(1000.0, 1.0)
	}

	r := &Root{
		theme:       theme,
		ascii:       opts.ASCIIOnly,
		debug:       opts.Debug,
		motionLevel: motionLevel,
		screen:      ScreenMenu,
		layout:      LayoutWide,
		cols:        110,
		rows:        30,
		help:        h,
		countdown:   countdown,
		markdown:    renderer,
		logger:      logger,
		spring:      spring,
	}
	r.keymap = boardKeyMap{
		Switch: key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "Switch panel")),
		Move:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Move step")),
		Select: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "Select")),
		Menu:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Abandon")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	return r
}

func normalizeMotionLevel(level string) string {
	switch level {
	case "off", "reduced", "full":
		return level
	}
	return "full"
}

func (r *Root) Init() tea.Cmd {
	return nil
}

func (r *Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case animateMsg:
		target := 0.0
		if r.modalActive() {
			target = 1.0
		}
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() tea.View {
	if r.cols < 1 {
		r.cols = 110
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch r.screen {
	case ScreenMenu:
		base = r.renderMenu()
	case ScreenDomainSelect:
		base = r.renderDomainSelect()
	case ScreenCompleted:
		base = r.renderCompleted()
	default:
		base = r.renderPlaying()
	}

	if modal := r.renderModal(); modal != "" {
		base = composeOverlay(base, modal, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()
	if err != nil {
		r.logger.Error("ui loop terminated", "err", err)
	}

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.abandonOpen = false
		if screen == ScreenPlaying {
			m.boardFocus = 0
			m.availIndex = 0
			m.arrIndex = 0
		}
	})
}

func (r *Root) SetMenuState(state MenuState) {
	r.apply(func(m *Root) {
		m.menu = state
	})
}

func (r *Root) SetDomains(domains []DomainSummary) {
	r.apply(func(m *Root) {
		m.domains = append([]DomainSummary(nil), domains...)
		if m.domainIndex >= len(m.domains) {
			m.domainIndex = 0
		}
	})
}

func (r *Root) SetSession(s SessionState) {
	r.apply(func(m *Root) {
		m.session = s
		if m.availIndex >= len(s.Available) {
			m.availIndex = maxInt(0, len(s.Available)-1)
		}
		if m.arrIndex >= len(s.Arranged) {
			m.arrIndex = maxInt(0, len(s.Arranged)-1)
		}
	})
}

func (r *Root) SetOverlay(state *OverlayState) {
	r.apply(func(m *Root) {
		m.overlay = state
		if m.motionLevel == "off" {
			if state != nil {
				m.overlayPos = 1
			} else {
				m.overlayPos = 0
			}
			m.overlayVel = 0
		}
	})
}

func (r *Root) SetCompleted(state CompletedState) {
	r.apply(func(m *Root) {
		m.completed = state
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil {
		return
	}
	if r.ctrl == nil {
		r.logger.Debug("no controller attached, dropping intent", "screen", int(r.screen))
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+q"))) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	// Engine overlays are non-interactive; they dismiss themselves.
	if r.overlay != nil {
		return r, nil
	}
	if r.abandonOpen {
		return r.handleAbandonKey(msg)
	}

	switch r.screen {
	case ScreenMenu:
		return r.handleMenuKey(msg)
	case ScreenDomainSelect:
		return r.handleDomainSelectKey(msg)
	case ScreenCompleted:
		return r.handleCompletedKey(msg)
	default:
		return r.handlePlayingKey(msg)
	}
}

func (r *Root) handleMenuKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := r.menuItems()
	switch msg.Code {
	case tea.KeyUp:
		r.menuIndex = wrapIndex(r.menuIndex-1, len(items))
	case tea.KeyDown, tea.KeyTab:
		r.menuIndex = wrapIndex(r.menuIndex+1, len(items))
	case tea.KeyEnter:
		r.activateMenuSelection()
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
	return r, nil
}

func (r *Root) handleDomainSelectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnReturnToMenu() })
	case tea.KeyUp:
		r.domainIndex = wrapIndex(r.domainIndex-1, len(r.domains))
		r.notifyDomainSelection()
	case tea.KeyDown, tea.KeyTab:
		r.domainIndex = wrapIndex(r.domainIndex+1, len(r.domains))
		r.notifyDomainSelection()
	case tea.KeyEnter:
		if len(r.domains) == 0 {
			return r, nil
		}
		name := r.domains[wrapIndex(r.domainIndex, len(r.domains))].Name
		r.dispatchController(func(c Controller) { c.OnStartSession(name) })
	}
	return r, nil
}

func (r *Root) handlePlayingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc:
		r.abandonOpen = true
		r.abandonIdx = 0
		return r, r.animateIfNeeded()
	case tea.KeyTab, tea.KeyLeft, tea.KeyRight:
		r.boardFocus = 1 - r.boardFocus
	case tea.KeyUp:
		r.moveSelection(-1)
	case tea.KeyDown:
		r.moveSelection(1)
	case tea.KeyEnter:
		r.moveFocusedStep()
	}
	return r, nil
}

func (r *Root) handleCompletedKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEnter:
		r.dispatchController(func(c Controller) { c.OnPlayAgain() })
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnReturnToMenu() })
	}
	return r, nil
}

func (r *Root) handleAbandonKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyLeft, tea.KeyUp:
		r.abandonIdx = 0
	case tea.KeyRight, tea.KeyDown, tea.KeyTab:
		r.abandonIdx = 1
	case tea.KeyEsc:
		r.abandonOpen = false
	case tea.KeyEnter:
		confirmed := r.abandonIdx == 1
		r.abandonOpen = false
		if confirmed {
			r.dispatchController(func(c Controller) { c.OnReturnToMenu() })
		}
	}
	return r, r.animateIfNeeded()
}

func (r *Root) moveSelection(delta int) {
	if r.boardFocus == 0 {
		r.availIndex = wrapIndex(r.availIndex+delta, len(r.session.Available))
	} else {
		r.arrIndex = wrapIndex(r.arrIndex+delta, len(r.session.Arranged))
	}
}

func (r *Root) moveFocusedStep() {
	if r.boardFocus == 0 {
		if len(r.session.Available) == 0 {
			return
		}
		step := r.session.Available[wrapIndex(r.availIndex, len(r.session.Available))]
		r.dispatchController(func(c Controller) { c.OnMoveStep(step.ID, true) })
		return
	}
	if len(r.session.Arranged) == 0 {
		return
	}
	step := r.session.Arranged[wrapIndex(r.arrIndex, len(r.session.Arranged))]
	r.dispatchController(func(c Controller) { c.OnMoveStep(step.ID, false) })
}

func (r *Root) notifyDomainSelection() {
	if len(r.domains) == 0 {
		return
	}
	name := r.domains[wrapIndex(r.domainIndex, len(r.domains))].Name
	r.dispatchController(func(c Controller) { c.OnSelectDomain(name) })
}

type menuItem struct {
	Label  string
	Action string
}

func (r *Root) menuItems() []menuItem {
	items := make([]menuItem, 0, 3)
	if r.menu.LastDomain != "" {
		items = append(items, menuItem{Label: "Play " + r.menu.LastDomain, Action: "play_last"})
	}
	items = append(items,
		menuItem{Label: "Choose domain", Action: "select"},
		menuItem{Label: "Quit", Action: "quit"},
	)
	return items
}

func (r *Root) activateMenuSelection() {
	items := r.menuItems()
	if len(items) == 0 {
		return
	}
	switch items[wrapIndex(r.menuIndex, len(items))].Action {
	case "play_last":
		last := r.menu.LastDomain
		r.dispatchController(func(c Controller) { c.OnStartSession(last) })
	case "select":
		r.dispatchController(func(c Controller) { c.OnOpenDomainSelect() })
	case "quit":
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) renderMenu() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(maxInt(1, w)).Render("Step Dojo")

	items := r.menuItems()
	menuLines := make([]string, len(items))
	for i, item := range items {
		prefix := "  "
		if i == wrapIndex(r.menuIndex, len(items)) {
			prefix = "> "
		}
		menuLines[i] = prefix + item.Label
	}
	left := r.drawPanel("Menu", menuLines, minInt(34, maxInt(22, w/3)), maxInt(8, h-2))
	right := r.drawPanel("Overview", strings.Split(strings.TrimSuffix(r.menuInfoText(items), "\n"), "\n"), maxInt(20, w-lipgloss.Width(left)), maxInt(8, h-2))
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (r *Root) menuInfoText(items []menuItem) string {
	action := "Use Enter to select an option."
	if len(items) > 0 {
		switch items[wrapIndex(r.menuIndex, len(items))].Action {
		case "play_last":
			action = "Start a run in the domain you played last."
		case "select":
			action = "Browse the workflow domains."
		case "quit":
			action = "Exit Step Dojo."
		}
	}
	var b strings.Builder
	b.WriteString("Rebuild business workflows step by step,\nagainst the clock.\n\n")
	b.WriteString(fmt.Sprintf("Domains: %d  Puzzles: %d\n", r.menu.DomainCount, r.menu.PuzzleCount))
	if r.menu.Sessions > 0 {
		b.WriteString(fmt.Sprintf("Sessions: %d  Victories: %d\n", r.menu.Sessions, r.menu.Victories))
		b.WriteString(fmt.Sprintf("Solves: %d  Best score: %d\n", r.menu.TotalSolves, r.menu.BestScore))
	}
	if r.menu.LastDomain != "" {
		b.WriteString("Last played: " + r.menu.LastDomain + "\n")
	}
	if r.menu.LastOutcome != "" {
		b.WriteString(fmt.Sprintf("Last run: %s, score %d\n", r.menu.LastOutcome, r.menu.LastScore))
	}
	if strings.TrimSpace(r.menu.Tip) != "" {
		b.WriteString("\nTip:\n" + r.menu.Tip + "\n")
	}
	b.WriteString("\nAction:\n" + action + "\n")
	return b.String()
}

func (r *Root) renderDomainSelect() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(maxInt(1, w)).Render("Step Dojo - Domains")

	lines := make([]string, len(r.domains))
	for i, d := range r.domains {
		prefix := "  "
		if i == wrapIndex(r.domainIndex, len(r.domains)) {
			prefix = "> "
		}
		lines[i] = fmt.Sprintf("%s%s (%d)", prefix, d.Title, d.PuzzleCount)
	}
	if len(lines) == 0 {
		lines = []string{"No domains loaded."}
	}
	left := r.drawPanel("Domains", lines, minInt(40, maxInt(24, w/3)), maxInt(8, h-2))
	right := r.drawPanel("Details", strings.Split(strings.TrimSuffix(r.domainDetailText(), "\n"), "\n"), maxInt(22, w-lipgloss.Width(left)), maxInt(8, h-2))
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (r *Root) domainDetailText() string {
	if len(r.domains) == 0 {
		return "Add domain YAML files to the catalog directory."
	}
	d := r.domains[wrapIndex(r.domainIndex, len(r.domains))]
	var b strings.Builder
	b.WriteString(d.Title + "\n")
	b.WriteString(fmt.Sprintf("Puzzles: %d\n", d.PuzzleCount))
	if len(d.Stages) > 0 {
		b.WriteString("\nStages:\n")
		for _, st := range d.Stages {
			b.WriteString(fmt.Sprintf("- %s (%d)\n", st.Title, st.Puzzles))
		}
	}
	if strings.TrimSpace(d.DescriptionMD) != "" {
		desc := strings.TrimSpace(d.DescriptionMD)
		if r.markdown != nil {
			if rendered, err := r.markdown.Render(desc); err == nil {
				desc = strings.TrimSpace(rendered)
			}
		}
		b.WriteString("\n" + desc + "\n")
	}
	b.WriteString("\nEnter: Start run    Esc: Back to menu")
	return b.String()
}

func (r *Root) renderPlaying() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	if mode == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			"Minimum: 72x20",
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, minInt(56, w), minInt(10, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	header := r.headerText()
	clock := r.clockLine()
	status := r.statusText()
	bodyH := maxInt(3, h-3)

	avail := r.stepLines(r.session.Available, r.boardFocus == 0, r.availIndex)
	arranged := r.stepLines(r.session.Arranged, r.boardFocus == 1, r.arrIndex)
	if len(avail) == 0 {
		avail = []string{"(all steps placed)"}
	}
	if len(arranged) == 0 {
		arranged = []string{"(empty - build the sequence here)"}
	}

	leftTitle := "Available Steps"
	rightTitle := "Your Sequence"
	if r.boardFocus == 0 {
		leftTitle += " *"
	} else {
		rightTitle += " *"
	}

	// Wide terminals get the pools side by side; compact ones stack
	// them so each row keeps enough room for step titles.
	var body string
	if mode == LayoutCompact {
		topH := maxInt(3, bodyH/2)
		left := r.drawPanel(leftTitle, avail, w, topH)
		right := r.drawPanel(rightTitle, arranged, w, maxInt(3, bodyH-topH))
		body = lipgloss.JoinVertical(lipgloss.Left, left, right)
	} else {
		half := maxInt(20, w/2)
		left := r.drawPanel(leftTitle, avail, half, bodyH)
		right := r.drawPanel(rightTitle, arranged, maxInt(20, w-half), bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return header + "\n" + clock + "\n" + body + "\n" + status
}

func (r *Root) stepLines(steps []StepRow, focused bool, index int) []string {
	lines := make([]string, 0, len(steps))
	for i, s := range steps {
		prefix := "  "
		if focused && i == wrapIndex(index, len(steps)) {
			prefix = "> "
		}
		tag := r.phaseTag(s.Phase)
		lines = append(lines, fmt.Sprintf("%s%2d. %s%s", prefix, i+1, s.Title, tag))
		if s.Description != "" && focused && i == wrapIndex(index, len(steps)) {
			lines = append(lines, "      "+r.theme.Muted.Render(trimForWidth(s.Description, maxInt(10, r.cols/2-10))))
		}
	}
	return lines
}

func (r *Root) phaseTag(phase string) string {
	switch phase {
	case "initiation":
		return " " + r.theme.Initiation.Render("[init]")
	case "execution":
		return " " + r.theme.Execution.Render("[exec]")
	case "settlement":
		return " " + r.theme.Settlement.Render("[settle]")
	}
	return ""
}

func (r *Root) renderCompleted() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(maxInt(1, w)).Render("Step Dojo - Run Complete")
	lines := []string{
		r.theme.Good.Render("Victory!"),
		"",
		fmt.Sprintf("Domain: %s", firstNonEmptyStr(r.completed.DomainTitle, r.session.DomainTitle)),
		fmt.Sprintf("Puzzles solved: %d", r.completed.Solved),
		fmt.Sprintf("Final score: %d", r.completed.Score),
		"",
		"Enter: Play again    Esc: Menu    Ctrl+Q: Quit",
	}
	panel := r.drawPanel("Results", lines, minInt(56, w), minInt(12, h-1))
	return header + "\n" + lipgloss.Place(w, maxInt(1, h-1), lipgloss.Center, lipgloss.Center, panel)
}

func (r *Root) renderModal() string {
	if r.overlay != nil {
		title := r.overlay.Title
		lines := strings.Split(strings.TrimSuffix(r.overlay.Text, "\n"), "\n")
		w, h, visible := r.modalSize(minInt(maxInt(48, r.cols/2), r.cols), maxInt(5, len(lines)+4))
		if !visible {
			return ""
		}
		banner := r.overlayBanner(r.overlay.Kind)
		body := append([]string{banner, ""}, lines...)
		return r.drawPanel(title, body, w, h)
	}
	if r.abandonOpen {
		lines := []string{"Abandon this run and return to the menu?", ""}
		labels := []string{"Keep playing", "Abandon"}
		for i, label := range labels {
			prefix := "  "
			if i == r.abandonIdx {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
		w, h, visible := r.modalSize(minInt(52, r.cols), 7)
		if !visible {
			return ""
		}
		return r.drawPanel("Abandon Run", lines, w, h)
	}
	return ""
}

// modalSize scales the target panel dimensions by the overlay spring
// position so the modal grows in instead of popping. With motion off
// the spring is bypassed and the modal renders at full size at once.
func (r *Root) modalSize(w, h int) (int, int, bool) {
	if r.motionLevel == "off" {
		return w, h, true
	}
	pos := r.overlayPos
	if pos >= 0.999 {
		return w, h, true
	}
	if pos <= 0.01 {
		return 0, 0, false
	}
	return maxInt(6, int(float64(w)*pos)), maxInt(3, int(float64(h)*pos)), true
}

func (r *Root) overlayBanner(kind string) string {
	switch kind {
	case "success":
		return r.theme.Good.Render("CORRECT")
	case "victory":
		return r.theme.Good.Render("VICTORY")
	case "fail":
		return r.theme.Bad.Render("WRONG ORDER")
	case "timeout":
		return r.theme.Bad.Render("TIME OUT")
	case "exhausted":
		return r.theme.Accent.Render("DOMAIN CLEARED")
	}
	return ""
}

func (r *Root) headerText() string {
	width := maxInt(1, r.cols-1)
	parts := []string{"Step Dojo"}
	if r.session.DomainTitle != "" {
		parts = append(parts, r.session.DomainTitle)
	}
	if r.session.PuzzleTitle != "" {
		parts = append(parts, r.session.PuzzleTitle)
	}
	parts = append(parts,
		fmt.Sprintf("Score %d", r.session.Score),
		fmt.Sprintf("Solved %d/%d", r.session.CompletedCount, r.session.WinThreshold),
	)
	txt := trimForWidth(strings.Join(parts, " | "), width)
	if r.debug {
		txt = trimForWidth(fmt.Sprintf("%s | %dx%d", txt, r.cols, r.rows), width)
	}
	return r.theme.Header.Width(maxInt(1, r.cols)).Render(txt)
}

func (r *Root) clockLine() string {
	budget := r.session.TimeBudget
	if budget <= 0 {
		budget = 1
	}
	frac := float64(r.session.TimeRemaining) / float64(budget)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	bar := r.countdown
	bar.SetWidth(maxInt(12, minInt(40, r.cols/3)))
	label := fmt.Sprintf(" %d:%02d", r.session.TimeRemaining/60, r.session.TimeRemaining%60)
	style := r.theme.PanelBody
	if r.session.TimeRemaining <= 15 {
		style = r.theme.Bad
	} else if r.session.TimeRemaining <= 45 {
		style = r.theme.Pending
	}
	return "  " + bar.ViewAs(frac) + style.Render(label)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "↑/↓ Select  Enter Move  Tab Switch panel  Esc Abandon  Ctrl+Q Quit"
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, maxInt(1, r.cols-1))
	return r.theme.Status.Width(maxInt(1, r.cols)).Render(keys)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = maxInt(4, width)
	height = maxInt(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := r.theme.PanelBorder.Render(tl + strings.Repeat(h, innerW) + tr)
	if title != "" && innerW > 2 {
		t := []rune(" " + title + " ")
		if len(t) > innerW-1 {
			t = t[:innerW-1]
		}
		rest := strings.Repeat(h, innerW-len(t)-1) + tr
		top = r.theme.PanelBorder.Render(tl+h) + r.theme.PanelTitle.Render(string(t)) + r.theme.PanelBorder.Render(rest)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) modalActive() bool {
	return r.overlay != nil || r.abandonOpen
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.modalActive() {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || absFloat(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || absFloat(r.overlayVel) > 0.001
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		if lw := len([]rune(line)); lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	oh := len(overlayLines)
	if oh > rows {
		oh = rows
	}
	startRow := (rows - oh) / 2
	startCol := (cols - ow) / 2
	if startCol < 0 {
		startCol = 0
	}

	for i := 0; i < oh; i++ {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		line := []rune(baseLines[row])
		over := []rune(padRune(overlayLines[i], ow))
		for j := 0; j < len(over) && startCol+j < len(line); j++ {
			line[startCol+j] = over[j]
		}
		baseLines[row] = string(line)
	}
	return strings.Join(baseLines[:rows], "\n")
}
