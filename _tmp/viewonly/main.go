package main

import (
	"stepdojo/internal/ui"
)

// Dev harness: renders the board with fixture data and no controller,
// for iterating on layout and theme without a catalog or store.
func main() {
	v := ui.New(ui.Options{})
	v.SetSession(ui.SessionState{
		Domain:        "lending",
		DomainTitle:   "Consumer Lending",
		PuzzleTitle:   "Loan Application",
		WinThreshold:  3,
		TimeRemaining: 142,
		TimeBudget:    180,
		Available: []ui.StepRow{
			{ID: "run-credit-check", Title: "Run credit check", Phase: "initiation"},
			{ID: "verify-income", Title: "Verify income", Phase: "execution"},
			{ID: "issue-approval", Title: "Issue approval", Phase: "settlement"},
		},
		Arranged: []ui.StepRow{
			{ID: "collect-application", Title: "Collect application", Phase: "initiation"},
		},
	})
	v.SetScreen(ui.ScreenPlaying)
	_ = v.Run()
}
