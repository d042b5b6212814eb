package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header      lipgloss.Style
	Status      lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	Accent      lipgloss.Style
	Good        lipgloss.Style
	Bad         lipgloss.Style
	Pending     lipgloss.Style
	Muted       lipgloss.Style
	Initiation  lipgloss.Style
	Execution   lipgloss.Style
	Settlement  lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("boardroom")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "paper":
		return paperTheme()
	case "terminal_green":
		return terminalGreenTheme()
	default:
		return boardroomTheme()
	}
}

func boardroomTheme() Theme {
	ink := lipgloss.Color("#101826")
	slate := lipgloss.Color("#1E2B45")
	powder := lipgloss.Color("#E9F1FF")
	cyan := lipgloss.Color("#5FD6F5")
	mint := lipgloss.Color("#72E8A5")
	coral := lipgloss.Color("#FF7A8A")
	gold := lipgloss.Color("#F5CE6C")
	border := lipgloss.Color("#46598C")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(powder).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(slate).Foreground(powder).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(cyan).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(border),
		PanelBody:   lipgloss.NewStyle().Foreground(powder),
		Accent:      lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Good:        lipgloss.NewStyle().Foreground(mint).Bold(true),
		Bad:         lipgloss.NewStyle().Foreground(coral).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(gold),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#93A3C4")),
		Initiation:  lipgloss.NewStyle().Foreground(cyan),
		Execution:   lipgloss.NewStyle().Foreground(gold),
		Settlement:  lipgloss.NewStyle().Foreground(mint),
	}
}

func paperTheme() Theme {
	night := lipgloss.Color("#222733")
	shelf := lipgloss.Color("#343D4F")
	paper := lipgloss.Color("#F5F3EC")
	honey := lipgloss.Color("#E8B567")
	sage := lipgloss.Color("#8CC7A1")
	rose := lipgloss.Color("#D4808E")
	sky := lipgloss.Color("#8FB8F0")

	return Theme{
		Header:      lipgloss.NewStyle().Background(night).Foreground(paper).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(shelf).Foreground(paper).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(honey).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(shelf),
		PanelBody:   lipgloss.NewStyle().Foreground(paper),
		Accent:      lipgloss.NewStyle().Foreground(sky).Bold(true),
		Good:        lipgloss.NewStyle().Foreground(sage).Bold(true),
		Bad:         lipgloss.NewStyle().Foreground(rose).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(honey),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#A8AFBF")),
		Initiation:  lipgloss.NewStyle().Foreground(sky),
		Execution:   lipgloss.NewStyle().Foreground(honey),
		Settlement:  lipgloss.NewStyle().Foreground(sage),
	}
}

func terminalGreenTheme() Theme {
	deep := lipgloss.Color("#06140A")
	forest := lipgloss.Color("#123120")
	glow := lipgloss.Color("#C8F7C8")
	lime := lipgloss.Color("#97F59E")
	amber := lipgloss.Color("#E3D279")
	red := lipgloss.Color("#FF6D6D")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(forest),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		Accent:      lipgloss.NewStyle().Foreground(lime).Bold(true),
		Good:        lipgloss.NewStyle().Foreground(lime).Bold(true),
		Bad:         lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:     lipgloss.NewStyle().Foreground(amber),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6FA378")),
		Initiation:  lipgloss.NewStyle().Foreground(lime),
		Execution:   lipgloss.NewStyle().Foreground(amber),
		Settlement:  lipgloss.NewStyle().Foreground(glow),
	}
}
