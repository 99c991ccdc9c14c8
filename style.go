package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/voicevox-ue/vvstage/internal/report"
)

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render
)

// reportStyles returns the report styles for stdout.
func reportStyles() report.Styles {
	return report.NewStyles(!envCfg.NoColor && report.IsTTY(os.Stdout))
}
