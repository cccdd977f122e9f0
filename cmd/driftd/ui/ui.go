package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"driftd/internal/drift"
	"driftd/internal/reconcile"
)

// Colors carry reconciliation state: green is converged, yellow is drift
// or work in progress, red is a failure.
var (
	colorSynced  = lipgloss.Color("76")
	colorDrift   = lipgloss.Color("214")
	colorFailed  = lipgloss.Color("204")
	colorPending = lipgloss.Color("99")
	colorMuted   = lipgloss.Color("243")
	colorBorder  = lipgloss.Color("238")
)

var (
	syncedStyle  = lipgloss.NewStyle().Foreground(colorSynced)
	driftStyle   = lipgloss.NewStyle().Foreground(colorDrift)
	failedStyle  = lipgloss.NewStyle().Foreground(colorFailed)
	pendingStyle = lipgloss.NewStyle().Foreground(colorPending)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	subjectStyle = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPending).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// Message helpers return single lines without a trailing newline.

func SuccessMsg(format string, a ...any) string {
	return syncedStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func WarnMsg(format string, a ...any) string {
	return driftStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func ErrorMsg(format string, a ...any) string {
	return failedStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func InfoMsg(format string, a ...any) string {
	return pendingStyle.Render("●") + " " + fmt.Sprintf(format, a...)
}

// Phase renders a cycle phase: converged in green, remediating in yellow,
// detecting (no action taken) muted.
func Phase(p reconcile.Phase) string {
	switch p {
	case reconcile.PhaseConverged:
		return syncedStyle.Render(p.String())
	case reconcile.PhaseRemediating:
		return driftStyle.Render(p.String())
	default:
		return mutedStyle.Render(p.String())
	}
}

// Dimension renders the "(dimension)" tag after a drift reason. Missing
// containers, volumes and networks are shown as failures; differing
// configuration as drift.
func Dimension(d drift.Dimension) string {
	tag := "(" + d.String() + ")"
	switch d {
	case drift.DimensionContainer, drift.DimensionVolume, drift.DimensionNetwork:
		return failedStyle.Render(tag)
	default:
		return driftStyle.Render(tag)
	}
}

func subject(name string) string {
	return subjectStyle.Render(name)
}

// Pair holds a key-value pair for KeyValues output.
type Pair struct {
	key   string
	value string
}

func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

// KeyValues renders aligned "key:  value" lines with a trailing newline.
func KeyValues(indent string, pairs ...Pair) string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p.key)+1)
	}

	var sb strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", width, p.key+":")
		sb.WriteString(indent + mutedStyle.Render(label) + " " + p.value + "\n")
	}
	return sb.String()
}

// historyTable lays out history rows under a bold header. Cells arrive
// already styled by state, so the table only adds borders and padding.
func historyTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}
