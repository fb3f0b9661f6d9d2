package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

func formatUnpaid(email, scope string, totals []models.UnpaidTotal) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Unpaid time for %s (%s)", email, scope)))
	b.WriteString("\n")

	if len(totals) == 0 {
		b.WriteString(mutedStyle.Render("Nothing unpaid"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %10s %14s", "CURRENCY", "HOURS", "AMOUNT")))
	b.WriteString("\n")
	for _, t := range totals {
		fmt.Fprintf(&b, "%-8s %10.2f %14.2f\n", t.Currency, t.Hours, t.Amount)
	}
	return b.String()
}
