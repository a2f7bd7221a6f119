package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	user  lipgloss.Style
	model lipgloss.Style
	tool  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
}

// newStyles renders for w, so colors are dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		user:  r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		model: r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		tool:  r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("214")),
		err:   errorStyle(w),
	}
}

func errorStyle(w io.Writer) lipgloss.Style {
	return lipgloss.NewRenderer(w).NewStyle().Foreground(lipgloss.Color("9"))
}
