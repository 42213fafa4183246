package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo/internal/notice"
	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/store"
)

const (
	appTitle      = "Todo List"
	loadingText   = "Loading..."
	addButton     = "[Add]"
	deleteMarker  = "✕"
	cursorMarker  = ">"
	helpInputText = "enter add • tab list • esc dismiss • ctrl+c quit"
	helpListText  = "space toggle • d delete • r reload • j/k move • tab input • esc dismiss • q quit"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	buttonStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	openStyle    = lipgloss.NewStyle()
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	deleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	successBanner = lipgloss.NewStyle().Padding(0, 1).
			Foreground(lipgloss.Color("230")).Background(lipgloss.Color("28"))
	errorBanner = lipgloss.NewStyle().Padding(0, 1).
			Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160"))
)

// frame is everything render needs besides the store snapshot.
type frame struct {
	input       string
	cursor      int
	listFocused bool
	loaded      bool
}

func (m Model) View() string {
	return render(m.state, frame{
		input:       m.input.View(),
		cursor:      m.cursor,
		listFocused: m.focus == focusList,
		loaded:      m.loaded,
	})
}

// render draws the whole screen from a snapshot.
func render(s store.State, f frame) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(appTitle))
	b.WriteString("\n")
	b.WriteString(summaryStyle.Render(output.Summary(s.CompletedCount(), len(s.Tasks))))
	b.WriteString("\n\n")

	b.WriteString(f.input)
	b.WriteString("  ")
	b.WriteString(buttonStyle.Render(addButton))
	b.WriteString("\n\n")

	switch {
	case !f.loaded || s.Loading:
		b.WriteString(emptyStyle.Render(loadingText))
		b.WriteString("\n")
	case s.Empty():
		b.WriteString(emptyStyle.Render(output.EmptyMessage))
		b.WriteString("\n")
	default:
		for i, t := range s.Tasks {
			b.WriteString(renderRow(t, f.listFocused && i == f.cursor))
			b.WriteString("\n")
		}
	}

	if s.Notice != nil {
		b.WriteString("\n")
		b.WriteString(renderNotice(*s.Notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if f.listFocused {
		b.WriteString(helpStyle.Render(helpListText))
	} else {
		b.WriteString(helpStyle.Render(helpInputText))
	}
	b.WriteString("\n")
	return b.String()
}

func renderRow(t service.Task, selected bool) string {
	prefix := " "
	if selected {
		prefix = cursorStyle.Render(cursorMarker)
	}
	title := rowStyle(t.Completed).Render(output.NormalizeTitle(t.Title))
	return prefix + " " + output.Checkbox(t.Completed) + " " + title + "  " + deleteStyle.Render(deleteMarker)
}

// rowStyle strikes through completed titles.
func rowStyle(completed bool) lipgloss.Style {
	if completed {
		return doneStyle
	}
	return openStyle
}

func renderNotice(n notice.Notice) string {
	if n.Severity == notice.Error {
		return errorBanner.Render(n.Message)
	}
	return successBanner.Render(n.Message)
}
