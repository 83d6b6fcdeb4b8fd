package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"assistui/chat"
	"assistui/views"
)

// pickerItem is one row of the quick-action picker. Exactly one of prompt
// or project is set.
type pickerItem struct {
	label   string
	prompt  string
	send    bool
	project string
}

type pickerSource []pickerItem

func (s pickerSource) String(i int) string { return s[i].label }
func (s pickerSource) Len() int            { return len(s) }

// pickerItems lists the canned prompts of the active tab followed by the
// backend-provided extras (project details, To-Do examples).
func (a AppView) pickerItems(query string) []pickerItem {
	channel := a.channel()

	var items []pickerItem
	for _, qa := range views.FilterQuickActions(channel, query) {
		items = append(items, pickerItem{label: qa.Label, prompt: qa.Prompt, send: qa.Send})
	}

	var extras []pickerItem
	switch channel {
	case chat.ChannelProject:
		for _, p := range a.dataModel.Projects {
			extras = append(extras, pickerItem{label: "detail: " + p, project: p})
		}
	case chat.ChannelTodo:
		for _, e := range a.dataModel.TodoExamples {
			extras = append(extras, pickerItem{label: "contoh: " + e, prompt: e})
		}
	}

	if query == "" {
		return append(items, extras...)
	}
	for _, m := range fuzzy.FindFrom(query, pickerSource(extras)) {
		items = append(items, extras[m.Index])
	}
	return items
}

func (a *AppView) openQuickActions() {
	a.closeAllModals()
	a.showQuickActions = true
	a.quickActionInput.SetValue("")
	a.quickActionInput.Focus()
	a.textarea.Blur()
	a.quickActionItems = a.pickerItems("")
	a.selectedActionIdx = 0
}

func (a AppView) handleQuickActionsUpdate(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeAllModals()
		return a, nil
	case "up", "alt+k":
		if a.selectedActionIdx > 0 {
			a.selectedActionIdx--
		}
		return a, nil
	case "down", "alt+j":
		if a.selectedActionIdx < len(a.quickActionItems)-1 {
			a.selectedActionIdx++
		}
		return a, nil
	case "enter":
		if a.selectedActionIdx < 0 || a.selectedActionIdx >= len(a.quickActionItems) {
			return a, nil
		}
		item := a.quickActionItems[a.selectedActionIdx]
		a.closeAllModals()
		return a.runPickerItem(item)
	}

	var cmd tea.Cmd
	a.quickActionInput, cmd = a.quickActionInput.Update(msg)
	a.quickActionItems = a.pickerItems(a.quickActionInput.Value())
	a.selectedActionIdx = 0
	return a, cmd
}

func (a AppView) runPickerItem(item pickerItem) (AppView, tea.Cmd) {
	switch {
	case item.project != "":
		a.showProjectDetail = true
		a.projectDetailName = item.project
		a.projectDetail = ""
		a.projectDetailErr = nil
		a.projectDetailLoading = true
		return a, tea.Batch(a.dataModel.FetchProjectDetail(a.ctx, item.project), a.loadingSpinner.Tick)
	case item.send:
		return a.send(item.prompt)
	default:
		a.textarea.SetValue(item.prompt)
		a.textarea.CursorEnd()
		return a, nil
	}
}

func (a AppView) renderQuickActions(width, height int) string {
	modalWidth := fitWidth(80, width)

	var lines []string
	lines = append(lines, a.quickActionInput.View(), "")

	if len(a.quickActionItems) == 0 {
		if a.quickActionInput.Value() == "" {
			lines = append(lines, centeredNotice("No quick actions for "+a.channels[a.active].Title, modalWidth))
		} else {
			lines = append(lines, centeredNotice("No matches found", modalWidth))
		}
	}

	maxVisible := height - 14
	if maxVisible < 3 {
		maxVisible = 3
	}
	start := 0
	if a.selectedActionIdx >= maxVisible {
		start = a.selectedActionIdx - maxVisible + 1
	}
	end := start + maxVisible
	if end > len(a.quickActionItems) {
		end = len(a.quickActionItems)
	}

	for i := start; i < end; i++ {
		item := a.quickActionItems[i]
		label := runewidth.Truncate(item.label, modalWidth-6, "...")
		if i == a.selectedActionIdx {
			lines = append(lines, SelectedStyle.Render("> "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	if end < len(a.quickActionItems) {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("↓ %d more below", len(a.quickActionItems)-end)))
	}

	if a.channel() == chat.ChannelTodo && a.dataModel.TodoSuggestions != "" {
		suggestion := lipgloss.NewStyle().Width(modalWidth).Render(a.dataModel.TodoSuggestions)
		lines = append(lines, "", AssistantStyle.Render("Saran:"), DimStyle.Render(suggestion))
	}

	return RenderThreeSectionModal(
		"⚡ Quick Actions - "+a.channels[a.active].Title,
		lines,
		FormatFooter("Type", "to filter", "↑/↓", "Navigate", "Enter", "Run", "Esc", "Close"),
		ModalTypeInfo,
		80,
		width,
		height,
	)
}
