package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"assistui/chat"
	appmodel "assistui/model"
)

func (a *AppView) openMessageSearch() {
	a.closeAllModals()
	a.showMessageSearch = true
	a.messageSearchInput.SetValue("")
	a.messageSearchInput.Focus()
	a.textarea.Blur()
	a.messageSearchResults = nil
	a.selectedSearchIdx = 0
	a.messageSearchScrollIdx = 0
}

func (a AppView) handleMessageSearchUpdate(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeAllModals()
		return a, nil
	case "up", "alt+k":
		if a.selectedSearchIdx > 0 {
			a.selectedSearchIdx--
		}
		if a.selectedSearchIdx < a.messageSearchScrollIdx {
			a.messageSearchScrollIdx = a.selectedSearchIdx
		}
		return a, nil
	case "down", "alt+j":
		if a.selectedSearchIdx < len(a.messageSearchResults)-1 {
			a.selectedSearchIdx++
		}
		if visible := a.visibleSearchResults(); a.selectedSearchIdx >= a.messageSearchScrollIdx+visible {
			a.messageSearchScrollIdx = a.selectedSearchIdx - visible + 1
		}
		return a, nil
	case "enter":
		if a.selectedSearchIdx < 0 || a.selectedSearchIdx >= len(a.messageSearchResults) {
			return a, nil
		}
		match := a.messageSearchResults[a.selectedSearchIdx]
		a.closeAllModals()
		a.switchTo(match.Channel)

		a.highlightedMessageIdx = match.MessageIndex
		a.highlightFlashCount = 1
		a.scrollToMessage(match.MessageIndex)

		return a, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
			return appmodel.FlashTickMsg{}
		})
	}

	var cmd tea.Cmd
	a.messageSearchInput, cmd = a.messageSearchInput.Update(msg)
	a.messageSearchResults = a.dataModel.SearchMessages(a.messageSearchInput.Value())
	a.selectedSearchIdx = 0
	a.messageSearchScrollIdx = 0
	return a, cmd
}

func (a AppView) visibleSearchResults() int {
	// Border(2) + Padding(2) + Title(1) + Blank(1) + SearchInput(1) + Blank(1) +
	// "Found X matches:"(1) + Blank(1) + Footer(1) + Blank(1) = 12 lines
	fixedOverhead := 12
	scrollIndicatorSpace := 4

	availableLines := a.height - fixedOverhead - scrollIndicatorSpace
	if availableLines < 3 {
		availableLines = 3
	}

	linesPerResult := 3
	maxVisibleResults := availableLines / linesPerResult
	if maxVisibleResults < 1 {
		maxVisibleResults = 1
	}
	return maxVisibleResults
}

func (a AppView) channelTitle(name string) string {
	for _, spec := range a.channels {
		if spec.Name == name {
			return spec.Title
		}
	}
	return name
}

func renderMessageSearch(a AppView, width, height int) string {
	modalWidth := width - 4
	if modalWidth > 100 {
		modalWidth = 100
	}

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2)

	title := TitleStyle.Render("🔍 Search All Channels")
	searchView := a.messageSearchInput.View()
	results := a.messageSearchResults

	resultsView := ""
	if len(results) == 0 {
		if a.messageSearchInput.Value() == "" {
			resultsView = DimStyle.Render("Type to search messages in every channel...")
		} else {
			resultsView = DimStyle.Render("No matches found")
		}
	} else {
		startIdx := a.messageSearchScrollIdx
		endIdx := startIdx + a.visibleSearchResults()
		if endIdx > len(results) {
			endIdx = len(results)
		}

		resultsView = fmt.Sprintf("Found %d matches:\n\n", len(results))

		if startIdx > 0 {
			resultsView += DimStyle.Render(fmt.Sprintf("↑ %d more above\n\n", startIdx))
		}

		for i := startIdx; i < endIdx; i++ {
			match := results[i]

			roleStyle := UserStyle
			if match.Role == chat.RoleAssistant {
				roleStyle = AssistantStyle
			}

			matchText := fmt.Sprintf("%s %s\n  %s",
				roleStyle.Render(a.channelTitle(match.Channel)),
				DimStyle.Render(match.Role),
				match.Preview,
			)

			if i == a.selectedSearchIdx {
				matchText = SelectedStyle.Render("> " + matchText)
			} else {
				matchText = "  " + matchText
			}

			resultsView += matchText + "\n\n"
		}

		if endIdx < len(results) {
			resultsView += DimStyle.Render(fmt.Sprintf("↓ %d more below", len(results)-endIdx))
		}
	}

	footer := FormatFooter("Type", "to search", "↑/↓", "Navigate", "Enter", "Jump", "Esc", "Close")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		searchView,
		"",
		resultsView,
		"",
		footer,
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		modalStyle.Width(modalWidth).Render(content))
}
