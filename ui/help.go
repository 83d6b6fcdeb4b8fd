package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.kb()

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("AssistUI - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	globalActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global Actions"),
		fmt.Sprintf("• %-13s Next tab", kb.DisplayActionKey("next_tab")),
		fmt.Sprintf("• %-13s Previous tab", kb.DisplayActionKey("prev_tab")),
		fmt.Sprintf("• %-13s RAG Chat", kb.DisplayActionKey("tab_rag")),
		fmt.Sprintf("• %-13s Project", kb.DisplayActionKey("tab_project")),
		fmt.Sprintf("• %-13s To-Do", kb.DisplayActionKey("tab_todo")),
		fmt.Sprintf("• %-13s Search all channels", kb.DisplayActionKey("search")),
		fmt.Sprintf("• %-13s Toggle this help", kb.DisplayActionKey("help")),
		fmt.Sprintf("• %-13s Quit", kb.DisplayActionKey("quit")),
	)

	chatActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Actions"),
		fmt.Sprintf("• %-13s Send message", kb.DisplayActionKey("send")),
		fmt.Sprintf("• %-13s New line", kb.DisplayActionKey("newline")),
		fmt.Sprintf("• %-13s Quick actions", kb.DisplayActionKey("quick_actions")),
		fmt.Sprintf("• %-13s Copy last answer", kb.DisplayActionKey("yank_answer")),
		fmt.Sprintf("• %-13s Reset channel", kb.DisplayActionKey("reset_channel")),
		fmt.Sprintf("• %-13s Export channel", kb.DisplayActionKey("export")),
		fmt.Sprintf("• %-13s Scroll up", kb.DisplayActionKey("scroll_up")),
		fmt.Sprintf("• %-13s Scroll down", kb.DisplayActionKey("scroll_down")),
	)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(globalActions),
		"  ",
		columnStyle.Render(chatActions),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2).
		Width(96)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
