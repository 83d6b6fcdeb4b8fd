package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"assistui/backend"
	"assistui/chat"
	"assistui/render"
)

func (a AppView) mainWidth() int {
	w := a.width - sidebarWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

// layout sizes the viewport and textarea to the current window
func (a *AppView) layout() {
	a.viewport.Width = a.mainWidth()
	a.viewport.Height = a.height - chromeHeight
	if a.viewport.Height < 1 {
		a.viewport.Height = 1
	}
	a.textarea.SetWidth(a.mainWidth())
}

func (a AppView) renderTitle() string {
	title := AssistantStyle.Render("AssistUI")
	title += TitleStyle.Render(" - " + a.channels[a.active].Title)
	if a.dataModel.Pending(a.channel()) {
		title += " " + a.loadingSpinner.View()
	}
	return title
}

func (a AppView) renderSidebar() string {
	var lines []string
	lines = append(lines, TitleStyle.Render(" Channels"), "")

	for i, spec := range a.channels {
		label := runewidth.Truncate(spec.Title, sidebarWidth-4, "…")
		marker := "  "
		if a.dataModel.Pending(spec.Name) {
			marker = "• "
		}
		if i == a.active {
			lines = append(lines, ActiveTabStyle.Render(marker+label))
		} else {
			lines = append(lines, TabStyle.Render(marker+label))
		}
	}

	height := a.height
	if height < len(lines) {
		height = len(lines)
	}
	return SidebarStyle.
		Width(sidebarWidth).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

// renderTabHeader shows backend-provided context for the active tab
func (a AppView) renderTabHeader() string {
	width := a.mainWidth()
	var line string

	switch a.channel() {
	case chat.ChannelProject:
		switch {
		case a.dataModel.ProjectsErr != nil:
			line = ErrorStyle.Render("Projects unavailable: " + backend.ErrorText(a.dataModel.ProjectsErr))
		case a.dataModel.Projects == nil:
			line = DimStyle.Render("Loading projects...")
		case len(a.dataModel.Projects) == 0:
			line = DimStyle.Render("No projects")
		default:
			text := fmt.Sprintf("Projects (%d): %s", len(a.dataModel.Projects), strings.Join(a.dataModel.Projects, ", "))
			line = DimStyle.Render(runewidth.Truncate(text, width, "..."))
		}
	case chat.ChannelTodo:
		switch {
		case a.dataModel.TodoErr != nil:
			line = ErrorStyle.Render("Status Login: " + backend.ErrorText(a.dataModel.TodoErr))
		case a.dataModel.TodoStatus == "":
			line = DimStyle.Render("Status Login: checking...")
		default:
			line = DimStyle.Render(runewidth.Truncate("Status Login: "+a.dataModel.TodoStatus, width, "..."))
		}
	default:
		line = DimStyle.Render("Ask about indexed documents")
	}
	return line
}

// renderMarkdown renders assistant content, caching by width and content
func (a AppView) renderMarkdown(content string, width int) string {
	cacheKey := strconv.Itoa(width) + "\x00" + content
	if out, ok := a.rendered[cacheKey]; ok {
		return out
	}
	out := render.Markdown(content, width)
	a.rendered[cacheKey] = out
	return out
}

// buildConversation renders the active channel and reports the first line of
// each message.
func (a AppView) buildConversation() (string, []int) {
	msgs := a.dataModel.Store.Channel(a.channel())
	width := a.mainWidth()

	var content strings.Builder
	offsets := make([]int, len(msgs))
	lines := 0

	for i, msg := range msgs {
		offsets[i] = lines

		highlightPrefix := ""
		if i == a.highlightedMessageIdx && a.highlightFlashCount%2 == 1 {
			highlightPrefix = HighlightStyle.Render(">>> ")
		}
		timestamp := DimStyle.Render(msg.Timestamp.Local().Format("[15:04]"))

		var block string
		switch msg.Role {
		case chat.RoleUser:
			block = formatUserMessage(highlightPrefix, timestamp, UserStyle.Render("You"), msg.Content)
		case chat.RoleAssistant:
			block = fmt.Sprintf("%s%s %s\n%s\n\n", highlightPrefix, timestamp,
				AssistantStyle.Render("Assistant"), a.renderMarkdown(msg.Content, width))
		default:
			block = fmt.Sprintf("%s%s %s\n%s\n\n", highlightPrefix, timestamp,
				DimStyle.Render(msg.Role), msg.Content)
		}
		content.WriteString(block)
		lines += strings.Count(block, "\n")
	}

	if a.dataModel.Pending(a.channel()) {
		content.WriteString(fmt.Sprintf("%s\n%s Waiting for response...\n",
			AssistantStyle.Render("Assistant"), a.loadingSpinner.View()))
	}

	return content.String(), offsets
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	content, _ := a.buildConversation()
	a.viewport.SetContent(content)
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// scrollToMessage centers message idx of the active channel in the viewport
func (a *AppView) scrollToMessage(idx int) {
	content, offsets := a.buildConversation()
	a.viewport.SetContent(content)
	if idx < 0 || idx >= len(offsets) {
		return
	}

	centerOffset := offsets[idx] - a.viewport.Height/2
	if maxOffset := a.viewport.TotalLineCount() - a.viewport.Height; centerOffset > maxOffset {
		centerOffset = maxOffset
	}
	if centerOffset < 0 {
		centerOffset = 0
	}
	a.viewport.SetYOffset(centerOffset)
}

func formatUserMessage(highlightPrefix, timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s %s %s\n", highlightPrefix, bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

func (a AppView) renderProjectDetail(width, height int) string {
	modalWidth := fitWidth(90, width)

	var body string
	modalType := ModalTypeInfo
	switch {
	case a.projectDetailLoading:
		body = a.loadingSpinner.View() + " Loading project detail..."
	case a.projectDetailErr != nil:
		body = ErrorStyle.Render(backend.ErrorText(a.projectDetailErr))
		modalType = ModalTypeError
	case strings.TrimSpace(a.projectDetail) == "":
		body = DimStyle.Render("No detail available")
	default:
		body = a.renderMarkdown(a.projectDetail, modalWidth)
	}

	lines := strings.Split(body, "\n")
	maxLines := height - 10
	if maxLines < 3 {
		maxLines = 3
	}
	if len(lines) > maxLines {
		lines = append(lines[:maxLines-1], DimStyle.Render(fmt.Sprintf("… %d more lines", len(lines)-maxLines+1)))
	}

	return RenderThreeSectionModal(
		"📊 "+a.projectDetailName,
		lines,
		FormatFooter("Enter", "Ask about it", "Esc", "Close"),
		modalType,
		90,
		width,
		height,
	)
}

// centeredNotice is a dim line centered in width, for empty states
func centeredNotice(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(DimStyle.Render(text))
}
