package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"assistui/chat"
	"assistui/config"
	appmodel "assistui/model"
)

const (
	sidebarWidth = 18

	// title(1) + header(1) + separator(1) + textarea(3) + status bar(1)
	chromeHeight = 7
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model
	ctx       context.Context

	// Tabs
	channels []chat.ChannelSpec
	active   int
	drafts   map[string]string

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	// Rendered markdown keyed by width and content
	rendered map[string]string

	showHelp bool

	showQuickActions  bool
	quickActionInput  textinput.Model
	quickActionItems  []pickerItem
	selectedActionIdx int

	showMessageSearch      bool
	messageSearchInput     textinput.Model
	messageSearchResults   []chat.MessageMatch
	selectedSearchIdx      int
	messageSearchScrollIdx int

	highlightedMessageIdx int
	highlightFlashCount   int

	confirmReset bool

	showProjectDetail    bool
	projectDetailName    string
	projectDetail        string
	projectDetailErr     error
	projectDetailLoading bool

	// Acknowledge modal (notifications/errors requiring only acknowledgement)
	showAcknowledgeModal  bool
	acknowledgeModalTitle string
	acknowledgeModalMsg   string
	acknowledgeModalType  ModalType

	// One-line notice in the status bar, cleared on the next key press
	statusNotice string
}

func NewAppView(ctx context.Context, dataModel *appmodel.Model) AppView {
	if ctx == nil {
		ctx = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	kb := keyBindings(dataModel)

	// Enter is handled by the view; the newline binding comes from config
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys(kb.GetActionKey("newline")))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	quickActionInput := textinput.New()
	quickActionInput.Prompt = "Filter: "
	quickActionInput.CharLimit = 64

	messageSearchInput := textinput.New()
	messageSearchInput.Prompt = "Search: "
	messageSearchInput.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(successColor)

	return AppView{
		dataModel:             dataModel,
		ctx:                   ctx,
		channels:              dataModel.Store.Channels(),
		drafts:                make(map[string]string),
		viewport:              viewport.New(0, 0),
		textarea:              ta,
		loadingSpinner:        sp,
		rendered:              make(map[string]string),
		quickActionInput:      quickActionInput,
		messageSearchInput:    messageSearchInput,
		highlightedMessageIdx: -1,
	}
}

func keyBindings(m *appmodel.Model) *config.KeyBindingsConfig {
	if m.Config == nil || m.Config.KeyBindings == nil {
		return config.DefaultKeybindings()
	}
	return m.Config.KeyBindings
}

func (a AppView) kb() *config.KeyBindingsConfig {
	return keyBindings(a.dataModel)
}

// channel returns the name of the active tab's channel
func (a AppView) channel() string {
	return a.channels[a.active].Name
}

func (a AppView) Init() tea.Cmd {
	// Store reads are lazy; make sure recovery happens before the first frame
	a.dataModel.Store.Initialize()

	cmds := []tea.Cmd{textarea.Blink}
	if cmd := a.dataModel.FetchProjects(a.ctx); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := a.dataModel.FetchTodoInfo(a.ctx); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}

	// Modal rendering order (top to bottom layers):
	// 1. Acknowledge
	// 2. Help
	// 3. Reset confirmation
	// 4. Project detail
	// 5. Quick actions
	// 6. Search
	if a.showAcknowledgeModal {
		return RenderAcknowledgeModal(a.acknowledgeModalTitle, a.acknowledgeModalMsg, a.acknowledgeModalType, a.width, a.height)
	}

	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	if a.confirmReset {
		return RenderConfirmationModal(
			"Reset "+a.channels[a.active].Title+"?",
			"The conversation is replaced by the welcome message.",
			a.width, a.height)
	}

	if a.showProjectDetail {
		return a.renderProjectDetail(a.width, a.height)
	}

	if a.showQuickActions {
		return a.renderQuickActions(a.width, a.height)
	}

	if a.showMessageSearch {
		return renderMessageSearch(a, a.width, a.height)
	}

	main := lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderTitle(),
		a.renderTabHeader(),
		"",
		a.viewport.View(),
		a.textarea.View(),
		a.renderStatusBar(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(), main)
}

func (a AppView) renderStatusBar() string {
	if a.statusNotice != "" {
		return HighlightStyle.Render(a.statusNotice)
	}

	kb := a.kb()
	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	parts := []string{
		fmt.Sprintf("%s %s", kb.DisplayActionKey("quit"), descStyle.Render("Quit")),
		fmt.Sprintf("%s %s", kb.DisplayActionKey("next_tab"), descStyle.Render("Tab")),
		fmt.Sprintf("%s %s", kb.DisplayActionKey("quick_actions"), descStyle.Render("Actions")),
		fmt.Sprintf("%s %s", kb.DisplayActionKey("search"), descStyle.Render("Search")),
		fmt.Sprintf("%s %s", kb.DisplayActionKey("yank_answer"), descStyle.Render("Copy")),
		fmt.Sprintf("%s %s", kb.DisplayActionKey("help"), descStyle.Render("Help")),
	}
	return StatusStyle.Render(strings.Join(parts, "  "))
}

// closeAllModals resets every overlay and returns focus to the input
func (a *AppView) closeAllModals() {
	a.showHelp = false
	a.showQuickActions = false
	a.showMessageSearch = false
	a.showProjectDetail = false
	a.showAcknowledgeModal = false
	a.confirmReset = false

	if a.quickActionInput.Focused() {
		a.quickActionInput.Blur()
	}
	if a.messageSearchInput.Focused() {
		a.messageSearchInput.Blur()
	}
	a.textarea.Focus()
}

func (a *AppView) acknowledge(title, msg string, t ModalType) {
	a.showAcknowledgeModal = true
	a.acknowledgeModalTitle = title
	a.acknowledgeModalMsg = msg
	a.acknowledgeModalType = t
}

// ActiveChannel reports the channel shown in the active tab
func (a AppView) ActiveChannel() string {
	return a.channel()
}
