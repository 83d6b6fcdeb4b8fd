package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"assistui/config"
	appmodel "assistui/model"
	"assistui/storage"
	"assistui/views"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.ready = true
		a.updateViewportContent(true)
		return a, nil

	case spinner.TickMsg:
		if !a.spinnerActive() {
			return a, nil
		}
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		if a.dataModel.Pending(a.channel()) {
			a.updateViewportContent(true)
		}
		return a, cmd

	case appmodel.AnswerMsg:
		if err := a.dataModel.FinishTurn(msg); err != nil {
			a.dataModel.Logger.Error("failed to commit answer", zap.String("channel", msg.Channel), zap.Error(err))
			a.acknowledge("Could not save conversation", err.Error(), ModalTypeError)
		}
		if msg.Channel == a.channel() {
			a.updateViewportContent(true)
		} else {
			a.statusNotice = "New reply in " + a.channelTitle(msg.Channel)
		}
		return a, nil

	case appmodel.ProjectsMsg:
		a.dataModel.ApplyProjects(msg)
		return a, nil

	case appmodel.TodoInfoMsg:
		a.dataModel.ApplyTodoInfo(msg)
		return a, nil

	case appmodel.ProjectDetailMsg:
		if a.showProjectDetail && msg.Name == a.projectDetailName {
			a.projectDetailLoading = false
			a.projectDetail = msg.Detail
			a.projectDetailErr = msg.Err
		}
		return a, nil

	case appmodel.TranscriptExportedMsg:
		a.statusNotice = ""
		if msg.Err != nil {
			a.acknowledge("Export failed", msg.Err.Error(), ModalTypeError)
		} else {
			a.acknowledge("Exported "+a.channelTitle(msg.Channel), msg.Path, ModalTypeInfo)
		}
		return a, nil

	case appmodel.CopiedMsg:
		if msg.Err != nil {
			a.statusNotice = "Copy failed: " + msg.Err.Error()
		} else {
			a.statusNotice = "Copied last answer to clipboard"
		}
		return a, nil

	case appmodel.FlashTickMsg:
		if a.highlightFlashCount > 0 && a.highlightFlashCount < 6 {
			a.highlightFlashCount++
			a.updateViewportContent(false)
			return a, tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
				return appmodel.FlashTickMsg{}
			})
		}
		a.highlightedMessageIdx = -1
		a.highlightFlashCount = 0
		a.updateViewportContent(false)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) spinnerActive() bool {
	if a.projectDetailLoading {
		return true
	}
	for _, spec := range a.channels {
		if a.dataModel.Pending(spec.Name) {
			return true
		}
	}
	return false
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.kb()
	k := msg.String()
	a.statusNotice = ""

	// PRIORITY 0: Always-global shortcuts
	if k == "ctrl+c" || k == kb.GetActionKey("quit") {
		a.dataModel.Quitting = true
		return a, tea.Quit
	}

	if a.showAcknowledgeModal {
		if k == "enter" || k == kb.GetActionKey("close") {
			a.closeAllModals()
		}
		return a, nil
	}

	if k == kb.GetActionKey("help") {
		wasOpen := a.showHelp
		a.closeAllModals()
		a.showHelp = !wasOpen
		return a, nil
	}
	if a.showHelp {
		if k == kb.GetActionKey("close") {
			a.closeAllModals()
		}
		return a, nil
	}

	if a.confirmReset {
		switch k {
		case "y", "Y":
			a.closeAllModals()
			if err := a.dataModel.ResetChannel(a.channel()); err != nil {
				a.acknowledge("Reset failed", err.Error(), ModalTypeError)
			}
			a.highlightedMessageIdx = -1
			a.updateViewportContent(true)
		case "n", "N", "esc":
			a.closeAllModals()
		}
		return a, nil
	}

	if a.showProjectDetail {
		switch k {
		case "esc":
			a.closeAllModals()
		case "enter":
			name := a.projectDetailName
			a.closeAllModals()
			return a.send(fmt.Sprintf("Sudah sampai mana progress project %s?", name))
		}
		return a, nil
	}

	if a.showQuickActions {
		return a.handleQuickActionsUpdate(msg)
	}
	if a.showMessageSearch {
		return a.handleMessageSearchUpdate(msg)
	}

	for _, spec := range a.channels {
		if k == kb.GetActionKey("tab_"+spec.Name) {
			a.switchTo(spec.Name)
			return a, nil
		}
	}

	switch k {
	case kb.GetActionKey("send"):
		return a.send(a.textarea.Value())

	case kb.GetActionKey("next_tab"):
		a.switchTo(a.channels[(a.active+1)%len(a.channels)].Name)
		return a, nil

	case kb.GetActionKey("prev_tab"):
		a.switchTo(a.channels[(a.active+len(a.channels)-1)%len(a.channels)].Name)
		return a, nil

	case kb.GetActionKey("quick_actions"):
		a.openQuickActions()
		return a, nil

	case kb.GetActionKey("search"):
		a.openMessageSearch()
		return a, nil

	case kb.GetActionKey("yank_answer"):
		return a, a.dataModel.YankLastAnswer(a.channel())

	case kb.GetActionKey("reset_channel"):
		if a.dataModel.Pending(a.channel()) {
			a.statusNotice = "Wait for the reply before resetting"
			return a, nil
		}
		a.confirmReset = true
		return a, nil

	case kb.GetActionKey("export"):
		channel := a.channel()
		path := storage.GenerateExportPath(config.GetHomeDir(), channel, time.Now())
		a.statusNotice = "Exporting " + a.channelTitle(channel) + "..."
		return a, a.dataModel.ExportChannelCmd(channel, path)

	case kb.GetActionKey("scroll_up"):
		a.viewport.HalfPageUp()
		return a, nil

	case kb.GetActionKey("scroll_down"):
		a.viewport.HalfPageDown()
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// send starts a turn on the active channel
func (a AppView) send(text string) (AppView, tea.Cmd) {
	channel := a.channel()

	cmd, err := a.dataModel.BeginTurn(a.ctx, channel, text)
	notice := ""
	switch {
	case errors.Is(err, appmodel.ErrNotSaved):
		notice = err.Error()
	case errors.Is(err, views.ErrBlankMessage):
		return a, nil
	case errors.Is(err, appmodel.ErrBusy):
		a.statusNotice = "Still waiting for the previous reply"
		return a, nil
	case err != nil:
		a.dataModel.Logger.Error("failed to start turn", zap.String("channel", channel), zap.Error(err))
		a.acknowledge("Could not send", err.Error(), ModalTypeError)
		a.updateViewportContent(true)
		return a, nil
	}

	a.textarea.Reset()
	a.drafts[channel] = ""
	a.highlightedMessageIdx = -1
	a.statusNotice = notice
	a.updateViewportContent(true)
	return a, tea.Batch(cmd, a.loadingSpinner.Tick)
}

// switchTo activates the tab for channel, keeping unsent input per tab
func (a *AppView) switchTo(channel string) {
	for i, spec := range a.channels {
		if spec.Name != channel {
			continue
		}
		if i == a.active {
			return
		}
		a.drafts[a.channel()] = a.textarea.Value()
		a.active = i
		a.textarea.SetValue(a.drafts[channel])
		a.highlightedMessageIdx = -1
		a.highlightFlashCount = 0
		a.updateViewportContent(true)
		return
	}
}
