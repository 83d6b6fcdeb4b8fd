package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"assistui/chat"
	"assistui/storage"
	"assistui/views"
)

// BeginTurn stores the user's message and returns the command that asks the
// backend. Only one request per channel may be in flight. When the message
// could not be persisted the command is still returned, together with an
// error wrapping ErrNotSaved.
func (m *Model) BeginTurn(ctx context.Context, channel, text string) (tea.Cmd, error) {
	if m.pending[channel] {
		return nil, ErrBusy
	}
	if m.Ask == nil {
		return nil, fmt.Errorf("no backend configured")
	}

	// A failed commit still leaves the message on screen, so the turn goes
	// ahead and the caller is told it was not saved.
	var saveErr error
	if err := views.Begin(m.Accessor(channel), text); err != nil {
		if errors.Is(err, views.ErrBlankMessage) {
			return nil, err
		}
		m.Logger.Warn("user message not saved", zap.String("channel", channel), zap.Error(err))
		saveErr = fmt.Errorf("%w: %v", ErrNotSaved, err)
	}
	m.pending[channel] = true

	ask := m.Ask
	logger := m.Logger
	return func() tea.Msg {
		start := time.Now()
		answer, err := ask(ctx, channel, text)
		logger.Debug("turn finished",
			zap.String("channel", channel),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return AnswerMsg{Channel: channel, Answer: answer, Err: err}
	}, saveErr
}

// FinishTurn records the reply carried by msg and clears the channel's
// in-flight flag.
func (m *Model) FinishTurn(msg AnswerMsg) error {
	m.pending[msg.Channel] = false
	return views.Complete(m.Accessor(msg.Channel), msg.Answer, msg.Err)
}

// FetchProjects retrieves the project list for the Project tab
func (m *Model) FetchProjects(ctx context.Context) tea.Cmd {
	if m.Client == nil {
		return nil
	}
	client := m.Client
	return func() tea.Msg {
		projects, err := client.Projects(ctx)
		return ProjectsMsg{Projects: projects, Err: err}
	}
}

// FetchProjectDetail retrieves one project's progress report
func (m *Model) FetchProjectDetail(ctx context.Context, name string) tea.Cmd {
	if m.Client == nil {
		return nil
	}
	client := m.Client
	return func() tea.Msg {
		detail, err := client.ProjectDetail(ctx, name)
		return ProjectDetailMsg{Name: name, Detail: detail, Err: err}
	}
}

// FetchTodoInfo retrieves login status, example prompts and suggestions for
// the To-Do tab. Examples and suggestions are best effort.
func (m *Model) FetchTodoInfo(ctx context.Context) tea.Cmd {
	if m.Client == nil {
		return nil
	}
	client := m.Client
	logger := m.Logger
	return func() tea.Msg {
		status, err := client.TodoLoginStatus(ctx)
		if err != nil {
			return TodoInfoMsg{Err: err}
		}

		info := TodoInfoMsg{Status: status}
		if info.Examples, err = client.TodoExamples(ctx); err != nil {
			logger.Debug("todo examples unavailable", zap.Error(err))
		}
		if info.Suggestions, err = client.TodoSuggestions(ctx); err != nil {
			logger.Debug("todo suggestions unavailable", zap.Error(err))
		}
		return info
	}
}

// ApplyProjects stores a ProjectsMsg result
func (m *Model) ApplyProjects(msg ProjectsMsg) {
	m.Projects, m.ProjectsErr = msg.Projects, msg.Err
	if msg.Err != nil {
		m.Logger.Debug("projects unavailable", zap.Error(msg.Err))
	}
}

// ApplyTodoInfo stores a TodoInfoMsg result
func (m *Model) ApplyTodoInfo(msg TodoInfoMsg) {
	m.TodoErr = msg.Err
	if msg.Err != nil {
		m.Logger.Debug("todo status unavailable", zap.Error(msg.Err))
		return
	}
	m.TodoStatus = msg.Status
	m.TodoExamples = msg.Examples
	m.TodoSuggestions = msg.Suggestions
}

// ExportChannelCmd writes a channel's transcript to exportPath
func (m *Model) ExportChannelCmd(channel, exportPath string) tea.Cmd {
	t := storage.Transcript{
		Channel:    channel,
		SessionID:  m.SessionID,
		ExportedAt: time.Now().UTC().Truncate(time.Millisecond),
		Messages:   m.Store.Channel(channel),
	}
	return func() tea.Msg {
		err := storage.ExportTranscript(exportPath, t)
		return TranscriptExportedMsg{Channel: channel, Path: exportPath, Err: err}
	}
}

// YankLastAnswer copies the newest assistant message of channel to the
// system clipboard.
func (m *Model) YankLastAnswer(channel string) tea.Cmd {
	answer, ok := m.LastAnswer(channel)
	return func() tea.Msg {
		if !ok {
			return CopiedMsg{Err: fmt.Errorf("nothing to copy in %s", channel)}
		}
		return CopiedMsg{Err: clipboard.WriteAll(answer)}
	}
}

// SearchMessages fuzzy-searches every channel of the session
func (m *Model) SearchMessages(query string) []chat.MessageMatch {
	return chat.Search(m.Store, query)
}
