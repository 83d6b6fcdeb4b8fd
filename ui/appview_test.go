package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistui/chat"
	appmodel "assistui/model"
	"assistui/render"
	"assistui/storage"
)

type asked struct {
	channel string
	message string
}

func newTestView(t *testing.T) (AppView, *[]asked) {
	t.Helper()

	store := chat.NewStore(storage.NewMemoryStorage(), nil)
	m := appmodel.NewModel(nil, nil, store, nil, "", nil, "test")

	var calls []asked
	m.Ask = func(ctx context.Context, channel, message string) (string, error) {
		calls = append(calls, asked{channel, message})
		return "**jawaban** untuk " + channel, nil
	}

	v := NewAppView(context.Background(), m)
	v.Init()
	v = update(t, v, tea.WindowSizeMsg{Width: 120, Height: 40})
	return v, &calls
}

func update(t *testing.T, v AppView, msg tea.Msg) AppView {
	t.Helper()
	next, _ := v.Update(msg)
	return next.(AppView)
}

func press(t *testing.T, v AppView, msg tea.KeyMsg) (AppView, tea.Cmd) {
	t.Helper()
	next, cmd := v.Update(msg)
	return next.(AppView), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func alt(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: true}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// collect runs cmd and flattens batches
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func answerFrom(t *testing.T, cmd tea.Cmd) appmodel.AnswerMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if answer, ok := msg.(appmodel.AnswerMsg); ok {
			return answer
		}
	}
	t.Fatal("no AnswerMsg produced")
	return appmodel.AnswerMsg{}
}

func TestSendTurn(t *testing.T) {
	v, calls := newTestView(t)

	v, _ = press(t, v, runes("halo"))
	v, cmd := press(t, v, enter)
	require.NotNil(t, cmd)

	assert.True(t, v.dataModel.Pending(chat.ChannelRAG))
	assert.Equal(t, "", v.textarea.Value())
	assert.Contains(t, render.StripANSI(v.View()), "Waiting for response...")

	answer := answerFrom(t, cmd)
	v = update(t, v, answer)

	assert.Equal(t, []asked{{chat.ChannelRAG, "halo"}}, *calls)
	assert.False(t, v.dataModel.Pending(chat.ChannelRAG))

	msgs := v.dataModel.Store.Channel(chat.ChannelRAG)
	require.Len(t, msgs, 3)
	assert.Equal(t, "halo", msgs[1].Content)
	assert.Equal(t, "**jawaban** untuk rag", msgs[2].Content)
}

func TestBlankInputIsIgnored(t *testing.T) {
	v, calls := newTestView(t)

	v, cmd := press(t, v, enter)
	assert.Nil(t, cmd)
	assert.Empty(t, *calls)
	assert.Len(t, v.dataModel.Store.Channel(chat.ChannelRAG), 1)
}

func TestOneRequestPerTab(t *testing.T) {
	v, _ := newTestView(t)

	v, _ = press(t, v, runes("satu"))
	v, first := press(t, v, enter)
	require.NotNil(t, first)

	v, _ = press(t, v, runes("dua"))
	v, second := press(t, v, enter)
	assert.Nil(t, second)
	assert.Equal(t, "dua", v.textarea.Value())
	assert.Equal(t, "Still waiting for the previous reply", v.statusNotice)

	// Another tab is independent
	v, _ = press(t, v, alt("3"))
	v, _ = press(t, v, runes("task"))
	v, third := press(t, v, enter)
	assert.NotNil(t, third)
}

func TestTabSwitchKeepsDrafts(t *testing.T) {
	v, _ := newTestView(t)

	v, _ = press(t, v, runes("draft rag"))
	v, _ = press(t, v, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, chat.ChannelProject, v.ActiveChannel())
	assert.Equal(t, "", v.textarea.Value())

	v, _ = press(t, v, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, chat.ChannelRAG, v.ActiveChannel())
	assert.Equal(t, "draft rag", v.textarea.Value())

	v, _ = press(t, v, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, chat.ChannelTodo, v.ActiveChannel())
}

func TestReplyLandsInOriginChannel(t *testing.T) {
	v, _ := newTestView(t)

	v, _ = press(t, v, runes("halo"))
	v, cmd := press(t, v, enter)
	v, _ = press(t, v, alt("2"))

	v = update(t, v, answerFrom(t, cmd))
	assert.Equal(t, "New reply in RAG Chat", v.statusNotice)
	assert.Len(t, v.dataModel.Store.Channel(chat.ChannelRAG), 3)
	assert.Len(t, v.dataModel.Store.Channel(chat.ChannelProject), 1)
}

func TestProjectQuickActionSends(t *testing.T) {
	v, calls := newTestView(t)

	v, _ = press(t, v, alt("2"))
	v, _ = press(t, v, alt("p"))
	require.True(t, v.showQuickActions)
	require.Len(t, v.quickActionItems, 5)

	v, cmd := press(t, v, enter)
	assert.False(t, v.showQuickActions)
	require.NotNil(t, cmd)

	v = update(t, v, answerFrom(t, cmd))
	assert.Equal(t, []asked{{chat.ChannelProject, "Tampilkan semua project dengan status dan progress lengkap"}}, *calls)
	assert.Len(t, v.dataModel.Store.Channel(chat.ChannelProject), 3)
}

func TestTodoQuickActionFillsInput(t *testing.T) {
	v, calls := newTestView(t)

	v, _ = press(t, v, alt("3"))
	v, _ = press(t, v, alt("p"))
	v, _ = press(t, v, runes("overdue"))
	require.NotEmpty(t, v.quickActionItems)

	v, cmd := press(t, v, enter)
	assert.Nil(t, cmd)
	assert.Empty(t, *calls)
	assert.Contains(t, v.textarea.Value(), "overdue")
}

func TestProjectDetailFromPicker(t *testing.T) {
	v, _ := newTestView(t)
	v = update(t, v, appmodel.ProjectsMsg{Projects: []string{"Alpha", "Beta"}})

	v, _ = press(t, v, alt("2"))
	assert.Contains(t, render.StripANSI(v.View()), "Projects (2): Alpha, Beta")

	v, _ = press(t, v, alt("p"))
	v, _ = press(t, v, runes("detail beta"))
	require.NotEmpty(t, v.quickActionItems)
	assert.Equal(t, "Beta", v.quickActionItems[0].project)

	v, _ = press(t, v, enter)
	require.True(t, v.showProjectDetail)
	assert.True(t, v.projectDetailLoading)

	v = update(t, v, appmodel.ProjectDetailMsg{Name: "Beta", Detail: "## Progress\n\n80% selesai"})
	assert.False(t, v.projectDetailLoading)
	assert.Contains(t, render.StripANSI(v.View()), "80% selesai")

	v, _ = press(t, v, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, v.showProjectDetail)
}

func TestResetChannel(t *testing.T) {
	v, _ := newTestView(t)

	v, _ = press(t, v, runes("halo"))
	v, cmd := press(t, v, enter)
	v = update(t, v, answerFrom(t, cmd))
	require.Len(t, v.dataModel.Store.Channel(chat.ChannelRAG), 3)

	v, _ = press(t, v, alt("l"))
	require.True(t, v.confirmReset)
	v, _ = press(t, v, runes("n"))
	assert.Len(t, v.dataModel.Store.Channel(chat.ChannelRAG), 3)

	v, _ = press(t, v, alt("l"))
	v, _ = press(t, v, runes("y"))
	assert.False(t, v.confirmReset)
	assert.Len(t, v.dataModel.Store.Channel(chat.ChannelRAG), 1)
}

func TestSearchJumpsToChannel(t *testing.T) {
	v, _ := newTestView(t)
	require.NoError(t, v.dataModel.Store.AppendChannel(chat.ChannelTodo,
		chat.Message{Role: chat.RoleUser, Content: "rapat anggaran kuartal"}))

	v, _ = press(t, v, alt("f"))
	require.True(t, v.showMessageSearch)
	v, _ = press(t, v, runes("rapat anggaran"))
	require.NotEmpty(t, v.messageSearchResults)

	v, cmd := press(t, v, enter)
	assert.NotNil(t, cmd)
	assert.False(t, v.showMessageSearch)
	assert.Equal(t, chat.ChannelTodo, v.ActiveChannel())
	assert.Equal(t, 1, v.highlightedMessageIdx)
}

func TestHeadersShowBackendErrors(t *testing.T) {
	v, _ := newTestView(t)
	v = update(t, v, appmodel.TodoInfoMsg{Err: assert.AnError})

	v, _ = press(t, v, alt("3"))
	assert.Contains(t, render.StripANSI(v.View()), "Status Login: "+assert.AnError.Error())
}

func TestHelpToggle(t *testing.T) {
	v, _ := newTestView(t)

	v, _ = press(t, v, alt("h"))
	assert.True(t, v.showHelp)
	assert.Contains(t, render.StripANSI(v.View()), "Keyboard Shortcuts")

	v, _ = press(t, v, alt("h"))
	assert.False(t, v.showHelp)
}

func TestQuit(t *testing.T) {
	v, _ := newTestView(t)

	v, cmd := press(t, v, alt("q"))
	require.NotNil(t, cmd)
	assert.True(t, v.dataModel.Quitting)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestViewListsTabs(t *testing.T) {
	v, _ := newTestView(t)
	out := render.StripANSI(v.View())

	for _, spec := range chat.DefaultChannels() {
		assert.Contains(t, out, spec.Title)
	}
	assert.True(t, strings.Contains(out, "Selamat datang"))
}

type readOnlyStorage struct{}

func (readOnlyStorage) GetItem(key string) (string, bool, error) { return "", false, nil }
func (readOnlyStorage) SetItem(key, value string) error         { return assert.AnError }

func TestSendWhenSessionIsNotWritable(t *testing.T) {
	m := appmodel.NewModel(nil, nil, chat.NewStore(readOnlyStorage{}, nil), nil, "", nil, "test")
	m.Ask = func(ctx context.Context, channel, message string) (string, error) { return "ok", nil }

	v := NewAppView(context.Background(), m)
	v = update(t, v, tea.WindowSizeMsg{Width: 120, Height: 40})

	v, _ = press(t, v, runes("halo"))
	v, cmd := press(t, v, enter)
	require.NotNil(t, cmd)
	assert.True(t, v.dataModel.Pending(chat.ChannelRAG))
	assert.Contains(t, v.statusNotice, "message not saved")
	assert.Equal(t, "", v.textarea.Value())
}
