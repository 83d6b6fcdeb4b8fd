package views

import (
	"github.com/sahilm/fuzzy"

	"assistui/chat"
)

// QuickAction is a canned prompt offered by a tab
type QuickAction struct {
	Label  string
	Prompt string
	// Send submits the prompt straight away instead of filling the input.
	Send bool
}

var projectActions = []QuickAction{
	{"list project", "Tampilkan semua project dengan status dan progress lengkap", true},
	{"portfolio overview", "Berikan overview progress semua project dengan insight dan recommendations", true},
	{"problem analysis", "Identifikasi project yang bermasalah atau tertinggal dengan analisis root cause", true},
	{"priority ranking", "Ranking project berdasarkan prioritas dan urgency dengan actionable recommendations", true},
	{"weekly summary", "Buatkan weekly summary semua project dengan achievement dan next steps", true},
}

var todoPrompts = []string{
	"Analisis semua task saya dan berikan insight tentang produktivitas",
	"Tampilkan task yang urgent dan deadline hari ini dengan prioritas",
	"Buatkan laporan produktivitas saya berdasarkan task yang sudah selesai",
	"Prioritaskan task saya berdasarkan deadline dan urgency",
	"Tunjukkan semua task yang overdue dan beri saran penanganan",
	"Berikan saran untuk mengoptimalkan manajemen task saya",
	"Buatkan summary task yang diselesaikan minggu ini",
	"Bantu saya planning task baru untuk project yang akan datang",
}

// QuickActions lists the canned prompts for a channel. Channels without
// any return nil.
func QuickActions(channel string) []QuickAction {
	switch channel {
	case chat.ChannelProject:
		return append([]QuickAction(nil), projectActions...)
	case chat.ChannelTodo:
		actions := make([]QuickAction, 0, len(todoPrompts))
		for _, p := range todoPrompts {
			actions = append(actions, QuickAction{Label: p, Prompt: p})
		}
		return actions
	}
	return nil
}

type actionSource []QuickAction

func (s actionSource) String(i int) string { return s[i].Label }
func (s actionSource) Len() int            { return len(s) }

// FilterQuickActions fuzzy-matches query against a channel's action labels,
// best match first. An empty query returns every action in order.
func FilterQuickActions(channel, query string) []QuickAction {
	actions := QuickActions(channel)
	if query == "" {
		return actions
	}

	matches := fuzzy.FindFrom(query, actionSource(actions))
	out := make([]QuickAction, 0, len(matches))
	for _, m := range matches {
		out = append(out, actions[m.Index])
	}
	return out
}
