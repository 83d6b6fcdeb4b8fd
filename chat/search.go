package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

const previewWidth = 100

type MessageMatch struct {
	Channel      string
	MessageIndex int
	Role         string
	Content      string
	Preview      string
	Score        int
}

type searchEntry struct {
	channel string
	index   int
	msg     Message
}

type searchSource []searchEntry

func (s searchSource) String(i int) string { return s[i].msg.Content }
func (s searchSource) Len() int            { return len(s) }

// Search fuzzy-matches query against every message in every channel, best
// match first. Welcome messages are included since they are part of history.
func Search(store *Store, query string) []MessageMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return []MessageMatch{}
	}

	state := store.Snapshot()
	var source searchSource
	for _, spec := range store.Channels() {
		for i, msg := range state[spec.Name] {
			source = append(source, searchEntry{channel: spec.Name, index: i, msg: msg})
		}
	}

	results := fuzzy.FindFrom(query, source)
	matches := make([]MessageMatch, 0, len(results))
	for _, r := range results {
		entry := source[r.Index]
		matches = append(matches, MessageMatch{
			Channel:      entry.channel,
			MessageIndex: entry.index,
			Role:         entry.msg.Role,
			Content:      entry.msg.Content,
			Preview:      Preview(entry.msg.Content, previewWidth),
			Score:        r.Score,
		})
	}
	return matches
}

// Preview flattens content onto one line and truncates it to width cells.
func Preview(content string, width int) string {
	flat := strings.Join(strings.Fields(content), " ")
	return runewidth.Truncate(flat, width, "...")
}
