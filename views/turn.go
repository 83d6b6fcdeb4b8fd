// Package views holds the per-tab chat behaviour shared by the TUI and the
// CLI: recording a turn and the canned prompts each tab offers.
package views

import (
	"context"
	"errors"
	"strings"

	"assistui/backend"
	"assistui/chat"
)

// ProjectFailureText replaces backend errors on the project tab
const ProjectFailureText = "Error processing your request. Please try again."

var ErrBlankMessage = errors.New("message is empty")

// AskFunc sends one message to the backend behind a channel
type AskFunc func(ctx context.Context, channel, message string) (string, error)

// Begin records the user's side of a turn. Blank input is rejected with
// ErrBlankMessage and nothing is stored.
func Begin(acc *chat.Accessor, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlankMessage
	}
	return acc.Append(chat.Message{Role: chat.RoleUser, Content: text})
}

// Complete records the assistant's side of a turn. A failed request is
// stored as an assistant message so the conversation shows what happened.
func Complete(acc *chat.Accessor, answer string, askErr error) error {
	content := answer
	if askErr != nil {
		content = FailureText(acc.Name(), askErr)
	}
	return acc.Append(chat.Message{Role: chat.RoleAssistant, Content: content})
}

// FailureText is the assistant message stored for a failed request
func FailureText(channel string, err error) string {
	if channel == chat.ChannelProject {
		return ProjectFailureText
	}
	return "Error: " + backend.ErrorText(err)
}

// Send runs a whole turn synchronously. The returned error covers storage
// failures and blank input; backend failures end up in the conversation.
func Send(ctx context.Context, acc *chat.Accessor, ask AskFunc, text string) error {
	if err := Begin(acc, text); err != nil {
		return err
	}
	answer, askErr := ask(ctx, acc.Name(), text)
	return Complete(acc, answer, askErr)
}
