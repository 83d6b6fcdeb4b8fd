package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"assistui/chat"
	"assistui/config"
	appmodel "assistui/model"
	"assistui/render"
	"assistui/storage"
	"assistui/views"
)

// terminalWidth is used for markdown output when stdout is a terminal
const terminalWidth = 100

var askCmd = &cobra.Command{
	Use:   "ask <channel> <message...>",
	Short: "Send one message to a channel and print the reply",
	Long: `Send one message to rag, project or todo and print the assistant's reply.

The exchange is stored in the current session exactly as if it had been typed
into the workspace.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

var historyCmd = &cobra.Command{
	Use:   "history <channel>",
	Short: "Print a channel's conversation from the current session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export <channel> [path]",
	Short: "Write a channel's conversation to a JSON file",
	Long: `Write a channel's conversation to a JSON transcript.

Without a path the file goes to ~/Downloads/assistui-<channel>-<time>.json.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExport,
}

var resetCmd = &cobra.Command{
	Use:   "reset [channel]",
	Short: "Restore one channel, or all of them, to the welcome message",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReset,
}

var endCmd = &cobra.Command{
	Use:   "end",
	Short: "End the current session and discard its conversations",
	Args:  cobra.NoArgs,
	RunE:  runEnd,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

// withModel opens the session for a one-shot command
func withModel(fn func(m *appmodel.Model) error) error {
	m, err := openModel()
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func checkChannel(m *appmodel.Model, channel string) error {
	if m.Store.Known(channel) {
		return nil
	}
	return fmt.Errorf("unknown channel %q (want one of: %s)",
		channel, strings.Join(chat.ChannelNames(m.Store.Channels()), ", "))
}

// formatReply renders assistant markdown for a terminal and strips it when
// output is piped.
func formatReply(w io.Writer, content string) string {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return render.Markdown(content, terminalWidth)
	}
	return render.Plain(content)
}

func runAsk(cmd *cobra.Command, args []string) error {
	channel := args[0]
	message := strings.Join(args[1:], " ")
	out := cmd.OutOrStdout()

	return withModel(func(m *appmodel.Model) error {
		if err := checkChannel(m, channel); err != nil {
			return err
		}
		if m.Ask == nil {
			return errors.New("no backend configured")
		}

		acc := m.Accessor(channel)
		if err := views.Send(cmd.Context(), acc, m.Ask, message); err != nil {
			if errors.Is(err, views.ErrBlankMessage) {
				return errors.New("message is empty")
			}
			return err
		}

		reply, _ := m.LastAnswer(channel)
		fmt.Fprintln(out, formatReply(out, reply))
		return nil
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	channel := args[0]
	out := cmd.OutOrStdout()

	return withModel(func(m *appmodel.Model) error {
		if err := checkChannel(m, channel); err != nil {
			return err
		}

		for _, msg := range m.Store.Channel(channel) {
			role := "You"
			content := msg.Content
			if msg.Role == chat.RoleAssistant {
				role = "Assistant"
				content = formatReply(out, msg.Content)
			}
			fmt.Fprintf(out, "[%s] %s:\n%s\n\n", msg.Timestamp.Local().Format("2006-01-02 15:04"), role, content)
		}
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	channel := args[0]

	return withModel(func(m *appmodel.Model) error {
		if err := checkChannel(m, channel); err != nil {
			return err
		}

		path := storage.GenerateExportPath(config.GetHomeDir(), channel, time.Now())
		if len(args) == 2 {
			path = config.ExpandPath(args[1])
		}

		msg, ok := m.ExportChannelCmd(channel, path)().(appmodel.TranscriptExportedMsg)
		if !ok {
			return errors.New("export did not complete")
		}
		if msg.Err != nil {
			return msg.Err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exported to", msg.Path)
		return nil
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	return withModel(func(m *appmodel.Model) error {
		if len(args) == 0 {
			if err := m.Store.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All channels reset")
			return nil
		}

		channel := args[0]
		if err := checkChannel(m, channel); err != nil {
			return err
		}
		if err := m.ResetChannel(channel); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Channel %s reset\n", channel)
		return nil
	})
}

func runEnd(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.close()
	sessions := env.sessions

	id, err := sessions.LoadCurrentSessionID()
	if err != nil || id == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No active session")
		return nil
	}

	locked, err := sessions.CheckSessionLock(id)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("session %s is open in another window", id)
	}

	if err := sessions.EndSession(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s ended\n", id)
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.close()
	sessions := env.sessions

	list, err := sessions.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
		return nil
	}

	current, _ := sessions.LoadCurrentSessionID()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tCREATED\tUPDATED\tITEMS")
	for _, s := range list {
		marker := ""
		if s.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", marker, s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			s.ItemCount)
	}
	return w.Flush()
}
