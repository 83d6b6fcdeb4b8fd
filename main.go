package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assistui/backend"
	"assistui/chat"
	"assistui/config"
	appmodel "assistui/model"
	"assistui/storage"
	"assistui/ui"
)

const Version = "v0.1.0"

var (
	// Global flags
	newSession bool
	debug      bool
	apiURL     string
)

var rootCmd = &cobra.Command{
	Use:   "assistui",
	Short: "Terminal workspace for the internal assistant",
	Long: `assistui is a terminal front end for the internal assistant backend.

It keeps three conversations side by side: RAG Chat over indexed documents,
the Project assistant and the To-Do assistant. Conversations belong to a
session and survive restarts until the session is ended.

Run without arguments to start the interactive workspace.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&newSession, "new-session", false, "Start a fresh session instead of resuming the last one")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Write a debug log to <data_dir>/debug.log (or set "+config.EnvDebug+")")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides config and "+config.EnvAPIURL+")")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// environment is the shared setup of every command
type environment struct {
	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error
	sessions *storage.SessionStorage
}

// close releases the session database and the debug log
func (e *environment) close() {
	_ = e.sessions.Close()
	_ = e.closeLog()
}

// loadEnvironment reads config and opens the debug logger and session
// database.
func loadEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.BackendURL = apiURL
	}

	logger, closeLog, err := config.NewLogger(cfg.DataDir(), debug || config.CheckDebug())
	if err != nil {
		return nil, err
	}

	if ok, warning := cfg.KeyBindings.Validate(); !ok {
		logger.Warn("invalid keybindings, using defaults", zap.String("reason", warning))
		cfg.KeyBindings = config.DefaultKeybindings()
	} else if warning != "" {
		logger.Warn("keybindings", zap.String("warning", warning))
	}

	sessions, err := storage.NewSessionStorage(cfg.DataDir(), logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}
	return &environment{cfg: cfg, logger: logger, closeLog: closeLog, sessions: sessions}, nil
}

// openModel picks the session for this run and wires the store and backend
// client around it. The caller must Close the model.
func openModel() (*appmodel.Model, error) {
	env, err := loadEnvironment()
	if err != nil {
		return nil, err
	}

	client, err := backend.NewClient(env.cfg.BackendURL, env.cfg.RequestTimeout, env.logger)
	if err != nil {
		env.close()
		return nil, err
	}

	resume := env.cfg.ResumeSession && !newSession
	id, err := env.sessions.Begin(resume)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	// A session no later run will resume ends with this one
	endOnClose := !env.sessions.IsCurrent(id)
	env.logger.Debug("session started",
		zap.String("session", id),
		zap.Bool("resume", resume),
		zap.Bool("temporary", endOnClose))

	store := chat.NewStore(env.sessions.Session(id), env.logger)
	store.Initialize()

	m := appmodel.NewModel(env.cfg, client, store, env.sessions, id, env.logger, Version)
	m.EndOnClose = endOnClose
	m.CloseLog = env.closeLog
	return m, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	m, err := openModel()
	if err != nil {
		return showStartupError(err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: failed to close session storage:", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(
		ui.NewAppView(ctx, m),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// showStartupError reports a failure before the workspace opens
func showStartupError(startErr error) error {
	p := tea.NewProgram(
		ui.NewErrorModal("Startup Error", startErr.Error()),
		tea.WithAltScreen(),
	)
	_, _ = p.Run()
	return startErr
}
