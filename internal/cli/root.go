// Package cli wires the taskflow command line: the interactive TUI plus
// export, stats and config subcommands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/taskflow/internal/config"
	"github.com/sadopc/taskflow/internal/flow"
	"github.com/sadopc/taskflow/internal/store"
	"github.com/sadopc/taskflow/internal/tui"
)

var version = "0.1.0"

// app carries what PersistentPreRunE resolves for the subcommands.
type app struct {
	cfgFile   string
	dbPath    string
	logLevel  string
	logFormat string
	logFile   string

	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "Plan your day, track time, and reflect on what got done",
		Long: `taskflow organises work into projects and tasks with time estimates.
Queue tasks for today, run a timer while you work, capture how the estimate
held up when you finish, and review streaks and trends over time.

Run without a subcommand to open the interactive dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logCloser != nil {
				a.logCloser.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ~/.config/taskflow/config.yaml)")
	f.StringVar(&a.dbPath, "db", "", "database file (overrides data.path)")
	f.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	f.StringVar(&a.logFile, "log-file", "", "log file; empty logs to stderr")

	root.AddCommand(newExportCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, warnings, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Data.Path = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = a.logFile
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	logger, closer, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.log, a.logCloser = cfg, logger, closer
	for _, w := range warnings {
		a.log.Debug(w)
	}
	return nil
}

// openEngine opens the database and loads the engine from it.
func (a *app) openEngine() (*flow.Engine, *store.Store, error) {
	s, err := store.New(a.cfg.Data.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	e := flow.Open(s,
		flow.WithLogger(a.log),
		flow.WithDefaultDailyMinutes(a.cfg.Planning.DailyMinutes),
	)
	for _, w := range e.Warnings() {
		a.log.Warn("state loaded with problems", "detail", w)
	}
	a.log.Debug("engine opened", "db", a.cfg.Data.Path)
	return e, s, nil
}

func (a *app) runTUI() error {
	// The TUI owns the terminal; stderr logging would corrupt the screen.
	if a.cfg.Logging.File == "" {
		a.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e, s, err := a.openEngine()
	if err != nil {
		return err
	}
	defer s.Close()

	m := tui.NewApp(e, tui.Options{
		ExportDir:   a.cfg.Export.Dir,
		Suggestions: a.cfg.Planning.Suggestions,
		Logger:      a.log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
