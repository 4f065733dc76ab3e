// Package cli is the habitask command line. The bare command opens the
// terminal UI; subcommands script the same store.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitask/internal/config"
	"github.com/sadopc/habitask/internal/logging"
	"github.com/sadopc/habitask/internal/store"
	"github.com/sadopc/habitask/internal/tui"
)

// env is what every command shares once the config is loaded.
type env struct {
	cfgPath string
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
}

// setup loads config and logging. The store is opened lazily by open.
func (e *env) setup() error {
	cfg, err := config.Load(e.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	e.cfg = cfg
	e.log = logging.NewOrNop(cfg.Log)
	return nil
}

func (e *env) open() (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	s, err := store.New(e.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", e.cfg.Database.Path, err)
	}
	e.store = s
	e.log.Debug("database opened", zap.String("path", e.cfg.Database.Path))
	return s, nil
}

func (e *env) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Error("close database", zap.Error(err))
		}
		e.store = nil
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

// newRootCmd builds the command tree. The caller closes the returned env.
func newRootCmd(version string) (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:   "habitask",
		Short: "habitask - tasks, habits and pomodoros in your terminal",
		Long: `habitask keeps a task list, habit tracker and pomodoro timer in one local
SQLite database. Run it without arguments to open the terminal UI.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(e)
		},
	}
	root.PersistentFlags().StringVar(&e.cfgPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(taskCmd(e))
	root.AddCommand(habitCmd(e))
	root.AddCommand(statsCmd(e))
	root.AddCommand(exportCmd(e))
	root.AddCommand(configCmd(e))
	root.AddCommand(versionCmd(version))
	return root, e
}

// Execute runs the root command
func Execute(version string) error {
	root, e := newRootCmd(version)
	defer e.close()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func runTUI(e *env) error {
	s, err := e.open()
	if err != nil {
		return err
	}
	if err := s.RefreshStreaks(); err != nil {
		e.log.Warn("refresh streaks", zap.Error(err))
	}

	e.log.Info("starting tui", zap.String("database", e.cfg.Database.Path))
	app := tui.NewApp(s, e.log, e.cfg.Export.Dir)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		e.log.Error("tui exited", zap.Error(err))
		return err
	}
	return nil
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "habitask %s\n", version)
		},
	}
}
