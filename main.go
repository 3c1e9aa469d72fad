package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/config"
	"github.com/sadopc/suivi/internal/logging"
	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
	"github.com/sadopc/suivi/internal/tui"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "suivi",
		Short:         "Weekly activity timesheets",
		Long:          "Record how each working day splits across clients and activities, and export the result for payroll.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ./suivi.yaml or ~/.config/suivi/suivi.yaml)")

	rootCmd.AddCommand(serveCmd(), exportCmd(), userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// deps is what every command opens from the config.
type deps struct {
	cfg    *config.Config
	logger *logging.Logger
	store  *store.Store
	auth   *auth.Service
	weeks  *timesheet.Service
}

func (d *deps) Close() {
	d.store.Close()
	d.logger.Close()
}

type loggerFunc func(path, level string) (*logging.Logger, error)

func open(newLogger loggerFunc) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		logger.Error("open database", zap.String("path", cfg.Database.Path), zap.Error(err))
		logger.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	cat := cfg.Catalog()
	return &deps{
		cfg:    cfg,
		logger: logger,
		store:  s,
		auth: auth.NewService(s, auth.Config{
			Secret:    cfg.Auth.JWTSecret,
			TokenTTL:  cfg.Auth.TokenTTL,
			ResetTTL:  cfg.Auth.ResetTTL,
			Positions: cat.Positions,
			Logger:    logger.Named("auth"),
		}),
		weeks: timesheet.NewService(s, cat, logger.Named("timesheet")),
	}, nil
}

func runTUI() error {
	d, err := open(logging.ForTerminal)
	if err != nil {
		return err
	}
	defer d.Close()

	app := tui.NewApp(d.store, d.auth, d.weeks, d.logger.Named("tui"))
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
