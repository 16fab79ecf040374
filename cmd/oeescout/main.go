package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/oeescout/internal/api"
	"github.com/csheth/oeescout/internal/config"
	"github.com/csheth/oeescout/internal/logging"
	"github.com/csheth/oeescout/internal/tui"
)

type app struct {
	configPath  string
	apiURL      string
	noAltScreen bool
	verbose     bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "oeescout",
		Short: "Chat with your OEE production data",
		Long: `oeescout talks to the OEE analytics backend.

Run without arguments to start the interactive dashboard: upload a
dataset, narrow it with device, location and month filters, and ask
questions. The latest OEE breakdown is charted next to the conversation
together with recommendations derived from it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./oeescout.yaml or ./config/oeescout.yaml)")
	flags.StringVar(&a.apiURL, "api-url", "", "OEE backend base URL (overrides api.base_url)")
	flags.BoolVar(&a.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAskCmd(a),
		newUploadCmd(a),
		newFiltersCmd(a),
		newHealthCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	if a.noAltScreen {
		cfg.UI.AltScreen = false
	}
	a.cfg = cfg

	// The dashboard owns the terminal, so only it logs to a file.
	opts := logging.Options{Level: cfg.Log.Level, Verbose: a.verbose}
	if cmd == cmd.Root() {
		opts.Path = cfg.Log.Path
	}
	logger, err := logging.New(opts)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) backend() (api.Backend, error) {
	return api.New(api.Config{BaseURL: a.cfg.API.BaseURL, Logger: a.logger})
}

func (a *app) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.API.Timeout)
}

func (a *app) runInteractive() error {
	backend, err := a.backend()
	if err != nil {
		return err
	}
	a.logger.Info("starting dashboard", zap.String("backend", backend.Name()))

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if a.cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:        backend,
			Logger:         a.logger,
			RequestTimeout: a.cfg.API.Timeout,
		}),
		opts...,
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
