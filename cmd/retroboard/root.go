package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yonagi/retroboard/board"
	"github.com/yonagi/retroboard/config"
	"github.com/yonagi/retroboard/feed"
	"github.com/yonagi/retroboard/gateway"
	"github.com/yonagi/retroboard/session"
	"github.com/yonagi/retroboard/ui"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "retroboard",
	Short: "A terminal client for collaborative sprint retrospectives",
	Long: `Retroboard joins password-protected retrospective rooms, shows the
three-column board in your terminal and keeps it live as other
participants add, edit, vote on and move sticky notes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// app is everything a subcommand needs to launch the UI.
type app struct {
	cfg     config.Config
	orc     *board.Orchestrator
	log     *logrus.Logger
	logFile io.Closer
}

// buildApp wires config, logger, session store, gateway, feed subscriber
// and orchestrator. The log goes to a file: the terminal belongs to the
// TUI while the program runs.
func buildApp() (*app, error) {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	log := logrus.New()
	logFile, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(logFile)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	sessions := session.NewStore(cfg.SessionFile(), log)

	gw, err := gateway.New(gateway.Config{
		BaseURL:  cfg.ServerURL,
		Sessions: sessions,
		Logger:   log,
	})
	if err != nil {
		logFile.Close()
		return nil, err
	}

	subscriber := feed.NewSubscriber(cfg.ServerURL, log)
	orc := board.NewOrchestrator(gw, sessions,
		func(ctx context.Context, roomID, token string) (board.Subscription, error) {
			return subscriber.Subscribe(ctx, roomID, token)
		}, log)

	return &app{cfg: cfg, orc: orc, log: log, logFile: logFile}, nil
}

// runUI runs the program and tears the app down afterwards.
func (a *app) runUI(opts ui.Options) error {
	defer a.logFile.Close()
	opts.Orchestrator = a.orc
	opts.Logger = a.log
	_, err := ui.NewProgram(opts).Run()
	return err
}
