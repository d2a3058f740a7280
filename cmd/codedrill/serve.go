package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codedrill/codedrill/internal/config"
	"github.com/codedrill/codedrill/internal/exercise"
	"github.com/codedrill/codedrill/internal/grading"
	"github.com/codedrill/codedrill/internal/llm"
	"github.com/codedrill/codedrill/internal/logging"
	"github.com/codedrill/codedrill/internal/server"
	"github.com/codedrill/codedrill/internal/storage/sqlite"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CodeDrill web server",
	Long: `Start the CodeDrill HTTP server with REST API and WebSocket support.

API endpoints are under /api.

Examples:
  codedrill serve
  codedrill serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(debugFlag)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	sessions, err := newSessionStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer sessions.Close()

	provider, err := cfg.Provider(providerFlag)
	if err != nil {
		return err
	}
	model := provider.Model(modelFlag)

	client := llm.NewClient(provider.BaseURL, provider.APIKey, model)
	box := newSandbox(cfg)
	svc := grading.NewService(client, box, sessions, store, log, gradingOptions(cfg))

	presets, err := loadPresets(cfg)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}

	// Only Ollama exposes a model listing endpoint.
	var models server.ModelLister
	if provider.IsOllama() {
		models = client
	}

	srv := server.New(cfg, store, sessions, svc, models, presets, log)

	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}

func loadPresets(cfg *config.Config) ([]exercise.Preset, error) {
	if cfg.Grading.PresetsPath == "" {
		return exercise.DefaultPresets(), nil
	}
	return exercise.LoadPresets(cfg.Grading.PresetsPath)
}
