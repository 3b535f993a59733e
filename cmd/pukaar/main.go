package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pukaarhealth/pukaar/internal/llm"
	"github.com/pukaarhealth/pukaar/internal/orchestrator"
	"github.com/pukaarhealth/pukaar/internal/server"
	"github.com/pukaarhealth/pukaar/pkg/config"
	"github.com/pukaarhealth/pukaar/pkg/observability"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

// Version is set via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "pukaar",
	Short:   "Conversational triage backend for infant health screening",
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("CONFIG_FILE"), "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.Default()
	logger.Printf("Starting Pukaar v%s", Version)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store := buildStore(cfg, logger)
	defer store.Close()

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	logger.Printf("LLM provider: %s", client.Name())

	observability.InitMetrics()

	orch := orchestrator.New(store, client, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(orch, store, logger).Router(cfg.Server.EnableMetrics),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		logger.Println("Shutting down...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	logger.Println("Server stopped")
	return nil
}

// buildStore connects to Redis when configured. When no address is set, or
// Redis is unreachable at startup, it falls back to the in-memory store so the
// service still comes up; those sessions do not survive a restart.
func buildStore(cfg *config.Config, logger *log.Logger) session.Store {
	if cfg.Redis.Addr == "" {
		logger.Println("WARNING: no Redis address configured, using in-memory session store")
		return session.NewMemoryStore()
	}
	store, err := session.NewRedisStore(session.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Printf("WARNING: redis at %s unreachable (%v), using in-memory session store", cfg.Redis.Addr, err)
		return session.NewMemoryStore()
	}
	logger.Printf("Session store: redis at %s", cfg.Redis.Addr)
	return store
}

func buildClient(cfg *config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLM.Provider {
	case "gemini":
		client, err = llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:      cfg.LLM.GeminiKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	case "openai":
		client, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:      cfg.LLM.OpenAIKey,
			Model:       cfg.LLM.Model,
			Temperature: float32(cfg.LLM.Temperature),
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}

	if cfg.LLM.RequestsPerSecond > 0 {
		client = llm.NewLimited(client, cfg.LLM.RequestsPerSecond, 1)
	}
	return client, nil
}
