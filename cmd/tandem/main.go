// Package main provides the entry point for the tandem TUI.
//
// tandem is a kanban board over a remote task API. The board keeps a local
// copy of the caller's tasks, applies moves optimistically and rolls them
// back when the server refuses.
//
// Usage:
//
//	tandem [-project ID] [-view all|active|backlog|done]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/tandem/internal/app"
	"github.com/riordanpawley/tandem/internal/auth"
	"github.com/riordanpawley/tandem/internal/config"
	"github.com/riordanpawley/tandem/internal/services/gateway"
	"github.com/riordanpawley/tandem/internal/services/network"
	"github.com/riordanpawley/tandem/internal/services/search"
	"github.com/riordanpawley/tandem/internal/services/tasks"
)

func main() {
	project := flag.String("project", "", "project to open (ID or remembered name)")
	view := flag.String("view", "", "initial view: all, active, backlog or done")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *project != "" {
		cfg.Board.DefaultProject = *project
	}
	if *view != "" {
		cfg.Board.DefaultView = *view
	}

	logger, closeLog, err := openLog(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	registry, err := config.LoadProjectsRegistry()
	if err != nil {
		logger.Warn("failed to load project registry", "error", err)
		registry = nil
	}

	client := gateway.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout()}, logger)
	if cfg.Session.TokenFile != "" {
		client = client.WithFallbackCredentials(auth.CachedTokenSource(cfg.Session.TokenFile))
	}

	store := tasks.NewStore(client, logger)
	coordinator := search.NewCoordinator(client, logger, search.Options{
		Debounce: cfg.Search.Debounce(),
		TTL:      cfg.Search.CacheTTL(),
		Capacity: cfg.Search.CacheSize,
	})
	checker := network.NewStatusChecker(cfg.API.BaseURL, logger)

	model := app.New(app.Deps{
		Config:   cfg,
		Session:  cfg.Session.ToSession(),
		Store:    store,
		Search:   coordinator,
		Projects: client,
		Network:  checker,
		Registry: registry,
		Logger:   logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	store.SetSender(program)
	coordinator.SetSender(program)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if every := cfg.Network.CheckInterval; every > 0 {
		go checker.StartMonitoring(ctx, program, time.Duration(every)*time.Second)
	}

	logger.Info("starting", "api", cfg.API.BaseURL, "role", cfg.Session.Role)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	coordinator.Close()
}

// openLog writes structured logs to a file so the terminal stays clean
func openLog(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.Dir, "tandem.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, func() { f.Close() }, nil
}
