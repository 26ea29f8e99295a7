package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"whendropped/internal/aggregate"
	"whendropped/internal/config"
	"whendropped/internal/logger"
	"whendropped/internal/provider/musicbrainz"
	"whendropped/internal/provider/tmdb"
	"whendropped/internal/provider/tvmaze"
	"whendropped/internal/provider/wikipedia"
	"whendropped/internal/web"
)

func main() {
	var (
		port       int
		verbose    bool
		configPath string
	)

	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.Port = port
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger with file logging
	l := logger.New(cfg.Verbose)
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = config.DefaultLogPath()
	}
	if err := os.MkdirAll(logDir, 0755); err == nil {
		logPath := filepath.Join(logDir, fmt.Sprintf("whendropped-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	if cfg.TMDBToken == "" {
		l.Warn("No TMDB token configured; the film panel will always be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mb := musicbrainz.New(cfg.MusicBrainzURL, cfg.UserAgent)
	wiki := wikipedia.New(cfg.WikipediaURL)
	tv := tvmaze.New(cfg.TVMazeURL)
	films := tmdb.New(cfg.TMDBURL, cfg.TMDBToken)

	hub := web.NewHub(l)
	manager := aggregate.NewManager(ctx, hub, l, mb, wiki, tv, films)
	server := web.NewServer(manager, hub, cfg, l)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		l.Info("Starting web server on port %d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Server error: %v", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	l.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("Server shutdown error: %v", err)
	}

	l.Info("Server stopped")
}
