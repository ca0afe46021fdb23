package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"leftasrain/internal/config"
	"leftasrain/internal/leftasrain"
	"leftasrain/internal/logger"
	"leftasrain/internal/shutdown"
	"leftasrain/internal/web"
)

func main() {
	var (
		addr       string
		configPath string
		verbose    bool
	)

	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides listen_addr)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.BoolVar(&verbose, "verbose", false, "Log every request")
	flag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.ListenAddr = addr
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
	if err := l.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(config.GetDefaultLogPath(), fmt.Sprintf("leftasrain-web-%d.log", time.Now().Unix()))
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
		if err := l.SetFileLog(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
		}
	}
	defer l.Close()

	sh := shutdown.New()
	sh.Listen()
	defer sh.Stop()

	client := leftasrain.New(cfg.ClientConfig(), l)
	if err := client.LoadDB(); err != nil {
		l.Warn("Ignoring song cache: %v", err)
	} else {
		l.Info("Loaded %d cached songs from %s", client.Len(), client.DBFile())
	}

	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(sh.Context())
	server := web.NewServer(sh.Context(), client, jobMgr, cfg, l)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info("Starting web server on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Server error: %v", err)
			sh.Shutdown()
		}
	}()

	<-sh.Context().Done()

	l.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		l.Error("Server shutdown error: %v", err)
	}

	if err := server.SaveDB(); err != nil {
		l.Error("Failed to save song cache: %v", err)
	}

	l.Info("Server stopped")
}
