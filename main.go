// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/cliparse"
	"github.com/danielhkuo/lunch-poll/db"
	"github.com/danielhkuo/lunch-poll/kvstore"
	"github.com/danielhkuo/lunch-poll/metrics"
	"github.com/danielhkuo/lunch-poll/middleware"
	"github.com/danielhkuo/lunch-poll/poll"
	"github.com/danielhkuo/lunch-poll/router"
	"github.com/danielhkuo/lunch-poll/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	// Connect to the candidate database
	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		slog.Error("invalid database type", "error", err)
		os.Exit(1)
	}
	dbConn, err := db.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, dialect); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", dialect)

	// Session store
	kv, err := openKV(cfg)
	if err != nil {
		slog.Error("session store unavailable", "backend", cfg.SessionBackend, "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	slog.Info("Session store ready", "backend", cfg.SessionBackend)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := candidates.NewSQLStore(dbConn, dialect)
	ctrl := poll.New(session.NewStore(kv, cfg.KeyPrefix), store,
		poll.WithMetrics(metrics.New(reg)),
		poll.WithSeedCount(cfg.SeedCount),
		poll.WithStoreTimeout(cfg.StoreTimeout),
		poll.WithDecayConcurrency(cfg.DecayConcurrency),
	)

	// Create router
	mux := router.NewRouter(ctrl, store, reg, cfg)
	if cfg.SigningSecret == "" {
		slog.Warn("SIGNING_SECRET not set, poll routes accept unsigned requests")
	}

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		slog.Error("listen failed", "addr", server.Addr, "error", err)
		os.Exit(1)
	}

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	if err := serve(&server, ln, ctrlc, shutdownTimeout); err != nil {
		slog.Error("Server closed", "error", err)
		return
	}
	slog.Info("Server closed")
}

// serve runs server on ln until stop fires, then drains in-flight requests
// for at most timeout. It returns only after the drain has finished.
func serve(server *http.Server, ln net.Listener, stop <-chan os.Signal, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Wait for Ctrl-C signal, then let in-flight closes finish
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	err := server.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// setupLogging installs a text handler on terminals and JSON everywhere else.
func setupLogging(cfg cliparse.Config) {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openKV(cfg cliparse.Config) (kvstore.KV, error) {
	switch cfg.SessionBackend {
	case cliparse.BackendMemory:
		return kvstore.NewMemory(), nil
	case cliparse.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		r, err := kvstore.NewRedis(ctx, kvstore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	case cliparse.BackendBadger:
		b, err := kvstore.NewBadger(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
}
