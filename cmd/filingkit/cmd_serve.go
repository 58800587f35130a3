// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/alpinetax/filingkit/cmd/filingkit/config"
	"github.com/alpinetax/filingkit/pkg/logging"
	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
	"github.com/alpinetax/filingkit/services/filing/handlers"
	"github.com/alpinetax/filingkit/services/filing/notify"
	"github.com/alpinetax/filingkit/services/filing/poll"
	"github.com/alpinetax/filingkit/services/filing/routes"
	filingstorage "github.com/alpinetax/filingkit/services/filing/storage"
	filingbadger "github.com/alpinetax/filingkit/services/filing/storage/badger"
	"github.com/alpinetax/filingkit/services/filing/submit"
	"github.com/alpinetax/filingkit/services/filing/transfer"
	"github.com/alpinetax/filingkit/services/filing/upload"
	"github.com/alpinetax/filingkit/services/filing/wizard"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the filing services and HTTP API",
	RunE:  runServe,
}

// runServe is the composition root. Every service is constructed here and
// passed down explicitly; nothing below this function reaches for globals.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "filingkit",
	})
	defer logger.Close()
	log := logger.Slog()

	badgerCfg := filingbadger.DefaultConfig(cfg.Storage.Path)
	if cfg.Storage.InMemory {
		badgerCfg = filingbadger.InMemoryConfig()
	}
	badgerCfg.Logger = log
	db, err := filingbadger.Open(badgerCfg)
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	defer db.Close()

	store := filingstorage.NewStore(db, log)
	metrics := filing.NewMetrics()
	emitter := events.NewEmitter(events.WithLogger(log))

	tokens := filing.StaticTokenSource{
		User:   cfg.Backend.UserID,
		Bearer: cfg.Backend.Token,
	}

	client := backend.NewClient(cfg.Backend.BaseURL, backend.WithLogger(log))

	var gateway *transfer.GCSClient
	if cfg.Transfer.ServiceAccountKeyPath != "" {
		gateway, err = transfer.NewGCSClient(cmd.Context(), cfg.Transfer.Bucket, cfg.Transfer.ServiceAccountKeyPath)
	} else {
		gateway, err = transfer.NewGCSClientWithDefaults(cmd.Context(), cfg.Transfer.Bucket)
	}
	if err != nil {
		return fmt.Errorf("connect cloud storage: %w", err)
	}
	defer gateway.Close()

	session := wizard.NewSession(store, tokens.UserID(),
		wizard.WithLogger(log),
		wizard.WithMetrics(metrics),
	)
	if err := session.Load(cmd.Context()); err != nil {
		return fmt.Errorf("load wizard state: %w", err)
	}

	coordinator := upload.NewCoordinator(gateway, session, emitter,
		upload.WithLogger(log),
		upload.WithMetrics(metrics),
	)
	submitter := submit.NewSubmitter(client, emitter, log)
	poller := poll.NewPoller(client, store, emitter,
		poll.WithLogger(log),
		poll.WithMetrics(metrics),
	)

	notifStore := notify.NewStore()
	triggers := notify.NewTriggers(notifStore, notify.NopNotifier{}, log).WithMetrics(metrics)
	notifService := notify.NewService(emitter, triggers, log)
	defer notifService.Close()

	// Polling only makes sense with a signed-in session.
	if cfg.Backend.Token != "" {
		poller.Start(cfg.Backend.Token)
		defer poller.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Register(router, handlers.NewHandlers(handlers.Deps{
		Session:     session,
		Coordinator: coordinator,
		Submitter:   submitter,
		Poller:      poller,
		Store:       notifStore,
		Triggers:    triggers,
		Client:      client,
		Tokens:      tokens,
		Emitter:     emitter,
		Log:         log,
	}))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("filingkit listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	}

	// Pending autosaves and in-flight uploads settle before the HTTP
	// surface goes away.
	session.Flush()
	coordinator.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
