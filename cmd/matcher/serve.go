package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"listingmatch/internal/config"
	"listingmatch/internal/observability"
	"listingmatch/internal/session"
	"listingmatch/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review UI",
	Long:  "Start the HTTP server for uploading, reviewing and exporting listings.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	gate, err := config.NewPasswordGate(cfg.AppPassword)
	if err != nil {
		return err
	}
	if !gate.Enabled() {
		log.Println("[Web] APP_PASSWORD not set, the UI is open to anyone who can reach it")
	}

	client, err := connectRedis(context.Background(), cfg)
	if err != nil {
		return err
	}

	var store session.Store = session.NewMemoryStore(cfg.SessionTTL)
	if client != nil {
		defer client.Close()
		store = session.NewRedisStore(client, cfg.SessionTTL)
		log.Printf("[Session] using redis at %s", cfg.RedisURL)
	}

	l, err := newLookup(cfg, client)
	if err != nil {
		return err
	}

	observability.Start(cfg.MetricsPort)

	srv, err := web.New(web.Options{
		Addr:               cfg.Addr,
		Store:              store,
		Lookup:             l,
		Gate:               gate,
		Secret:             cfg.SessionSecret,
		SessionTTL:         cfg.SessionTTL,
		DefaultMarketplace: cfg.DefaultMarketplace,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
