// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/luxfi/nodekernel/internal/config"
	"github.com/luxfi/nodekernel/internal/kv"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/internal/storage"
)

func runCmd() *cobra.Command {
	var configPath string
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the node kernel and its admin HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKernel(configPath, inMemory)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults used if empty)")
	cmd.Flags().BoolVar(&inMemory, "memory", false, "use an in-memory KV store instead of LevelDB (testing only)")
	return cmd
}

func runKernel(configPath string, inMemory bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("nodekerneld: invalid config: %w", err)
	}

	log := nodelog.NewNoOp()

	var store ports.KeyValueStore
	if inMemory {
		store = kv.NewMemory()
	} else {
		lock, err := storage.AcquireDataDirLock(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("nodekerneld: acquire data dir lock: %w", err)
		}
		defer lock.Release()

		db, err := kv.OpenLevelDB(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("nodekerneld: open data dir %s: %w", cfg.DataDir, err)
		}
		defer db.Close()
		store = db
	}

	self, err := loadOrCreateNodeID(cfg.DataDir)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	k, err := buildKernel(cfg, self, store, log, promReg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	k.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", statusHandler(k))
	mux.HandleFunc("/reset_from_halted", resetFromHaltedHandler(k))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("nodekerneld: admin server stopped", "error", err.Error())
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	return srv.Close()
}
