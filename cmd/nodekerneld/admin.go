// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

// statusResponse mirrors the fields an operator needs to judge node health
// without a full metrics scrape: finality progress and circuit-breaker state.
type statusResponse struct {
	BreakerState        string `json:"breaker_state"`
	LastFinalizedEpoch  uint64 `json:"last_finalized_epoch,omitempty"`
	LastFinalizedHeight uint64 `json:"last_finalized_height,omitempty"`
	HasFinalized        bool   `json:"has_finalized"`
	PeerCount           int    `json:"peer_count"`
}

func statusHandler(k *Kernel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			BreakerState: k.Finality.GetState().String(),
			PeerCount:    k.Discovery.Stats().TotalPeers,
		}
		if cp, ok := k.Finality.GetLastFinalized(); ok {
			resp.HasFinalized = true
			resp.LastFinalizedEpoch = cp.Epoch
			resp.LastFinalizedHeight = cp.Height
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// resetFromHaltedHandler exposes Gadget.ResetFromHalted over HTTP: the
// circuit breaker's state lives only in process memory (no KV persistence),
// so a separate CLI invocation can only reach it through the running
// process's own admin server.
func resetFromHaltedHandler(k *Kernel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := k.Finality.ResetFromHalted(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func statusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running node's /status endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(fmt.Sprintf("http://%s/status", addr))
			if err != nil {
				return fmt.Errorf("nodekerneld: status request: %w", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "running node's admin address")
	return cmd
}

func resetFromHaltedCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "reset-from-halted",
		Short: "Tell a running node's finality gadget to resume from a halted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Post(fmt.Sprintf("http://%s/reset_from_halted", addr), "", nil)
			if err != nil {
				return fmt.Errorf("nodekerneld: reset_from_halted request: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("nodekerneld: reset_from_halted: %s: %s", resp.Status, string(body))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reset")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "running node's admin address")
	return cmd
}
