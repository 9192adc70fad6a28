// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command nodekerneld runs the node kernel: peer discovery, mempool,
// transaction indexing, state trie, consensus, block storage, and finality,
// wired together over the internal event bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nodekerneld",
	Short: "Node kernel: the consensus-adjacent core of a Lux-family blockchain node",
	Long: `nodekerneld runs the subsystems that sit between a validated block candidate
and a committed, finalized chain: peer discovery, mempool admission, transaction
indexing, state trie maintenance, consensus validation, block storage, and the
Casper-style finality gadget. It is not a P2P transport, RPC server, or
chain-sync client — those are left to the surrounding deployment.`,
}

func main() {
	rootCmd.AddCommand(
		runCmd(),
		repairIndexCmd(),
		statusCmd(),
		resetFromHaltedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
