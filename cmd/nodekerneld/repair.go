// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/nodekernel/internal/kv"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/internal/storage"
)

// repairIndexCmd runs offline against a data directory that must not be held
// by a running nodekerneld process: it opens LevelDB directly, rebuilds the
// height and transaction indices by scanning the block records, and exits.
func repairIndexCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "repair-index",
		Short: "Rebuild the height and transaction-location indices from stored blocks",
		Long: `repair-index scans every stored block and rebuilds the height (h:) and
transaction-location (t:) secondary indices plus storage metadata. It never
modifies the block records themselves. The data directory must not be in use
by a running nodekerneld process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := kv.OpenLevelDB(dataDir)
			if err != nil {
				return fmt.Errorf("nodekerneld: open data dir %s: %w", dataDir, err)
			}
			defer db.Close()

			a := storage.New(
				storage.DefaultConfig(), db, ports.SystemClock{},
				storage.OSDiskSpaceChecker{}, nil, nil, nil,
			)
			n, err := a.RepairIndex(context.Background())
			if err != nil {
				return fmt.Errorf("nodekerneld: repair index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "repaired indices for %d blocks\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "node data directory")
	cmd.MarkFlagRequired("data-dir")
	return cmd
}
