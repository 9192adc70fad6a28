// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PassesValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoad_NoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodekernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/nodekernel
mempool:
  max_size: 1000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/nodekernel", cfg.DataDir)
	require.Equal(t, 1000, cfg.Mempool.MaxSize)
	// Untouched fields keep their defaults.
	require.Equal(t, DefaultConfig().Mempool.MaxBatchCount, cfg.Mempool.MaxBatchCount)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverlaysDefaults(t *testing.T) {
	t.Setenv("NODEKERNEL_DATA_DIR", "/from/env")
	t.Setenv("NODEKERNEL_METRICS_ADDR", ":1234")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/from/env", cfg.DataDir)
	require.Equal(t, ":1234", cfg.MetricsAddr)
}

func TestValidate_RejectsEmptyDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = ""
	require.ErrorIs(t, cfg.Validate(), ErrDataDirEmpty)
}

func TestValidate_RejectsBadJustificationFraction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Finality.JustificationNumerator = 3
	cfg.Finality.JustificationDenominator = 3
	require.ErrorIs(t, cfg.Validate(), ErrJustificationFractionBad)
}

func TestValidate_RejectsZeroBucketSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discovery.BucketSize = 0
	require.ErrorIs(t, cfg.Validate(), ErrBucketSizeTooLow)
}

func TestValidate_RejectsUndersizedMempool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mempool.MaxSize = 1
	cfg.Mempool.MaxBatchCount = 2_000
	require.ErrorIs(t, cfg.Validate(), ErrMempoolSizeTooLow)
}
