// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataDirLock_ExclusiveWithinProcess(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireDataDirLock(dir)
	require.NoError(t, err)

	_, err = AcquireDataDirLock(dir)
	require.ErrorIs(t, err, ErrDataDirLocked)

	require.NoError(t, lock.Release())

	lock2, err := AcquireDataDirLock(dir)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}
