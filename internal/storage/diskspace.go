// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "syscall"

// DiskSpaceChecker reports the fraction of free space remaining on the
// filesystem backing path. Injected so tests never touch the real disk
// (spec.md §4.2 step 3c's "minimum free disk" check).
type DiskSpaceChecker interface {
	FreeRatio(path string) (float64, error)
}

// OSDiskSpaceChecker is the production checker, backed by statfs(2).
type OSDiskSpaceChecker struct{}

func (OSDiskSpaceChecker) FreeRatio(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	if total == 0 {
		return 1, nil
	}
	free := stat.Bavail * uint64(stat.Bsize)
	return float64(free) / float64(total), nil
}

// FixedDiskSpaceChecker always reports the same ratio; used in tests.
type FixedDiskSpaceChecker struct {
	Ratio float64
}

func (f FixedDiskSpaceChecker) FreeRatio(string) (float64, error) {
	return f.Ratio, nil
}
