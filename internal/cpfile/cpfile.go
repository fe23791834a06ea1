// Package cpfile implements the checkpoint file: a dense,
// block-addressable metadata table recording every checkpoint ever
// created, tracking which are promoted to snapshots, and maintaining
// the doubly-linked on-disk snapshot list.
package cpfile

import (
	"fmt"
	"sync"

	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/layout"
	"github.com/nilfs-go/cpfile/internal/types"
)

// Cpfile is an in-memory handle bound to an on-disk cpfile inode. The
// zero value is not usable; obtain one via Read.
//
// All cpfile state is protected by mu, the single per-file
// reader/writer lock. There is no finer-grained locking.
type Cpfile struct {
	mdt  interfaces.MDT
	calc layout.Calculator

	cpsize      uint32
	headerBytes uint32

	mu       sync.RWMutex
	identity string
	corrupt  *corruptionLogger
}

// Read binds a cpfile handle to mdt, validating the entry-size bounds:
// MinCheckpointSize <= cpsize <= blockSize, and headerBytes big enough
// for the header entry but no larger than one slot. identity is
// surfaced in rate-limited corruption diagnostics.
//
// Read may be called again for the same on-disk cpfile; returning the
// same handle on repeated calls is an inode-cache lookup owned by the
// host filesystem, not by this package — callers are expected to
// cache the returned handle themselves and share it across goroutines
// via mu.
func Read(mdt interfaces.MDT, blockSize, cpsize, headerBytes uint32, identity string) (*Cpfile, error) {
	if cpsize < types.MinCheckpointSize || cpsize > blockSize {
		return nil, fmt.Errorf("cpfile_read: entry size %d out of [%d, %d]: %w",
			cpsize, types.MinCheckpointSize, blockSize, types.ErrInval)
	}
	if headerBytes < types.MinHeaderSize || headerBytes > cpsize {
		return nil, fmt.Errorf("cpfile_read: header size %d out of [%d, %d]: %w",
			headerBytes, types.MinHeaderSize, cpsize, types.ErrInval)
	}

	mdt.SetEntrySize(cpsize, headerBytes)

	return &Cpfile{
		mdt:         mdt,
		calc:        layout.NewCalculator(blockSize, cpsize),
		cpsize:      cpsize,
		headerBytes: headerBytes,
		identity:    identity,
		corrupt:     newCorruptionLogger(),
	}, nil
}
