// Package interfaces holds the contracts cpfile consumes from its
// external collaborators: the metadata-inode layer (MDT), the root
// object a checkpoint is read into, and the mount layer. None of these
// are implemented here — internal/blockstore provides a concrete MDT
// for tests and the CLI; production callers supply their own.
package interfaces

import "github.com/nilfs-go/cpfile/internal/types"

// Block is a short-lived mapping of one block's backing memory,
// acquired from the MDT. A caller must drop a Block before fetching
// another one from the same backing store.
type Block interface {
	// Bytes returns the block's raw contents. Mutations are visible
	// to the MDT immediately; persistence happens when the caller
	// calls MDT.MarkBufferDirty and, eventually, the segment writer
	// flushes.
	Bytes() []byte

	// Blkoff is the block offset this mapping backs.
	Blkoff() uint64
}

// MDT is the metadata-inode layer contract: block-addressed get/find/
// delete against a sparse file, plus the monotone next-cno counter.
// Block allocation policy, journaling, and crash-recovery replay are
// the MDT's responsibility, not the cpfile's.
type MDT interface {
	// Cno returns the current monotone "next checkpoint number"
	// counter.
	Cno() types.Cno

	// GetBlock fetches the block at blkoff. If create is false and
	// the block is a hole, it returns types.ErrNoEnt. If create is
	// true and the block does not exist, the MDT allocates it and
	// invokes initFn on the fresh backing memory before returning,
	// so the caller can establish an initial state (e.g. all slots
	// INVALID) atomically with allocation.
	GetBlock(blkoff uint64, create bool, initFn func(Block)) (Block, error)

	// FindBlock scans [startBlkoff, endBlkoff] for the next block
	// offset that actually exists, returning types.ErrNoEnt if none
	// does in range.
	FindBlock(startBlkoff, endBlkoff uint64) (foundBlkoff uint64, b Block, err error)

	// DeleteBlock removes the block at blkoff. Callers must have
	// already ensured it holds no valid entries.
	DeleteBlock(blkoff uint64) error

	// MarkDirty marks the cpfile's own inode dirty.
	MarkDirty()

	// MarkBufferDirty marks a fetched block dirty so the segment
	// writer will persist it.
	MarkBufferDirty(b Block)

	// SetEntrySize records the checkpoint entry size and the number
	// of header-reserved bytes in slot 0 of block 0, at mount.
	SetEntrySize(cpsize, headerBytes uint32)
}
