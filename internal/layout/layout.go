// Package layout implements the cpfile block-layout calculator: pure
// arithmetic mapping a checkpoint number to a (block offset, slot)
// pair and back, with no I/O of its own.
package layout

import "github.com/nilfs-go/cpfile/internal/types"

// firstEntryOffset (F) accounts for slot 0 of block 0 being the
// cpfile header, never a checkpoint, so the first checkpoint entry is
// offset by one slot.
const firstEntryOffset = 1

// Calculator converts between checkpoint numbers and their on-disk
// (block offset, slot) addresses for a cpfile whose entries-per-block
// count is fixed at mount time.
type Calculator struct {
	// EntriesPerBlock is E: how many checkpoint-entry-sized slots
	// fit in one block (block_size / entry_size).
	EntriesPerBlock uint64
}

// NewCalculator derives E from the block and entry sizes recorded at
// mount time.
func NewCalculator(blockSize, entrySize uint32) Calculator {
	return Calculator{EntriesPerBlock: uint64(blockSize) / uint64(entrySize)}
}

// BlkOff returns the block offset holding cno. cno must be >= 1.
func (c Calculator) BlkOff(cno types.Cno) uint64 {
	return (uint64(cno) + firstEntryOffset - 1) / c.EntriesPerBlock
}

// Slot returns the intra-block slot index holding cno.
func (c Calculator) Slot(cno types.Cno) uint64 {
	return (uint64(cno) + firstEntryOffset - 1) % c.EntriesPerBlock
}

// FirstCnoOfBlock returns the smallest cno stored in block b.
func (c Calculator) FirstCnoOfBlock(b uint64) types.Cno {
	return types.Cno(c.EntriesPerBlock*b + 1 - firstEntryOffset)
}

// EntriesInRange returns how many consecutive slots starting at cno,
// within its own block and below max, should be visited in one stride
// — the step size block-at-a-time loops (delete_checkpoints,
// get_cpinfo) use to avoid crossing a block boundary mid-iteration.
func (c Calculator) EntriesInRange(cno types.Cno, max types.Cno) uint64 {
	untilBlockEnd := c.EntriesPerBlock - c.Slot(cno)
	untilMax := uint64(max) - uint64(cno)
	if untilBlockEnd < untilMax {
		return untilBlockEnd
	}
	return untilMax
}

// InFirstBlock reports whether cno lives in block 0 — the
// first-block exception that gates every census update: block 0's
// slot 0 holds the header instead of a census, so it is never
// counted or reclaimed like an ordinary checkpoint block.
func (c Calculator) InFirstBlock(cno types.Cno) bool {
	return c.BlkOff(cno) == 0
}
