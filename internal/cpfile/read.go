package cpfile

import (
	"bytes"
	"fmt"

	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// ReadCheckpoint populates root from cno's committed entry. A hole
// for an in-range cno is treated the same as an INVALID entry rather
// than escalated to corruption: block reclamation after
// DeleteCheckpoints legitimately removes the last backing block of a
// range of now-deleted cnos, so absence here is an ordinary "no such
// checkpoint", unlike the freshly-created block FinalizeCheckpoint
// expects to find.
func (f *Cpfile) ReadCheckpoint(cno types.Cno, root interfaces.Root) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	next := f.mdt.Cno()
	if cno == types.CnoNone || cno >= next {
		return fmt.Errorf("cpfile: read_checkpoint cno=%d: %w", cno, types.ErrInval)
	}

	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		if err == types.ErrNoEnt {
			return fmt.Errorf("cpfile: read_checkpoint cno=%d: %w", cno, types.ErrInval)
		}
		return fmt.Errorf("cpfile: read_checkpoint cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("cpfile: read_checkpoint cno=%d: %w", cno, err)
	}

	if entry.Invalid() {
		return fmt.Errorf("cpfile: read_checkpoint cno=%d: %w", cno, types.ErrInval)
	}

	if allZero(entry.IfileInode) {
		f.logCorruption(cno, "read_checkpoint: ifile inode payload deserializes to all zero")
		return fmt.Errorf("cpfile: read_checkpoint cno=%d: %w", cno, types.ErrIO)
	}

	root.SetIfileInode(entry.IfileInode)
	root.SetInodesCount(entry.InodesCount)
	root.SetBlocksCount(entry.BlocksCount)
	return nil
}

func allZero(b []byte) bool {
	return len(b) == 0 || bytes.Count(b, []byte{0}) == len(b)
}
