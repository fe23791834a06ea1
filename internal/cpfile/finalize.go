package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// FinalizeCheckpoint publishes root's inode/block counters into cno's
// entry and stamps its creation time, completing the commit that
// CreateCheckpoint began: this is the call that sets the entry's cno
// field, not creation. minor marks the entry MINOR rather than a full
// checkpoint.
func (f *Cpfile) FinalizeCheckpoint(cno types.Cno, root interfaces.Root, blkinc uint64, createTime uint64, minor bool) error {
	if !cno.Valid() {
		return fmt.Errorf("cpfile: finalize_checkpoint cno=%d: %w", cno, types.ErrInval)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		if err == types.ErrNoEnt {
			f.logCorruption(cno, "finalize_checkpoint: entry has no backing block")
			return fmt.Errorf("cpfile: finalize_checkpoint cno=%d: %w", cno, types.ErrIO)
		}
		return fmt.Errorf("cpfile: finalize_checkpoint cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("cpfile: finalize_checkpoint cno=%d: %w", cno, err)
	}

	if entry.Invalid() {
		f.logCorruption(cno, "finalize_checkpoint: entry is INVALID")
		return fmt.Errorf("cpfile: finalize_checkpoint cno=%d: %w", cno, types.ErrIO)
	}

	entry.SslNext = types.CnoNone
	entry.SslPrev = types.CnoNone
	entry.InodesCount = root.InodesCount()
	entry.BlocksCount = root.BlocksCount()
	entry.NblkInc = blkinc
	entry.CreateTime = createTime
	entry.Cno = cno
	if minor {
		entry.Flags |= types.CpFlagMinor
	} else {
		entry.Flags &^= types.CpFlagMinor
	}
	entry.IfileInode = root.IfileInode()

	if err := f.writeEntryAt(blk, cno, entry); err != nil {
		return fmt.Errorf("cpfile: finalize_checkpoint cno=%d: %w", cno, err)
	}

	f.mdt.MarkBufferDirty(blk)
	f.mdt.MarkDirty()
	return nil
}
