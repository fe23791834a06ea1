package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/census"
	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// DeleteCheckpoints invalidates every checkpoint entry in [start, end)
// that is not a snapshot. It always completes every non-snapshot
// deletion in range before reporting a snapshot it had to skip: a
// caller that gets ErrBusy back has still had the rest of the range
// deleted.
func (f *Cpfile) DeleteCheckpoints(start, end types.Cno) error {
	if start == types.CnoNone || start > end {
		return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, types.ErrInval)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.deleteCheckpointsLocked(start, end)
}

// DeleteCheckpoint removes the single checkpoint cno, failing with
// ErrBusy if it is a snapshot.
func (f *Cpfile) DeleteCheckpoint(cno types.Cno) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		if err == types.ErrNoEnt {
			return fmt.Errorf("cpfile: delete_checkpoint cno=%d: %w", cno, types.ErrNoEnt)
		}
		return fmt.Errorf("cpfile: delete_checkpoint cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("cpfile: delete_checkpoint cno=%d: %w", cno, err)
	}
	if entry.Invalid() {
		return fmt.Errorf("cpfile: delete_checkpoint cno=%d: %w", cno, types.ErrNoEnt)
	}
	if entry.Snapshot() {
		return fmt.Errorf("cpfile: delete_checkpoint cno=%d: %w", cno, types.ErrBusy)
	}

	return f.deleteCheckpointsLocked(cno, cno+1)
}

// deleteCheckpointsLocked is the shared core of DeleteCheckpoints and
// DeleteCheckpoint. Caller must hold f.mu for writing.
func (f *Cpfile) deleteCheckpointsLocked(start, end types.Cno) error {
	hdr, hdrBlk, err := f.getHeader()
	if err != nil {
		return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, err)
	}

	var totalNicps uint64
	sawSnapshot := false

	cno := start
	for cno < end {
		blk, err := f.getCpBlock(cno, false)
		if err != nil {
			if err == types.ErrNoEnt {
				cno += types.Cno(f.calc.EntriesInRange(cno, end))
				continue
			}
			if headerErr := f.applyHeaderDelete(hdr, hdrBlk, totalNicps); headerErr != nil {
				return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, headerErr)
			}
			return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, err)
		}

		strideLen := f.calc.EntriesInRange(cno, end)
		rangeEnd := cno + types.Cno(strideLen)

		nicps, nss, err := f.deleteRangeInBlock(blk, cno, rangeEnd)
		if err != nil {
			if headerErr := f.applyHeaderDelete(hdr, hdrBlk, totalNicps); headerErr != nil {
				return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, headerErr)
			}
			return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, err)
		}
		totalNicps += nicps
		if nss > 0 {
			sawSnapshot = true
		}

		cno = rangeEnd
	}

	if err := f.applyHeaderDelete(hdr, hdrBlk, totalNicps); err != nil {
		return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, err)
	}

	if sawSnapshot {
		return fmt.Errorf("cpfile: delete_checkpoints [%d, %d): %w", start, end, types.ErrBusy)
	}
	return nil
}

// deleteRangeInBlock invalidates every non-snapshot, non-invalid entry
// in [rangeStart, rangeEnd) — all within a single block — adjusting
// the block's census and reclaiming it if it becomes empty.
func (f *Cpfile) deleteRangeInBlock(blk interfaces.Block, rangeStart, rangeEnd types.Cno) (nicps, nss uint64, err error) {
	for cno := rangeStart; cno < rangeEnd; cno++ {
		entry, err := f.readEntryAt(blk, cno)
		if err != nil {
			return nicps, nss, fmt.Errorf("delete range at cno=%d: %w", cno, err)
		}
		if entry.Invalid() {
			continue
		}
		if entry.Snapshot() {
			nss++
			continue
		}

		entry.Flags |= types.CpFlagInvalid
		if err := f.writeEntryAt(blk, cno, entry); err != nil {
			return nicps, nss, fmt.Errorf("delete range at cno=%d: %w", cno, err)
		}
		nicps++
	}

	if nicps == 0 {
		return nicps, nss, nil
	}

	if !f.calc.InFirstBlock(rangeStart) {
		count, err := census.Adjust(blk.Bytes(), f.cpsize, -int32(nicps))
		if err != nil {
			return nicps, nss, fmt.Errorf("delete range census: %w", err)
		}
		f.mdt.MarkBufferDirty(blk)
		if census.IsEmpty(count) {
			if err := f.deleteCpBlock(blk.Blkoff()); err != nil {
				return nicps, nss, err
			}
		}
	} else {
		f.mdt.MarkBufferDirty(blk)
	}

	return nicps, nss, nil
}

// applyHeaderDelete folds nicps deletions into the header's checkpoint
// count, a no-op when nothing was deleted.
func (f *Cpfile) applyHeaderDelete(hdr *types.HeaderEntry, hdrBlk interfaces.Block, nicps uint64) error {
	if nicps == 0 {
		return nil
	}
	hdr.Ncheckpoints -= nicps
	if err := f.writeHeader(hdr, hdrBlk); err != nil {
		return err
	}
	f.mdt.MarkDirty()
	return nil
}
