package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/census"
	"github.com/nilfs-go/cpfile/internal/types"
)

// CreateCheckpoint establishes cno as a live checkpoint entry, growing
// the cpfile by one block if cno falls past its current end. Creating
// a cno that is already live is idempotent.
func (f *Cpfile) CreateCheckpoint(cno types.Cno) error {
	if !cno.Valid() {
		return fmt.Errorf("cpfile: create_checkpoint cno=%d: %w", cno, types.ErrInval)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	hdr, hdrBlk, err := f.getHeader()
	if err != nil {
		return fmt.Errorf("cpfile: create_checkpoint cno=%d: %w", cno, err)
	}

	blk, err := f.getCpBlock(cno, true)
	if err != nil {
		return fmt.Errorf("cpfile: create_checkpoint cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("cpfile: create_checkpoint cno=%d: %w", cno, err)
	}

	if entry.Invalid() {
		entry.Flags &^= types.CpFlagInvalid
		if err := f.writeEntryAt(blk, cno, entry); err != nil {
			return fmt.Errorf("cpfile: create_checkpoint cno=%d: %w", cno, err)
		}

		if !f.calc.InFirstBlock(cno) {
			if _, err := census.Adjust(blk.Bytes(), f.cpsize, 1); err != nil {
				return fmt.Errorf("cpfile: create_checkpoint cno=%d: census: %w", cno, err)
			}
			f.mdt.MarkBufferDirty(blk)
		}

		hdr.Ncheckpoints++
		if err := f.writeHeader(hdr, hdrBlk); err != nil {
			return fmt.Errorf("cpfile: create_checkpoint cno=%d: %w", cno, err)
		}
	}

	f.mdt.MarkBufferDirty(blk)
	f.mdt.MarkDirty()
	return nil
}
