package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/codec"
	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// initBlock returns the MDT initFn that establishes a freshly
// allocated block's starting state: block 0 additionally carries the
// header in slot 0, every other slot of every block starts INVALID.
func (f *Cpfile) initBlock(blkoff uint64) func(interfaces.Block) {
	return func(b interfaces.Block) {
		data := b.Bytes()
		first := uint64(0)
		if blkoff == 0 {
			_ = codec.WriteHeader(data, &types.HeaderEntry{}, f.headerBytes)
			first = 1
		}
		for slot := first; slot < f.calc.EntriesPerBlock; slot++ {
			_ = codec.MarkInvalid(data, uint32(slot)*f.cpsize, f.cpsize)
		}
	}
}

// getHeaderBlock fetches block 0, the header block, creating it if it
// does not yet exist.
func (f *Cpfile) getHeaderBlock() (interfaces.Block, error) {
	blk, err := f.mdt.GetBlock(0, true, f.initBlock(0))
	if err != nil {
		return nil, fmt.Errorf("cpfile: get header block: %w", err)
	}
	return blk, nil
}

// getHeader fetches and decodes the header entry.
func (f *Cpfile) getHeader() (*types.HeaderEntry, interfaces.Block, error) {
	blk, err := f.getHeaderBlock()
	if err != nil {
		return nil, nil, err
	}
	hdr, err := codec.DecodeHeader(blk.Bytes(), f.headerBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("cpfile: decode header: %w", err)
	}
	return hdr, blk, nil
}

// writeHeader encodes hdr back into blk and marks it dirty.
func (f *Cpfile) writeHeader(hdr *types.HeaderEntry, blk interfaces.Block) error {
	if err := codec.WriteHeader(blk.Bytes(), hdr, f.headerBytes); err != nil {
		return fmt.Errorf("cpfile: write header: %w", err)
	}
	f.mdt.MarkBufferDirty(blk)
	return nil
}

// getCpBlock fetches the block holding cno, creating it (and
// establishing its starting state) when create is true.
func (f *Cpfile) getCpBlock(cno types.Cno, create bool) (interfaces.Block, error) {
	blkoff := f.calc.BlkOff(cno)
	blk, err := f.mdt.GetBlock(blkoff, create, f.initBlock(blkoff))
	if err != nil {
		return nil, err
	}
	return blk, nil
}

// findCpBlock locates the next block in [startCno, endCno] that
// actually exists, skipping holes. It returns the cno that block's
// first live slot could hold — the caller resumes scanning from there.
func (f *Cpfile) findCpBlock(startCno, endCno types.Cno) (types.Cno, interfaces.Block, error) {
	startBlk := f.calc.BlkOff(startCno)
	endBlk := f.calc.BlkOff(endCno)

	foundBlkoff, blk, err := f.mdt.FindBlock(startBlk, endBlk)
	if err != nil {
		return 0, nil, err
	}

	resumeCno := f.calc.FirstCnoOfBlock(foundBlkoff)
	if foundBlkoff == startBlk && resumeCno < startCno {
		resumeCno = startCno
	}
	return resumeCno, blk, nil
}

// deleteCpBlock removes a block that census has determined holds no
// more live entries.
func (f *Cpfile) deleteCpBlock(blkoff uint64) error {
	if err := f.mdt.DeleteBlock(blkoff); err != nil {
		return fmt.Errorf("cpfile: delete block %d: %w", blkoff, err)
	}
	return nil
}

// readEntryAt decodes the entry for cno out of blk.
func (f *Cpfile) readEntryAt(blk interfaces.Block, cno types.Cno) (*types.CheckpointEntry, error) {
	slotOff := uint32(f.calc.Slot(cno)) * f.cpsize
	data := blk.Bytes()
	if uint32(len(data)) < slotOff+f.cpsize {
		return nil, fmt.Errorf("cpfile: slot for cno %d out of block bounds: %w", cno, types.ErrIO)
	}
	e, err := codec.DecodeEntry(data[slotOff:slotOff+f.cpsize], f.cpsize)
	if err != nil {
		return nil, fmt.Errorf("cpfile: decode entry at cno %d: %w", cno, err)
	}
	return e, nil
}

// writeEntryAt encodes e into blk's slot for cno and marks blk dirty.
func (f *Cpfile) writeEntryAt(blk interfaces.Block, cno types.Cno, e *types.CheckpointEntry) error {
	slotOff := uint32(f.calc.Slot(cno)) * f.cpsize
	if err := codec.WriteEntry(blk.Bytes(), slotOff, e, f.cpsize); err != nil {
		return fmt.Errorf("cpfile: write entry at cno %d: %w", cno, err)
	}
	f.mdt.MarkBufferDirty(blk)
	return nil
}
