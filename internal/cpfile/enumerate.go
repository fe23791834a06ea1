package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// GetCpinfo enumerates up to max entries starting from *cursor,
// advancing *cursor to resume enumeration on the next call. mode
// selects whether the packed array (CpinfoCheckpoint) or the snapshot
// list (CpinfoSnapshot) is walked.
func (f *Cpfile) GetCpinfo(cursor *types.Cno, mode types.GetCpinfoMode, max int) ([]types.Cpinfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	switch mode {
	case types.CpinfoCheckpoint:
		return f.getCpinfoCheckpoint(cursor, max)
	case types.CpinfoSnapshot:
		return f.getCpinfoSnapshot(cursor, max)
	default:
		return nil, fmt.Errorf("cpfile: get_cpinfo mode=%d: %w", mode, types.ErrInval)
	}
}

func (f *Cpfile) getCpinfoCheckpoint(cursor *types.Cno, max int) ([]types.Cpinfo, error) {
	if *cursor == types.CnoNone {
		return nil, fmt.Errorf("cpfile: get_cpinfo: %w", types.ErrNoEnt)
	}

	next := f.mdt.Cno()
	result := make([]types.Cpinfo, 0, max)

	cno := *cursor
	var blk interfaces.Block
	blkLoaded := false

	for len(result) < max && cno < next {
		if !blkLoaded {
			resumeCno, b, err := f.findCpBlock(cno, next-1)
			if err != nil {
				if err == types.ErrNoEnt {
					cno = next
					break
				}
				return nil, fmt.Errorf("cpfile: get_cpinfo: %w", err)
			}
			cno = resumeCno
			blk = b
			blkLoaded = true
		}

		for len(result) < max && cno < next {
			entry, err := f.readEntryAt(blk, cno)
			if err != nil {
				return nil, fmt.Errorf("cpfile: get_cpinfo: %w", err)
			}
			if !entry.Invalid() {
				result = append(result, types.Cpinfo{
					Flags:       entry.Flags,
					Cno:         cno,
					CreateTime:  entry.CreateTime,
					NblkInc:     entry.NblkInc,
					InodesCount: entry.InodesCount,
					BlocksCount: entry.BlocksCount,
					Next:        cno + 1,
				})
			}
			cno++
			if f.calc.Slot(cno) == 0 {
				blkLoaded = false
				break
			}
		}
	}

	if len(result) > 0 {
		*cursor = result[len(result)-1].Next
	} else {
		*cursor = cno
	}
	return result, nil
}

func (f *Cpfile) getCpinfoSnapshot(cursor *types.Cno, max int) ([]types.Cpinfo, error) {
	if *cursor == types.CnoIterEnd {
		return nil, nil
	}

	hdr, _, err := f.getHeader()
	if err != nil {
		return nil, fmt.Errorf("cpfile: get_cpinfo: %w", err)
	}

	cno := *cursor
	if cno == types.CnoNone {
		cno = hdr.SslNext
		if cno == types.CnoNone {
			*cursor = types.CnoIterEnd
			return nil, nil
		}
	}

	result := make([]types.Cpinfo, 0, max)
	var blk interfaces.Block
	var blkOff uint64
	blkLoaded := false

	for len(result) < max && cno != types.CnoNone {
		wantBlk := f.calc.BlkOff(cno)
		if !blkLoaded || wantBlk != blkOff {
			b, err := f.getCpBlock(cno, false)
			if err != nil {
				if err == types.ErrNoEnt {
					f.logCorruption(cno, "get_cpinfo: snapshot list points at a hole")
					break
				}
				return nil, fmt.Errorf("cpfile: get_cpinfo: %w", err)
			}
			blk = b
			blkOff = wantBlk
			blkLoaded = true
		}

		entry, err := f.readEntryAt(blk, cno)
		if err != nil {
			return nil, fmt.Errorf("cpfile: get_cpinfo: %w", err)
		}
		if entry.Invalid() || !entry.Snapshot() {
			f.logCorruption(cno, "get_cpinfo: snapshot list points at a non-snapshot entry")
			break
		}

		next := entry.SslNext
		nextReported := next
		if nextReported == types.CnoNone {
			nextReported = types.CnoIterEnd
		}
		result = append(result, types.Cpinfo{
			Flags:       entry.Flags,
			Cno:         cno,
			CreateTime:  entry.CreateTime,
			NblkInc:     entry.NblkInc,
			InodesCount: entry.InodesCount,
			BlocksCount: entry.BlocksCount,
			Next:        nextReported,
		})

		cno = next
	}

	if len(result) > 0 {
		*cursor = result[len(result)-1].Next
	}
	return result, nil
}
