package cpfile

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// ChangeCpMode promotes cno to a snapshot or demotes it back to a
// plain checkpoint.
func (f *Cpfile) ChangeCpMode(cno types.Cno, mode types.CpMode, mounted interfaces.MountChecker) error {
	switch mode {
	case types.CpModeSnapshot:
		return f.setSnapshot(cno)
	case types.CpModeCheckpoint:
		if mounted != nil && mounted.IsMounted(cno) {
			return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, types.ErrBusy)
		}
		return f.clearSnapshot(cno)
	default:
		return fmt.Errorf("cpfile: change_cpmode cno=%d mode=%d: %w", cno, mode, types.ErrInval)
	}
}

// IsSnapshot reports whether cno is currently a snapshot.
func (f *Cpfile) IsSnapshot(cno types.Cno) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if cno == types.CnoNone || cno >= f.mdt.Cno() {
		return false, fmt.Errorf("cpfile: is_snapshot cno=%d: %w", cno, types.ErrNoEnt)
	}

	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		if err == types.ErrNoEnt {
			return false, fmt.Errorf("cpfile: is_snapshot cno=%d: %w", cno, types.ErrNoEnt)
		}
		return false, fmt.Errorf("cpfile: is_snapshot cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return false, fmt.Errorf("cpfile: is_snapshot cno=%d: %w", cno, err)
	}
	if entry.Invalid() {
		return false, fmt.Errorf("cpfile: is_snapshot cno=%d: %w", cno, types.ErrNoEnt)
	}
	return entry.Snapshot(), nil
}

// getLink returns the (next, prev) neighbors of node, where cno == 0
// addresses the header sentinel rather than a real entry.
func (f *Cpfile) getLink(cno types.Cno, hdr *types.HeaderEntry) (next, prev types.Cno, err error) {
	if cno == types.CnoNone {
		return hdr.SslNext, hdr.SslPrev, nil
	}
	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		return 0, 0, fmt.Errorf("get_link cno=%d: %w", cno, err)
	}
	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return 0, 0, fmt.Errorf("get_link cno=%d: %w", cno, err)
	}
	return entry.SslNext, entry.SslPrev, nil
}

// setLinkPrev rewrites node's SslPrev pointer (or the header's, if
// node is the sentinel) and marks the owning block dirty.
func (f *Cpfile) setLinkPrev(cno types.Cno, hdr *types.HeaderEntry, hdrBlk interfaces.Block, prev types.Cno) error {
	if cno == types.CnoNone {
		hdr.SslPrev = prev
		return f.writeHeader(hdr, hdrBlk)
	}
	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		return fmt.Errorf("set_link_prev cno=%d: %w", cno, err)
	}
	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("set_link_prev cno=%d: %w", cno, err)
	}
	entry.SslPrev = prev
	return f.writeEntryAt(blk, cno, entry)
}

// setLinkNext rewrites node's SslNext pointer (or the header's, if
// node is the sentinel) and marks the owning block dirty.
func (f *Cpfile) setLinkNext(cno types.Cno, hdr *types.HeaderEntry, hdrBlk interfaces.Block, next types.Cno) error {
	if cno == types.CnoNone {
		hdr.SslNext = next
		return f.writeHeader(hdr, hdrBlk)
	}
	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		return fmt.Errorf("set_link_next cno=%d: %w", cno, err)
	}
	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("set_link_next cno=%d: %w", cno, err)
	}
	entry.SslNext = next
	return f.writeEntryAt(blk, cno, entry)
}

// setSnapshot threads cno onto the snapshot doubly-linked list in
// descending order from the tail, promoting it and bumping the
// header's snapshot count. Already-a-snapshot is idempotent.
func (f *Cpfile) setSnapshot(cno types.Cno) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		if err == types.ErrNoEnt {
			return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, types.ErrNoEnt)
		}
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}
	if entry.Invalid() {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, types.ErrNoEnt)
	}
	if entry.Snapshot() {
		return nil
	}

	hdr, hdrBlk, err := f.getHeader()
	if err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	curr := types.CnoNone
	prev := hdr.SslPrev
	for prev != types.CnoNone && prev > cno {
		curr = prev
		_, p, err := f.getLink(prev, hdr)
		if err != nil {
			return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
		}
		prev = p
	}

	if err := f.setLinkPrev(curr, hdr, hdrBlk, cno); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	entry.SslNext = curr
	entry.SslPrev = prev
	entry.Flags |= types.CpFlagSnapshot
	if err := f.writeEntryAt(blk, cno, entry); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	if err := f.setLinkNext(prev, hdr, hdrBlk, cno); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	hdr.Nsnapshots++
	if err := f.writeHeader(hdr, hdrBlk); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	f.mdt.MarkDirty()
	return nil
}

// clearSnapshot unthreads cno from the snapshot list and demotes it
// back to a plain checkpoint. Already-not-a-snapshot is idempotent.
func (f *Cpfile) clearSnapshot(cno types.Cno) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blk, err := f.getCpBlock(cno, false)
	if err != nil {
		if err == types.ErrNoEnt {
			return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, types.ErrNoEnt)
		}
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	entry, err := f.readEntryAt(blk, cno)
	if err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}
	if entry.Invalid() {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, types.ErrNoEnt)
	}
	if !entry.Snapshot() {
		return nil
	}

	hdr, hdrBlk, err := f.getHeader()
	if err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	next := entry.SslNext
	prev := entry.SslPrev

	if err := f.setLinkPrev(next, hdr, hdrBlk, prev); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}
	if err := f.setLinkNext(prev, hdr, hdrBlk, next); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	entry.SslNext = types.CnoNone
	entry.SslPrev = types.CnoNone
	entry.Flags &^= types.CpFlagSnapshot
	if err := f.writeEntryAt(blk, cno, entry); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	hdr.Nsnapshots--
	if err := f.writeHeader(hdr, hdrBlk); err != nil {
		return fmt.Errorf("cpfile: change_cpmode cno=%d: %w", cno, err)
	}

	f.mdt.MarkDirty()
	return nil
}
