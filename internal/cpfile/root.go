package cpfile

import (
	"sync/atomic"

	"github.com/nilfs-go/cpfile/internal/types"
)

// SimpleRoot is a minimal interfaces.Root: atomics publish the shared
// counters so other filesystem paths can read them without taking the
// cpfile lock. It is what the tests pass to ReadCheckpoint and
// FinalizeCheckpoint; a real mount supplies its own ifile-backed Root.
type SimpleRoot struct {
	inodes atomic.Uint64
	blocks atomic.Uint64
	inode  atomic.Pointer[types.RawInode]
}

func NewSimpleRoot() *SimpleRoot { return &SimpleRoot{} }

func (r *SimpleRoot) SetInodesCount(v uint64) { r.inodes.Store(v) }
func (r *SimpleRoot) InodesCount() uint64     { return r.inodes.Load() }
func (r *SimpleRoot) SetBlocksCount(v uint64) { r.blocks.Store(v) }
func (r *SimpleRoot) BlocksCount() uint64     { return r.blocks.Load() }

func (r *SimpleRoot) SetIfileInode(raw types.RawInode) {
	cp := make(types.RawInode, len(raw))
	copy(cp, raw)
	r.inode.Store(&cp)
}

func (r *SimpleRoot) IfileInode() types.RawInode {
	p := r.inode.Load()
	if p == nil {
		return nil
	}
	return *p
}
