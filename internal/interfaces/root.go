package interfaces

import "github.com/nilfs-go/cpfile/internal/types"

// Root is the caller-supplied object read_checkpoint populates. Its
// inodes/blocks counters are read by other filesystem paths without
// taking the cpfile lock, so implementations must publish them with
// 64-bit atomic stores.
type Root interface {
	SetInodesCount(v uint64)
	SetBlocksCount(v uint64)
	InodesCount() uint64
	BlocksCount() uint64

	SetIfileInode(raw types.RawInode)
	IfileInode() types.RawInode
}

// MountChecker answers whether a checkpoint is currently mounted,
// consumed by change_cpmode's demotion to a plain checkpoint (a
// mounted snapshot cannot be demoted). It is owned by the mount
// layer, out of scope here.
type MountChecker interface {
	IsMounted(cno types.Cno) bool
}
