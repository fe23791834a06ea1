package types

// CpFlags holds the bit flags carried in a checkpoint entry's header
// word.
type CpFlags uint32

const (
	// CpFlagInvalid marks a slot that does not hold a live checkpoint.
	CpFlagInvalid CpFlags = 1 << 0

	// CpFlagSnapshot marks a checkpoint promoted to a persistent
	// snapshot and threaded onto the snapshot list.
	CpFlagSnapshot CpFlags = 1 << 1

	// CpFlagMinor marks a "minor" checkpoint (see finalize_checkpoint).
	CpFlagMinor CpFlags = 1 << 2

	// cpFlagReservedMask covers bits 3..31, reserved by the format.
	cpFlagReservedMask CpFlags = ^CpFlags(0) &^ (CpFlagInvalid | CpFlagSnapshot | CpFlagMinor)
)

// Has reports whether all bits of want are set in f.
func (f CpFlags) Has(want CpFlags) bool { return f&want == want }

// RawInode is the embedded, opaque on-disk representation of a
// checkpoint's ifile root inode. The ifile layer owns its byte format;
// the cpfile only stores and copies it verbatim.
type RawInode []byte

// MinCheckpointSize is the smallest entry size the lifecycle binding
// (cpfile_read) will accept, fixed fields plus a minimal ifile inode
// slot.
const MinCheckpointSize = fixedEntryFieldsSize + minIfileInodeSize

// minIfileInodeSize is the smallest usable reservation for the
// embedded ifile root inode.
const minIfileInodeSize = 64

// Fixed on-disk byte offsets within a checkpoint entry. All multi-byte
// fields are little-endian on disk.
const (
	offFlags             = 0
	offChecksCount        = 4
	offCno                = 8
	offCreateTime         = 16
	offNblkInc            = 24
	offInodesCount        = 32
	offBlocksCount        = 40
	offSslNext            = 48
	offSslPrev            = 56
	offIfileInode         = 64
	fixedEntryFieldsSize = offIfileInode
)

// MinHeaderSize is the smallest acceptable header_bytes reservation:
// the four fixed 64-bit fields of HeaderEntry.
const MinHeaderSize = 32

// Fixed on-disk byte offsets within the header entry (slot 0 of block
// 0).
const (
	offHdrNcheckpoints = 0
	offHdrNsnapshots   = 8
	offHdrSslNext      = 16
	offHdrSslPrev      = 24
)

// CheckpointEntry is the decoded, in-memory form of a single
// fixed-size on-disk checkpoint record.
type CheckpointEntry struct {
	Flags CpFlags

	// ChecksCount ("checkpoints_count") is meaningful only in the
	// first slot of a block other than block 0: block 0's first slot
	// holds the header entry instead of a per-block census, so it
	// never carries this count.
	ChecksCount uint32

	Cno         Cno
	CreateTime  uint64
	NblkInc     uint64
	InodesCount uint64
	BlocksCount uint64

	// SslNext/SslPrev thread the snapshot doubly-linked list. 0
	// encodes "header sentinel is the neighbor".
	SslNext Cno
	SslPrev Cno

	IfileInode RawInode
}

// Invalid reports whether the entry's INVALID bit is set.
func (e *CheckpointEntry) Invalid() bool { return e.Flags.Has(CpFlagInvalid) }

// Snapshot reports whether the entry's SNAPSHOT bit is set.
func (e *CheckpointEntry) Snapshot() bool { return e.Flags.Has(CpFlagSnapshot) }

// Minor reports whether the entry's MINOR bit is set.
func (e *CheckpointEntry) Minor() bool { return e.Flags.Has(CpFlagMinor) }

// HeaderEntry is the decoded form of the sentinel record occupying
// slot 0 of block 0.
type HeaderEntry struct {
	Ncheckpoints uint64
	Nsnapshots   uint64

	// SslNext/SslPrev are the snapshot-list sentinel pointers: next
	// points at the smallest snapshot cno (0 if the list is empty),
	// prev at the largest.
	SslNext Cno
	SslPrev Cno
}
