package types

// Cpinfo is the summary record emitted by get_cpinfo for one
// checkpoint: a copy of the fields a caller enumerating checkpoints or
// snapshots needs, without the embedded ifile inode payload.
type Cpinfo struct {
	Flags       CpFlags
	Cno         Cno
	CreateTime  uint64
	NblkInc     uint64
	InodesCount uint64
	BlocksCount uint64

	// Next is the cno this entry would resume enumeration from: in
	// CHECKPOINT mode that is Cno+1; in SNAPSHOT mode it is SslNext
	// (0 translated to CnoIterEnd at the natural end of the list).
	Next Cno
}

// CpMode selects which aggregate change_cpmode applies.
type CpMode int

const (
	// CpModeCheckpoint demotes a snapshot back to a plain checkpoint.
	CpModeCheckpoint CpMode = iota
	// CpModeSnapshot promotes a checkpoint to a persistent snapshot.
	CpModeSnapshot
)

// GetCpinfoMode selects which structure get_cpinfo walks.
type GetCpinfoMode int

const (
	// CpinfoCheckpoint enumerates all valid entries in ascending cno
	// order, skipping holes.
	CpinfoCheckpoint GetCpinfoMode = iota
	// CpinfoSnapshot traverses the snapshot doubly-linked list.
	CpinfoSnapshot
)

// Stat mirrors the aggregate counters get_stat publishes.
type Stat struct {
	Cno   Cno // next_cno at the time of the call
	Ncps  uint64
	Nsss  uint64
}
