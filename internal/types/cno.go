package types

// Cno is the 64-bit checkpoint number, the primary key of a checkpoint
// entry. Valid checkpoints occupy [1, next) where next is the
// MDT-maintained monotone counter.
type Cno uint64

const (
	// CnoNone is the reserved sentinel meaning "no checkpoint".
	CnoNone Cno = 0

	// CnoIterEnd is the reserved snapshot-iteration terminator (~0).
	CnoIterEnd Cno = ^Cno(0)
)

// Valid reports whether c could address a real checkpoint, i.e. is
// neither the "none" sentinel nor the iteration terminator.
func (c Cno) Valid() bool {
	return c != CnoNone && c != CnoIterEnd
}
