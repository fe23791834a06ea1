package cpfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilfs-go/cpfile/internal/blockstore"
	"github.com/nilfs-go/cpfile/internal/types"
)

const (
	testBlockSize   = 512
	testEntrySize   = 128
	testHeaderBytes = 32
)

// newTestCpfile opens a fresh blockstore-backed cpfile with
// entries_per_block = 4, small enough to exercise block-boundary
// crossings (header block, block reclamation, cross-block ranges)
// without large fixtures.
func newTestCpfile(t *testing.T) (*Cpfile, *blockstore.FileStore) {
	t.Helper()

	store, err := blockstore.Open(filepath.Join(t.TempDir(), "cpfile.img"), &blockstore.Config{
		BlockSize:   testBlockSize,
		EntrySize:   testEntrySize,
		HeaderBytes: testHeaderBytes,
		CacheBytes:  1 << 20,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cp, err := Read(store, testBlockSize, testEntrySize, testHeaderBytes, "test")
	require.NoError(t, err)
	return cp, store
}

// advanceTo bumps store's next-cno counter up to and including cno.
func advanceTo(store *blockstore.FileStore, cno types.Cno) {
	for store.Cno() <= cno {
		store.AdvanceCno()
	}
}

func TestFreshCpfile_CreateAllocatesImplicitly(t *testing.T) {
	cp, store := newTestCpfile(t)
	advanceTo(store, 5)

	require.NoError(t, cp.CreateCheckpoint(1))

	stat, err := cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, uint64(1), stat.Ncps)

	require.NoError(t, cp.CreateCheckpoint(5))
	stat, err = cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, uint64(2), stat.Ncps)
}

func TestCreateCheckpoint_Idempotent(t *testing.T) {
	cp, store := newTestCpfile(t)
	advanceTo(store, 1)

	require.NoError(t, cp.CreateCheckpoint(1))
	require.NoError(t, cp.CreateCheckpoint(1))

	stat, err := cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, uint64(1), stat.Ncps)
}

func TestCreateCheckpoint_RejectsNone(t *testing.T) {
	cp, _ := newTestCpfile(t)
	err := cp.CreateCheckpoint(types.CnoNone)
	require.ErrorIs(t, err, types.ErrInval)
}

func TestFinalizeAndReadCheckpoint_RoundTrip(t *testing.T) {
	cp, store := newTestCpfile(t)
	advanceTo(store, 1)

	require.NoError(t, cp.CreateCheckpoint(1))

	ifileInode := make(types.RawInode, testEntrySize-64)
	copy(ifileInode, []byte{1, 2, 3, 4})

	root := NewSimpleRoot()
	root.SetInodesCount(42)
	root.SetBlocksCount(7)
	root.SetIfileInode(ifileInode)

	require.NoError(t, cp.FinalizeCheckpoint(1, root, 3, 1234, false))

	readBack := NewSimpleRoot()
	require.NoError(t, cp.ReadCheckpoint(1, readBack))
	require.Equal(t, uint64(42), readBack.InodesCount())
	require.Equal(t, uint64(7), readBack.BlocksCount())
	require.Equal(t, ifileInode, readBack.IfileInode())
}

func TestFinalizeCheckpoint_InvalidEntrySurfacesCorruption(t *testing.T) {
	cp, store := newTestCpfile(t)
	advanceTo(store, 2)

	// Creating cno 2 allocates block 0, leaving cno 1's slot INVALID.
	require.NoError(t, cp.CreateCheckpoint(2))

	root := NewSimpleRoot()
	err := cp.FinalizeCheckpoint(1, root, 0, 0, false)
	require.ErrorIs(t, err, types.ErrIO)
}

func makeCheckpoint(t *testing.T, cp *Cpfile, store *blockstore.FileStore, cno types.Cno) {
	t.Helper()
	advanceTo(store, cno)
	require.NoError(t, cp.CreateCheckpoint(cno))
	require.NoError(t, cp.FinalizeCheckpoint(cno, NewSimpleRoot(), 1, uint64(cno), false))
}

func TestSnapshotInsertionOrder(t *testing.T) {
	cp, store := newTestCpfile(t)

	makeCheckpoint(t, cp, store, 10)
	makeCheckpoint(t, cp, store, 20)
	makeCheckpoint(t, cp, store, 30)

	require.NoError(t, cp.ChangeCpMode(10, types.CpModeSnapshot, nil))
	require.NoError(t, cp.ChangeCpMode(30, types.CpModeSnapshot, nil))
	require.NoError(t, cp.ChangeCpMode(20, types.CpModeSnapshot, nil))

	stat, err := cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, uint64(3), stat.Nsss)

	cursor := types.Cno(0)
	infos, err := cp.GetCpinfo(&cursor, types.CpinfoSnapshot, 10)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	require.Equal(t, types.Cno(10), infos[0].Cno)
	require.Equal(t, types.Cno(20), infos[1].Cno)
	require.Equal(t, types.Cno(30), infos[2].Cno)
	require.Equal(t, types.CnoIterEnd, infos[2].Next)
}

func TestRangeDeleteSpanningSnapshots(t *testing.T) {
	cp, store := newTestCpfile(t)

	for cno := types.Cno(5); cno <= 9; cno++ {
		makeCheckpoint(t, cp, store, cno)
	}
	require.NoError(t, cp.ChangeCpMode(7, types.CpModeSnapshot, nil))

	statBefore, err := cp.GetStat()
	require.NoError(t, err)

	err = cp.DeleteCheckpoints(5, 10)
	require.ErrorIs(t, err, types.ErrBusy)

	statAfter, err := cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, statBefore.Ncps-4, statAfter.Ncps)
	require.Equal(t, statBefore.Nsss, statAfter.Nsss)

	snap, err := cp.IsSnapshot(7)
	require.NoError(t, err)
	require.True(t, snap)

	for _, cno := range []types.Cno{5, 6, 8, 9} {
		err := cp.ReadCheckpoint(cno, NewSimpleRoot())
		require.ErrorIs(t, err, types.ErrInval)
	}
}

func TestBlockReclamation(t *testing.T) {
	cp, store := newTestCpfile(t)

	for cno := types.Cno(4); cno <= 7; cno++ {
		makeCheckpoint(t, cp, store, cno)
	}

	require.NoError(t, cp.DeleteCheckpoints(4, 8))

	cursor := types.Cno(4)
	infos, err := cp.GetCpinfo(&cursor, types.CpinfoCheckpoint, 10)
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestIterationTerminator(t *testing.T) {
	cp, _ := newTestCpfile(t)

	cursor := types.CnoIterEnd
	infos, err := cp.GetCpinfo(&cursor, types.CpinfoSnapshot, 10)
	require.NoError(t, err)
	require.Empty(t, infos)
	require.Equal(t, types.CnoIterEnd, cursor)
}

func TestSetSnapshotThenClear_RestoresPlainCheckpoint(t *testing.T) {
	cp, store := newTestCpfile(t)
	makeCheckpoint(t, cp, store, 1)

	require.NoError(t, cp.ChangeCpMode(1, types.CpModeSnapshot, nil))
	require.NoError(t, cp.ChangeCpMode(1, types.CpModeCheckpoint, nil))

	snap, err := cp.IsSnapshot(1)
	require.NoError(t, err)
	require.False(t, snap)

	stat, err := cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, uint64(0), stat.Nsss)
}

func TestDeleteCheckpoint_SnapshotIsBusy(t *testing.T) {
	cp, store := newTestCpfile(t)
	makeCheckpoint(t, cp, store, 1)
	require.NoError(t, cp.ChangeCpMode(1, types.CpModeSnapshot, nil))

	err := cp.DeleteCheckpoint(1)
	require.ErrorIs(t, err, types.ErrBusy)
}

func TestRead_RejectsEntrySizeBelowMinimum(t *testing.T) {
	_, err := Read(nil, 64, 32, 16, "bad")
	require.ErrorIs(t, err, types.ErrInval)
}
