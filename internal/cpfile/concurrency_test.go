package cpfile

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nilfs-go/cpfile/internal/blockstore"
	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// pausingMDT wraps a *blockstore.FileStore and, once armed, blocks the
// next GetBlock call until release is closed. It lets a test hold a
// reader's RLock open long enough to observe a concurrent writer
// blocking on it.
type pausingMDT struct {
	*blockstore.FileStore

	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newPausingMDT(store *blockstore.FileStore) *pausingMDT {
	return &pausingMDT{
		FileStore: store,
		reached:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (p *pausingMDT) GetBlock(blkoff uint64, create bool, initFn func(interfaces.Block)) (interfaces.Block, error) {
	if p.armed.CompareAndSwap(true, false) {
		close(p.reached)
		<-p.release
	}
	return p.FileStore.GetBlock(blkoff, create, initFn)
}

// TestGetCpinfoSnapshot_BlocksConcurrentChangeCpMode exercises the
// single reader/writer lock guarding all cpfile state: a long-running
// GetCpinfo(SNAPSHOT) holding the read lock must make a concurrent
// ChangeCpMode wait for it, and the mutation must still be correct
// once the reader releases.
func TestGetCpinfoSnapshot_BlocksConcurrentChangeCpMode(t *testing.T) {
	store, err := blockstore.Open(filepath.Join(t.TempDir(), "cpfile.img"), &blockstore.Config{
		BlockSize:   testBlockSize,
		EntrySize:   testEntrySize,
		HeaderBytes: testHeaderBytes,
		CacheBytes:  1 << 20,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mdt := newPausingMDT(store)
	cp, err := Read(mdt, testBlockSize, testEntrySize, testHeaderBytes, "concurrency")
	require.NoError(t, err)

	advanceTo(store, 1)
	require.NoError(t, cp.CreateCheckpoint(1))
	require.NoError(t, cp.FinalizeCheckpoint(1, NewSimpleRoot(), 1, 1, false))

	mdt.armed.Store(true)

	cursor := types.CnoNone
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		_, err := cp.GetCpinfo(&cursor, types.CpinfoSnapshot, 10)
		require.NoError(t, err)
	}()

	<-mdt.reached // reader holds mu.RLock and is paused mid-read

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		require.NoError(t, cp.ChangeCpMode(1, types.CpModeSnapshot, nil))
	}()

	select {
	case <-writerDone:
		t.Fatal("ChangeCpMode completed while a GetCpinfo read was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(mdt.release)
	<-readerDone
	<-writerDone

	snap, err := cp.IsSnapshot(1)
	require.NoError(t, err)
	require.True(t, snap)

	stat, err := cp.GetStat()
	require.NoError(t, err)
	require.Equal(t, uint64(1), stat.Nsss)
}
