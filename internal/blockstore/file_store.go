// Package blockstore is a concrete, file-backed implementation of the
// MDT contract: lazy block allocation over a sparse backing file, a
// block cache, and the monotone next-cno counter. It exists so the
// cpfile package is runnable and testable without a full filesystem;
// block allocation policy, journaling, and crash-recovery replay
// remain out of scope for the same reason they're out of scope for
// cpfile itself — this is a reference MDT, not a production one.
package blockstore

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/nilfs-go/cpfile/internal/interfaces"
	"github.com/nilfs-go/cpfile/internal/types"
)

// memBlock is a short-lived mapping of one cached block's backing
// memory (interfaces.Block).
type memBlock struct {
	data   []byte
	blkoff uint64
}

func (b *memBlock) Bytes() []byte  { return b.data }
func (b *memBlock) Blkoff() uint64 { return b.blkoff }

// FileStore is a single-file, single-process MDT stand-in. It is
// safe for concurrent use.
type FileStore struct {
	file      *os.File
	blockSize uint32
	volumeID  uuid.UUID

	mu        sync.RWMutex
	allocated map[uint64]struct{}
	cache     map[uint64][]byte
	dirty     map[uint64]bool

	nextCno    atomic.Uint64
	inodeDirty atomic.Bool

	maxCacheBytes int
	cacheBytes    int
}

// Open creates or opens a backing file at path and returns a
// FileStore ready to serve as the cpfile's MDT.
func Open(path string, cfg *Config) (*FileStore, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockstore: open %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("blockstore: lock %s: %w", path, err)
	}

	s := &FileStore{
		file:          file,
		blockSize:     cfg.BlockSize,
		volumeID:      uuid.New(),
		allocated:     make(map[uint64]struct{}),
		cache:         make(map[uint64][]byte),
		dirty:         make(map[uint64]bool),
		maxCacheBytes: cfg.CacheBytes,
	}
	s.nextCno.Store(1)
	return s, nil
}

// Close flushes dirty blocks and releases the backing file.
func (s *FileStore) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// VolumeID returns the store's stamped identifier.
func (s *FileStore) VolumeID() uuid.UUID { return s.volumeID }

// AdvanceCno simulates the external MDT advancing its monotone
// counter, the way a real caller would after committing a new
// checkpoint's transaction. Not part of interfaces.MDT — production
// callers get this from their real MDT.
func (s *FileStore) AdvanceCno() types.Cno {
	return types.Cno(s.nextCno.Add(1) - 1)
}

// Cno implements interfaces.MDT.
func (s *FileStore) Cno() types.Cno {
	return types.Cno(s.nextCno.Load())
}

// GetBlock implements interfaces.MDT.
func (s *FileStore) GetBlock(blkoff uint64, create bool, initFn func(interfaces.Block)) (interfaces.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, ok := s.cache[blkoff]; ok {
		return &memBlock{data: data, blkoff: blkoff}, nil
	}

	if _, ok := s.allocated[blkoff]; !ok {
		if !create {
			return nil, types.ErrNoEnt
		}
		data := make([]byte, s.blockSize)
		blk := &memBlock{data: data, blkoff: blkoff}
		if initFn != nil {
			initFn(blk)
		}
		s.allocated[blkoff] = struct{}{}
		s.cacheLocked(blkoff, data)
		s.dirty[blkoff] = true
		return blk, nil
	}

	data := make([]byte, s.blockSize)
	_, err := s.file.ReadAt(data, int64(blkoff)*int64(s.blockSize))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("blockstore: read block %d: %w", blkoff, types.ErrIO)
	}
	s.cacheLocked(blkoff, data)
	return &memBlock{data: data, blkoff: blkoff}, nil
}

// FindBlock implements interfaces.MDT: scan for the next allocated
// block offset in [start, end].
func (s *FileStore) FindBlock(start, end uint64) (uint64, interfaces.Block, error) {
	s.mu.RLock()
	found := uint64(0)
	ok := false
	for off := start; off <= end; off++ {
		if _, present := s.allocated[off]; present {
			found = off
			ok = true
			break
		}
	}
	s.mu.RUnlock()

	if !ok {
		return 0, nil, types.ErrNoEnt
	}

	blk, err := s.GetBlock(found, false, nil)
	if err != nil {
		return 0, nil, err
	}
	return found, blk, nil
}

// DeleteBlock implements interfaces.MDT.
func (s *FileStore) DeleteBlock(blkoff uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.allocated[blkoff]; !ok {
		return nil
	}
	delete(s.allocated, blkoff)
	if data, ok := s.cache[blkoff]; ok {
		s.cacheBytes -= len(data)
		delete(s.cache, blkoff)
	}
	delete(s.dirty, blkoff)
	return nil
}

// MarkDirty implements interfaces.MDT.
func (s *FileStore) MarkDirty() {
	s.inodeDirty.Store(true)
}

// MarkBufferDirty implements interfaces.MDT.
func (s *FileStore) MarkBufferDirty(b interfaces.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[b.Blkoff()] = true
}

// SetEntrySize implements interfaces.MDT. The backing file itself
// doesn't need these, and the store does not record them.
func (s *FileStore) SetEntrySize(cpsize, headerBytes uint32) {
	// No-op beyond acknowledging the call: geometry lives in Config,
	// and cpfile.Cpfile is the owner of cpsize/headerBytes for the
	// lifetime of the handle.
}

// cacheLocked installs data into the cache, evicting arbitrarily
// (oldest-iterated-first, since Go map order is unspecified — this is
// a reference cache, not an LRU) when over budget. Caller holds mu.
func (s *FileStore) cacheLocked(blkoff uint64, data []byte) {
	s.cache[blkoff] = data
	s.cacheBytes += len(data)
	for s.cacheBytes > s.maxCacheBytes && len(s.cache) > 1 {
		for off := range s.cache {
			if s.dirty[off] || off == blkoff {
				continue
			}
			s.cacheBytes -= len(s.cache[off])
			delete(s.cache, off)
			break
		}
		break
	}
}

// Flush writes every dirty block back to the backing file and syncs
// it, standing in for the segment writer's transaction flush that
// guarantees dirty blocks reach disk before the inode is considered
// clean.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for off, isDirty := range s.dirty {
		if !isDirty {
			continue
		}
		data, ok := s.cache[off]
		if !ok {
			continue
		}
		if _, err := s.file.WriteAt(data, int64(off)*int64(s.blockSize)); err != nil {
			return fmt.Errorf("blockstore: write block %d: %w", off, err)
		}
		s.dirty[off] = false
	}

	if err := unix.Fdatasync(int(s.file.Fd())); err != nil {
		return fmt.Errorf("blockstore: fdatasync: %w", err)
	}

	s.inodeDirty.Store(false)
	return nil
}
