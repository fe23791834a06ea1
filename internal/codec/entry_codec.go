// Package codec reads and writes the fixed-size on-disk checkpoint
// records and the cpfile header. All multi-byte fields are
// little-endian on disk.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/nilfs-go/cpfile/internal/types"
)

// DecodeEntry parses a cpsize-sized checkpoint record out of data.
// data must be at least cpsize bytes; only the leading cpsize bytes
// are consulted.
func DecodeEntry(data []byte, cpsize uint32) (*types.CheckpointEntry, error) {
	if uint32(len(data)) < cpsize {
		return nil, fmt.Errorf("codec: entry buffer too small: have %d bytes, need %d", len(data), cpsize)
	}
	if cpsize < types.MinCheckpointSize {
		return nil, fmt.Errorf("codec: entry size %d below minimum %d", cpsize, types.MinCheckpointSize)
	}

	e := &types.CheckpointEntry{}
	e.Flags = types.CpFlags(binary.LittleEndian.Uint32(data[0:4]))
	e.ChecksCount = binary.LittleEndian.Uint32(data[4:8])
	e.Cno = types.Cno(binary.LittleEndian.Uint64(data[8:16]))
	e.CreateTime = binary.LittleEndian.Uint64(data[16:24])
	e.NblkInc = binary.LittleEndian.Uint64(data[24:32])
	e.InodesCount = binary.LittleEndian.Uint64(data[32:40])
	e.BlocksCount = binary.LittleEndian.Uint64(data[40:48])
	e.SslNext = types.Cno(binary.LittleEndian.Uint64(data[48:56]))
	e.SslPrev = types.Cno(binary.LittleEndian.Uint64(data[56:64]))

	e.IfileInode = make(types.RawInode, cpsize-64)
	copy(e.IfileInode, data[64:cpsize])

	return e, nil
}

// EncodeEntry serializes e into a cpsize-sized record, returning a
// freshly allocated buffer.
func EncodeEntry(e *types.CheckpointEntry, cpsize uint32) ([]byte, error) {
	if cpsize < types.MinCheckpointSize {
		return nil, fmt.Errorf("codec: entry size %d below minimum %d", cpsize, types.MinCheckpointSize)
	}

	buf := make([]byte, cpsize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(e.Flags))
	binary.LittleEndian.PutUint32(buf[4:8], e.ChecksCount)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Cno))
	binary.LittleEndian.PutUint64(buf[16:24], e.CreateTime)
	binary.LittleEndian.PutUint64(buf[24:32], e.NblkInc)
	binary.LittleEndian.PutUint64(buf[32:40], e.InodesCount)
	binary.LittleEndian.PutUint64(buf[40:48], e.BlocksCount)
	binary.LittleEndian.PutUint64(buf[48:56], uint64(e.SslNext))
	binary.LittleEndian.PutUint64(buf[56:64], uint64(e.SslPrev))
	copy(buf[64:cpsize], e.IfileInode)

	return buf, nil
}

// WriteEntry encodes e and copies it into dst at the given slot
// offset, without allocating a fresh block-sized buffer.
func WriteEntry(dst []byte, slotOff uint32, e *types.CheckpointEntry, cpsize uint32) error {
	enc, err := EncodeEntry(e, cpsize)
	if err != nil {
		return err
	}
	if uint32(len(dst)) < slotOff+cpsize {
		return fmt.Errorf("codec: destination buffer too small for slot at offset %d", slotOff)
	}
	copy(dst[slotOff:slotOff+cpsize], enc)
	return nil
}

// DecodeHeader parses the header entry occupying slot 0 of block 0.
func DecodeHeader(data []byte, headerBytes uint32) (*types.HeaderEntry, error) {
	if uint32(len(data)) < headerBytes {
		return nil, fmt.Errorf("codec: header buffer too small: have %d bytes, need %d", len(data), headerBytes)
	}
	if headerBytes < types.MinHeaderSize {
		return nil, fmt.Errorf("codec: header size %d below minimum %d", headerBytes, types.MinHeaderSize)
	}

	h := &types.HeaderEntry{}
	h.Ncheckpoints = binary.LittleEndian.Uint64(data[0:8])
	h.Nsnapshots = binary.LittleEndian.Uint64(data[8:16])
	h.SslNext = types.Cno(binary.LittleEndian.Uint64(data[16:24]))
	h.SslPrev = types.Cno(binary.LittleEndian.Uint64(data[24:32]))

	return h, nil
}

// EncodeHeader serializes h into a headerBytes-sized record.
func EncodeHeader(h *types.HeaderEntry, headerBytes uint32) ([]byte, error) {
	if headerBytes < types.MinHeaderSize {
		return nil, fmt.Errorf("codec: header size %d below minimum %d", headerBytes, types.MinHeaderSize)
	}

	buf := make([]byte, headerBytes)
	binary.LittleEndian.PutUint64(buf[0:8], h.Ncheckpoints)
	binary.LittleEndian.PutUint64(buf[8:16], h.Nsnapshots)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.SslNext))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.SslPrev))
	return buf, nil
}

// WriteHeader encodes h and copies it into dst at offset 0.
func WriteHeader(dst []byte, h *types.HeaderEntry, headerBytes uint32) error {
	enc, err := EncodeHeader(h, headerBytes)
	if err != nil {
		return err
	}
	if uint32(len(dst)) < headerBytes {
		return fmt.Errorf("codec: destination buffer too small for header")
	}
	copy(dst[:headerBytes], enc)
	return nil
}

// MarkInvalid writes a bare INVALID entry (all other fields zero) at
// slotOff, the state a freshly allocated block's slots start in: a
// block is allocated lazily, and on allocation every checkpoint slot in
// it is written INVALID.
func MarkInvalid(dst []byte, slotOff uint32, cpsize uint32) error {
	return WriteEntry(dst, slotOff, &types.CheckpointEntry{
		Flags:      types.CpFlagInvalid,
		IfileInode: make(types.RawInode, cpsize-64),
	}, cpsize)
}
