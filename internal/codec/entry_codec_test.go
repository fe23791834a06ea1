package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilfs-go/cpfile/internal/types"
)

const testCpsize = 128

func TestEncodeDecodeEntry_RoundTrip(t *testing.T) {
	want := &types.CheckpointEntry{
		Flags:       types.CpFlagSnapshot,
		ChecksCount: 3,
		Cno:         42,
		CreateTime:  1700000000,
		NblkInc:     7,
		InodesCount: 100,
		BlocksCount: 200,
		SslNext:     50,
		SslPrev:     30,
		IfileInode:  make(types.RawInode, testCpsize-64),
	}
	copy(want.IfileInode, []byte("deadbeef"))

	buf, err := EncodeEntry(want, testCpsize)
	require.NoError(t, err)
	require.Len(t, buf, testCpsize)

	got, err := DecodeEntry(buf, testCpsize)
	require.NoError(t, err)

	require.Equal(t, want.Flags, got.Flags)
	require.Equal(t, want.ChecksCount, got.ChecksCount)
	require.Equal(t, want.Cno, got.Cno)
	require.Equal(t, want.CreateTime, got.CreateTime)
	require.Equal(t, want.NblkInc, got.NblkInc)
	require.Equal(t, want.InodesCount, got.InodesCount)
	require.Equal(t, want.BlocksCount, got.BlocksCount)
	require.Equal(t, want.SslNext, got.SslNext)
	require.Equal(t, want.SslPrev, got.SslPrev)
	require.Equal(t, []byte(want.IfileInode), []byte(got.IfileInode))
}

func TestDecodeEntry_BufferTooSmall(t *testing.T) {
	_, err := DecodeEntry(make([]byte, 10), testCpsize)
	require.Error(t, err)
}

func TestDecodeEntry_BelowMinimumSize(t *testing.T) {
	_, err := DecodeEntry(make([]byte, 200), 40)
	require.Error(t, err)
}

func TestMarkInvalid(t *testing.T) {
	block := make([]byte, 4*testCpsize)
	require.NoError(t, MarkInvalid(block, testCpsize, testCpsize))

	entry, err := DecodeEntry(block[testCpsize:2*testCpsize], testCpsize)
	require.NoError(t, err)
	require.True(t, entry.Invalid())
	require.Equal(t, types.Cno(0), entry.Cno)
}

func TestEncodeDecodeHeader_RoundTrip(t *testing.T) {
	want := &types.HeaderEntry{
		Ncheckpoints: 12,
		Nsnapshots:   3,
		SslNext:      10,
		SslPrev:      90,
	}

	buf, err := EncodeHeader(want, types.MinHeaderSize)
	require.NoError(t, err)

	got, err := DecodeHeader(buf, types.MinHeaderSize)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestWriteEntry_IntoSharedBuffer(t *testing.T) {
	block := make([]byte, 4*testCpsize)
	e := &types.CheckpointEntry{
		Flags:      0,
		Cno:        5,
		IfileInode: make(types.RawInode, testCpsize-64),
	}

	require.NoError(t, WriteEntry(block, 2*testCpsize, e, testCpsize))

	got, err := DecodeEntry(block[2*testCpsize:3*testCpsize], testCpsize)
	require.NoError(t, err)
	require.Equal(t, types.Cno(5), got.Cno)

	// Neighboring slots are untouched.
	neighbor, err := DecodeEntry(block[testCpsize:2*testCpsize], testCpsize)
	require.NoError(t, err)
	require.Equal(t, types.Cno(0), neighbor.Cno)
}
