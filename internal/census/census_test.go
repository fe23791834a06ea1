package census

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilfs-go/cpfile/internal/codec"
)

const testCpsize = 128

func newBlock(t *testing.T) []byte {
	t.Helper()
	block := make([]byte, 4*testCpsize)
	for slot := uint32(0); slot < 4; slot++ {
		require.NoError(t, codec.MarkInvalid(block, slot*testCpsize, testCpsize))
	}
	return block
}

func TestAdjust_IncrementAndDecrement(t *testing.T) {
	block := newBlock(t)

	got, err := Adjust(block, testCpsize, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), got)

	got, err = Adjust(block, testCpsize, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(3), got)

	got, err = Adjust(block, testCpsize, -3)
	require.NoError(t, err)
	require.True(t, IsEmpty(got))
}

func TestAdjust_RejectsNegativeOverflow(t *testing.T) {
	block := newBlock(t)
	_, err := Adjust(block, testCpsize, -1)
	require.Error(t, err)
}

func TestGet_ReflectsAdjust(t *testing.T) {
	block := newBlock(t)
	_, err := Adjust(block, testCpsize, 4)
	require.NoError(t, err)

	got, err := Get(block, testCpsize)
	require.NoError(t, err)
	require.Equal(t, uint32(4), got)
}
