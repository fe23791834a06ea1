// Package census maintains the per-block "valid checkpoints in this
// block" counter stored in a block's first entry. Callers must gate
// every call on layout.Calculator.InFirstBlock — block 0's first slot
// is the cpfile header, not a checkpoint, and carries no census (the
// first-block exception).
package census

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/codec"
)

// Get returns the current census value stored in block's first slot.
func Get(block []byte, cpsize uint32) (uint32, error) {
	first, err := codec.DecodeEntry(block[:cpsize], cpsize)
	if err != nil {
		return 0, fmt.Errorf("census: decode first slot: %w", err)
	}
	return first.ChecksCount, nil
}

// Adjust adds delta (positive or negative) to the census stored in
// block's first slot and writes it back in place, returning the new
// value.
func Adjust(block []byte, cpsize uint32, delta int32) (uint32, error) {
	first, err := codec.DecodeEntry(block[:cpsize], cpsize)
	if err != nil {
		return 0, fmt.Errorf("census: decode first slot: %w", err)
	}

	newCount := int64(first.ChecksCount) + int64(delta)
	if newCount < 0 {
		return 0, fmt.Errorf("census: count would go negative (have %d, delta %d)", first.ChecksCount, delta)
	}
	first.ChecksCount = uint32(newCount)

	if err := codec.WriteEntry(block, 0, first, cpsize); err != nil {
		return 0, fmt.Errorf("census: write first slot: %w", err)
	}
	return first.ChecksCount, nil
}

// IsEmpty reports whether the census indicates the block holds no
// valid entries and is therefore eligible for reclamation.
func IsEmpty(count uint32) bool { return count == 0 }
