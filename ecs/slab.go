package ecs

import (
	"iter"
	"math/bits"
)

const (
	slabBlockSize = 64
)

// slabBlock holds slabBlockSize slots and a bitmask of the occupied ones.
// Blocks are allocated individually so growing the slab never moves a value.
type slabBlock[T any] struct {
	values [slabBlockSize]T
	filled uint64
}

// Slab is a free-list backed vector handing out stable uint32 keys.
// Removed keys are reused by later inserts, most recently freed first.
// The zero value is an empty slab ready for use.
type Slab[T any] struct {
	blocks    []*slabBlock[T]
	freeSlots []uint32
	nextIndex uint32
	len       int
}

// NewSlab creates a slab with room for capacity values before growing.
func NewSlab[T any](capacity int) *Slab[T] {
	s := &Slab[T]{}
	if capacity > 0 {
		s.blocks = make([]*slabBlock[T], 0, (capacity+slabBlockSize-1)/slabBlockSize)
	}
	return s
}

func slabPosition(key uint32) (int, int) {
	return int(key / slabBlockSize), int(key % slabBlockSize)
}

// VacantKey returns the key the next Insert will hand out.
func (s *Slab[T]) VacantKey() uint32 {
	if n := len(s.freeSlots); n > 0 {
		return s.freeSlots[n-1]
	}
	return s.nextIndex
}

// Insert stores item and returns its key.
func (s *Slab[T]) Insert(item T) uint32 {
	var key uint32
	if n := len(s.freeSlots); n > 0 {
		key = s.freeSlots[n-1]
		s.freeSlots = s.freeSlots[:n-1]
	} else {
		key = s.nextIndex
		s.nextIndex++
	}

	blockIdx, slotIdx := slabPosition(key)
	if blockIdx >= len(s.blocks) {
		s.blocks = append(s.blocks, &slabBlock[T]{})
	}

	block := s.blocks[blockIdx]
	block.values[slotIdx] = item
	block.filled |= 1 << slotIdx
	s.len++
	return key
}

// Get returns a pointer to the value stored under key. The pointer stays
// valid until key is removed.
func (s *Slab[T]) Get(key uint32) (*T, bool) {
	blockIdx, slotIdx := slabPosition(key)
	if blockIdx >= len(s.blocks) {
		return nil, false
	}

	block := s.blocks[blockIdx]
	if block.filled&(1<<slotIdx) == 0 {
		return nil, false
	}
	return &block.values[slotIdx], true
}

// Has checks if key is occupied.
func (s *Slab[T]) Has(key uint32) bool {
	_, ok := s.Get(key)
	return ok
}

// Remove frees key and returns the value it held.
func (s *Slab[T]) Remove(key uint32) (T, bool) {
	var zero T

	blockIdx, slotIdx := slabPosition(key)
	if blockIdx >= len(s.blocks) {
		return zero, false
	}

	block := s.blocks[blockIdx]
	if block.filled&(1<<slotIdx) == 0 {
		return zero, false
	}

	item := block.values[slotIdx]
	block.values[slotIdx] = zero // Drop references for the GC
	block.filled &^= 1 << slotIdx
	s.freeSlots = append(s.freeSlots, key)
	s.len--
	return item, true
}

// Len returns the number of occupied slots.
func (s *Slab[T]) Len() int {
	return s.len
}

// Clear removes every value. Previously handed out keys are all reusable,
// starting again from 0.
func (s *Slab[T]) Clear() {
	for _, block := range s.blocks {
		*block = slabBlock[T]{}
	}
	s.blocks = s.blocks[:0]
	s.freeSlots = s.freeSlots[:0]
	s.nextIndex = 0
	s.len = 0
}

// All iterates occupied slots in key order.
func (s *Slab[T]) All() iter.Seq2[uint32, *T] {
	return func(yield func(uint32, *T) bool) {
		for blockIdx := 0; blockIdx < len(s.blocks); blockIdx++ {
			block := s.blocks[blockIdx]
			for filled := block.filled; filled != 0; filled &= filled - 1 {
				slotIdx := bits.TrailingZeros64(filled)
				// Re-check: the consumer may have removed this slot already.
				if block.filled&(1<<slotIdx) == 0 {
					continue
				}
				key := uint32(blockIdx*slabBlockSize + slotIdx)
				if !yield(key, &block.values[slotIdx]) {
					return
				}
			}
		}
	}
}

// Keys iterates occupied keys in order.
func (s *Slab[T]) Keys() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for key := range s.All() {
			if !yield(key) {
				return
			}
		}
	}
}
