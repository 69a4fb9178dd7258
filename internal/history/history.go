// Package history keeps the bounded undo/redo trail of generated images.
//
// Entries live in a fixed-size ring so the capacity bound holds by
// construction. The cursor ranges over [-1, Len()-1]; -1 selects the
// original upload rather than a generated entry.
package history

import "github.com/manash/retouch/pkg/models"

// Capacity is the number of generated results kept for undo.
const Capacity = 5

type Store struct {
	ring  [Capacity]*models.Image
	start int
	n     int
	index int
}

func New() *Store {
	return &Store{index: -1}
}

func (s *Store) Len() int { return s.n }

func (s *Store) Index() int { return s.index }

func (s *Store) at(i int) *models.Image {
	return s.ring[(s.start+i)%Capacity]
}

// Current returns the selected entry, falling back to original when the
// cursor is at -1. It returns nil when neither exists.
func (s *Store) Current(original *models.Image) *models.Image {
	if s.index >= 0 {
		return s.at(s.index)
	}
	if original.Empty() {
		return nil
	}
	return original
}

// Push drops any redo tail past the cursor, appends img, evicts the oldest
// entry when full, and selects the new entry.
func (s *Store) Push(img *models.Image) {
	for i := s.index + 1; i < s.n; i++ {
		s.ring[(s.start+i)%Capacity] = nil
	}
	s.n = s.index + 1

	if s.n == Capacity {
		s.ring[s.start] = nil
		s.start = (s.start + 1) % Capacity
		s.n--
	}

	s.ring[(s.start+s.n)%Capacity] = img
	s.n++
	s.index = s.n - 1
}

// Undo moves the cursor back one step. It reports whether the cursor moved.
func (s *Store) Undo() bool {
	if s.index < 0 {
		return false
	}
	s.index--
	return true
}

// Redo moves the cursor forward one step. It reports whether the cursor moved.
func (s *Store) Redo() bool {
	if s.index >= s.n-1 {
		return false
	}
	s.index++
	return true
}

func (s *Store) CanUndo() bool { return s.index >= 0 }

func (s *Store) CanRedo() bool { return s.index < s.n-1 }

func (s *Store) Clear() {
	s.ring = [Capacity]*models.Image{}
	s.start = 0
	s.n = 0
	s.index = -1
}

// Entries returns the trail oldest first.
func (s *Store) Entries() []*models.Image {
	out := make([]*models.Image, s.n)
	for i := range out {
		out[i] = s.at(i)
	}
	return out
}

// Clone returns an independent copy sharing the image values.
func (s *Store) Clone() *Store {
	c := *s
	return &c
}
