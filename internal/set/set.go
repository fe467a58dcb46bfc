package set

import (
	"iter"
	"maps"
)

// Set provides a wrapper around a map[T]struct{}. The zero value is an
// empty set ready to use.
type Set[T comparable] struct {
	values map[T]struct{}
}

// Insert adds value and reports whether it was not yet a member.
func (s *Set[T]) Insert(value T) bool {
	if s.values == nil {
		s.values = make(map[T]struct{})
	}

	if _, exists := s.values[value]; exists {
		return false
	}

	s.values[value] = struct{}{}
	return true
}

// Remove deletes value and reports whether it was a member.
func (s *Set[T]) Remove(value T) bool {
	if _, exists := s.values[value]; !exists {
		return false
	}

	delete(s.values, value)
	return true
}

func (s *Set[T]) Has(value T) bool {
	_, exists := s.values[value]
	return exists
}

// Values iterates the members in no particular order. Members removed
// during iteration are not produced.
func (s *Set[T]) Values() iter.Seq[T] {
	return maps.Keys(s.values)
}

func (s *Set[T]) Len() int {
	return len(s.values)
}

// Clear removes all members but keeps the allocated storage.
func (s *Set[T]) Clear() {
	clear(s.values)
}
