package contact

import (
	"log/slog"
	"reflect"

	"github.com/oliverbestmann/contact/internal/assert"
)

type scratchKey struct {
	elem     reflect.Type
	capacity int
}

type scratchBuffer interface {
	isLeased() bool
	release()
}

// ScratchPool lends fixed capacity buffers used while scanning staying sets.
// Buffers are keyed by element type and capacity and shared by all owners
// asking for the same pair.
//
// The pool must only be used from the simulation thread. It is not locked.
type ScratchPool struct {
	logger  *slog.Logger
	buffers map[scratchKey][]scratchBuffer
}

func NewScratchPool(logger *slog.Logger) *ScratchPool {
	if logger == nil {
		logger = slog.Default()
	}

	return &ScratchPool{
		logger:  logger,
		buffers: map[scratchKey][]scratchBuffer{},
	}
}

// AcquireScratch leases the buffer for (T, capacity). The buffer is created on
// first request. If the buffer is still leased by an outer pass, for example
// because a callback of that pass tore down another owner, the next buffer of
// the same tier is handed out instead.
//
// The caller must Release the buffer once the pass is complete.
func AcquireScratch[T any](pool *ScratchPool, capacity int) *Scratch[T] {
	assert.Positive(capacity, "scratch capacity")

	key := scratchKey{elem: reflect.TypeFor[T](), capacity: capacity}

	tier := pool.buffers[key]
	for _, buffer := range tier {
		if !buffer.isLeased() {
			scratch := buffer.(*Scratch[T])
			scratch.leased = true
			return scratch
		}
	}

	scratch := &Scratch[T]{
		pool:   pool,
		values: make([]T, capacity),
		depth:  len(tier),
		leased: true,
	}

	pool.buffers[key] = append(tier, scratch)

	pool.logger.Info(
		"New scratch buffer tier",
		slog.String("type", key.elem.String()),
		slog.Int("capacity", capacity),
		slog.Int("depth", scratch.depth),
	)

	return scratch
}

// Reset releases every buffer of every tier. Buffer contents are kept, only
// the cursors are moved back to zero.
func (p *ScratchPool) Reset() {
	for _, tier := range p.buffers {
		for _, buffer := range tier {
			buffer.release()
		}
	}
}

// Tiers returns the number of buffers allocated so far.
func (p *ScratchPool) Tiers() int {
	var count int
	for _, tier := range p.buffers {
		count += len(tier)
	}

	return count
}

// Scratch is a fixed capacity buffer with a live count cursor.
type Scratch[T any] struct {
	pool    *ScratchPool
	values  []T
	count   int
	dropped int
	depth   int
	leased  bool
}

// Append writes value at the cursor. If the buffer is full, the value is
// dropped and Append returns false. The first drop of a pass is logged.
func (s *Scratch[T]) Append(value T) bool {
	if s.count == len(s.values) {
		if s.dropped == 0 {
			s.pool.logger.Warn(
				"Scratch buffer capacity exhausted, dropping values for this pass",
				slog.String("type", reflect.TypeFor[T]().String()),
				slog.Int("capacity", len(s.values)),
			)
		}

		s.dropped += 1
		return false
	}

	s.values[s.count] = value
	s.count += 1
	return true
}

func (s *Scratch[T]) Len() int {
	return s.count
}

func (s *Scratch[T]) Cap() int {
	return len(s.values)
}

// At returns the value at idx, which must be below Len.
func (s *Scratch[T]) At(idx int) T {
	if idx >= s.count {
		assert.Fail("scratch index %d out of range [0:%d]", idx, s.count)
	}

	return s.values[idx]
}

// Dropped returns the number of values dropped since the last release.
func (s *Scratch[T]) Dropped() int {
	return s.dropped
}

// Release moves the cursor back to zero and returns the buffer to the pool.
func (s *Scratch[T]) Release() {
	s.release()
}

func (s *Scratch[T]) isLeased() bool {
	return s.leased
}

func (s *Scratch[T]) release() {
	s.count = 0
	s.dropped = 0
	s.leased = false
}
