package typedpool

import "sync"

// Pool is a typed sync.Pool. If reset is not nil, values are reset when they
// are put back, so Get always returns a value in its empty state.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T)
}

func New[T any](reset func(*T)) *Pool[T] {
	return &Pool[T]{
		reset: reset,
		pool: sync.Pool{
			New: func() any { return new(T) },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.pool.Get().(*T)
}

func (p *Pool[T]) Put(value *T) {
	if value == nil {
		return
	}

	if p.reset != nil {
		p.reset(value)
	}

	p.pool.Put(value)
}
