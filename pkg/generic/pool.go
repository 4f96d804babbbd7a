package generic

import "sync"

// Pool is a typed sync.Pool. With a nil generate, Get returns the zero
// value when the pool is empty, which is what websocket.BufferPool expects
// of its implementations.
type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	p := &Pool[T]{}
	if generate != nil {
		p.pool.New = func() any { return generate() }
	}
	return p
}

func (p *Pool[T]) Get() T {
	v, _ := p.pool.Get().(T)
	return v
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}
