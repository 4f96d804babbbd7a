package generic

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

var _ websocket.BufferPool = (*Pool[any])(nil)

func TestPoolGenerates(t *testing.T) {
	calls := 0
	p := NewPool(func() []float64 {
		calls++
		return make([]float64, 0, 8)
	})
	buf := p.Get()
	assert.Equal(t, 8, cap(buf))
	assert.Equal(t, 1, calls)
}

func TestPoolWithoutGenerator(t *testing.T) {
	p := NewPool[any](nil)
	assert.Nil(t, p.Get())

	s := NewPool[*int](nil)
	assert.Nil(t, s.Get())
}
