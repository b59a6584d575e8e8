package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededIsDeterministic(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.Intn(7), b.Intn(7))
	}
}

func TestRanges(t *testing.T) {
	r := NewSeeded(7)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)

		n := r.Intn(3)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 3)
	}
}

func TestSample(t *testing.T) {
	r := NewSeeded(1)
	assert.Equal(t, "", Sample(r, []string(nil)))

	s := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[Sample(r, s)] = true
	}
	assert.Len(t, seen, 3)
}
