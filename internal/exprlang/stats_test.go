package exprlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingWindowMeanOverWindow(t *testing.T) {
	w := NewRollingWindow(2)
	w.Push(3)
	w.Push(5)
	assert.Equal(t, 4.0, w.Mean())
	w.Push(7) // evicts 3
	assert.Equal(t, 6.0, w.Mean())
}

func TestRollingWindowMinMaxRange(t *testing.T) {
	w := NewRollingWindow(3)
	w.Push(9)
	w.Push(2)
	w.Push(5)
	assert.Equal(t, 2.0, w.Min())
	assert.Equal(t, 9.0, w.Max())
	assert.Equal(t, 7.0, w.Eval(StatRange))
}

func TestRollingWindowMedianOddAndEven(t *testing.T) {
	w := NewRollingWindow(3)
	w.Push(5)
	w.Push(1)
	w.Push(3)
	assert.Equal(t, 3.0, w.Median())

	w2 := NewRollingWindow(4)
	w2.Push(1)
	w2.Push(2)
	w2.Push(3)
	w2.Push(4)
	assert.Equal(t, 2.5, w2.Median())
}

func TestRollingWindowNaNInsertsAsZero(t *testing.T) {
	w := NewRollingWindow(2)
	w.Push(4)
	w.Push(nanValue())
	assert.Equal(t, 2.0, w.Mean())
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestRollingWindowCountSaturates(t *testing.T) {
	w := NewRollingWindow(2)
	w.Push(1)
	w.Push(2)
	w.Push(3)
	w.Push(4)
	assert.Equal(t, 2, w.count)
}
