package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineCF(t *testing.T) {
	t.Run("mycin combination", func(t *testing.T) {
		// cf = old + new*(1-old)
		assert.InDelta(t, 0.8, CombineCF(0.6, 0.5), 0.001)
		assert.InDelta(t, 0.75, CombineCF(0.5, 0.5), 0.001)
	})

	t.Run("identity cases", func(t *testing.T) {
		assert.Equal(t, 0.7, CombineCF(0.7, 0))
		assert.Equal(t, 0.7, CombineCF(0, 0.7))
		assert.Equal(t, 0.0, CombineCF(0, 0))
	})

	t.Run("saturates at one", func(t *testing.T) {
		assert.Equal(t, 1.0, CombineCF(1.0, 0.9))
		assert.LessOrEqual(t, CombineCF(0.99, 0.99), 1.0)
	})

	t.Run("clamps out-of-range input", func(t *testing.T) {
		assert.Equal(t, 1.0, CombineCF(1.5, 0.2))
		assert.Equal(t, 0.2, CombineCF(-0.5, 0.2))
	})
}

func TestAntecedentCF(t *testing.T) {
	t.Run("min of conjunction", func(t *testing.T) {
		assert.Equal(t, 0.7, AntecedentCF([]float64{0.8, 0.9, 0.7}))
		assert.Equal(t, 0.9, AntecedentCF([]float64{0.9}))
	})

	t.Run("empty has no support", func(t *testing.T) {
		assert.Equal(t, 0.0, AntecedentCF(nil))
	})

	t.Run("clamped", func(t *testing.T) {
		assert.Equal(t, 1.0, AntecedentCF([]float64{1.2, 1.5}))
		assert.Equal(t, 0.0, AntecedentCF([]float64{-0.3, 0.8}))
	})
}
