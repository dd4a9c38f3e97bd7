package jpegli

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatQuantField(t *testing.T) {
	qf := flatQuantField(4, 3)
	require.Len(t, qf.values, 12)
	for _, v := range qf.values {
		assert.Equal(t, float32(kFlatQuantField), v)
	}
	lo, hi := qf.minMax()
	assert.Equal(t, float32(kFlatQuantField), lo)
	assert.Equal(t, float32(kFlatQuantField), hi)
}

func TestComputeQuantFieldPositive(t *testing.T) {
	p := newPlane(32, 32, 32, 32)
	rng := rand.New(rand.NewSource(7))
	for i := range p.pix {
		p.pix[i] = rng.Float32()
	}
	for _, d := range []float32{0.1, 1, 5, 24} {
		qf := computeQuantField(p, 4, 4, d)
		lo, hi := qf.minMax()
		require.Greater(t, lo, float32(0), "distance %v", d)
		require.GreaterOrEqual(t, hi, lo)
	}
}

func TestComputeQuantFieldSmoothAboveBusy(t *testing.T) {
	// Left block flat, right block checkerboard.
	p := newPlane(16, 8, 16, 8)
	for y := 0; y < 8; y++ {
		row := p.row(y)
		for x := 0; x < 8; x++ {
			row[x] = 0.5
		}
		for x := 8; x < 16; x++ {
			if (x+y)%2 == 0 {
				row[x] = 0.9
			} else {
				row[x] = 0.1
			}
		}
	}
	qf := computeQuantField(p, 2, 1, 1.0)
	assert.Greater(t, qf.at(0, 0), qf.at(1, 0), "smooth block should get a larger multiplier than the busy block")
}

func TestInitialQuantDCDecreasing(t *testing.T) {
	prev := float32(math.Inf(1))
	for d := float32(0.01); d < 25; d *= 1.3 {
		v := initialQuantDC(d)
		require.Greater(t, v, float32(0))
		assert.LessOrEqual(t, v, prev, "distance %v", d)
		prev = v
	}
}

func TestBlockStats(t *testing.T) {
	p := newPlane(8, 8, 8, 8)
	p.fill(0.25)
	variance, hf := blockStats(p, 0, 0)
	assert.InDelta(t, 0, variance, 1e-6)
	assert.InDelta(t, 0, hf, 1e-6)

	// A horizontal step introduces both variance and HF energy.
	for y := 0; y < 8; y++ {
		row := p.row(y)
		for x := 4; x < 8; x++ {
			row[x] = 0.75
		}
	}
	variance, hf = blockStats(p, 0, 0)
	assert.Greater(t, variance, float32(0))
	assert.Greater(t, hf, float32(0))
}
