package jpegli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceToLinearQualityMonotonic(t *testing.T) {
	prev := float32(-1)
	for d := float32(0); d < 30; d += 0.05 {
		q := DistanceToLinearQuality(d)
		if q < prev {
			t.Fatalf("DistanceToLinearQuality decreased at d=%v: %v < %v", d, q, prev)
		}
		prev = q
	}
}

func TestDistanceToLinearQualityAnchors(t *testing.T) {
	assert.Equal(t, float32(1.0), DistanceToLinearQuality(0.05))
	assert.Equal(t, float32(1.0), DistanceToLinearQuality(0.1))
	assert.InDelta(t, 100.0, DistanceToLinearQuality(4.6), 0.1)
	assert.Equal(t, float32(5000.0), DistanceToLinearQuality(25))
	assert.Equal(t, float32(5000.0), DistanceToLinearQuality(100))
}

func TestQualityToDistance(t *testing.T) {
	assert.Equal(t, float32(0.01), QualityToDistance(100))
	assert.InDelta(t, 1.0, QualityToDistance(90), 1e-5)
	assert.InDelta(t, 0.1+70*0.09, QualityToDistance(30), 1e-5)
	// Decreasing quality must not decrease distance.
	prev := QualityToDistance(100)
	for q := 99; q >= 1; q-- {
		d := QualityToDistance(q)
		require.GreaterOrEqual(t, d, prev, "quality %d", q)
		prev = d
	}
}

func TestLinearQualityRoundTrip(t *testing.T) {
	for _, q := range []int{10, 25, 30, 47, 50, 75, 90, 100} {
		scale := QualityScaling(q)
		assert.Equal(t, QualityToDistance(q), LinearQualityToDistance(scale), "quality %d", q)
	}
}

func TestMakeQuantTablesBaselineClamp(t *testing.T) {
	for _, mode := range []QuantMode{QuantXYB, QuantYCbCr, QuantStd} {
		// A large distance pushes entries far beyond 255 before clamping.
		dc, ac := quantScales(mode, 20, kFlatQuantField, transferSRGB)
		tables := makeQuantTables(mode, 3, dc, ac, true)
		for _, tab := range tables {
			require.Equal(t, 0, tab.precision)
			for k, v := range tab.values {
				assert.GreaterOrEqual(t, v, int32(1), "mode %d entry %d", mode, k)
				assert.LessOrEqual(t, v, int32(255), "mode %d entry %d", mode, k)
			}
		}
	}
}

func TestMakeQuantTablesExtendedPrecision(t *testing.T) {
	dc, ac := quantScales(QuantStd, 20, kFlatQuantField, transferSRGB)
	tables := makeQuantTables(QuantStd, 3, dc, ac, false)
	found16 := false
	for _, tab := range tables {
		for _, v := range tab.values {
			require.GreaterOrEqual(t, v, int32(1))
			require.LessOrEqual(t, v, int32(32767))
			if v > 255 {
				found16 = true
				require.Equal(t, 1, tab.precision)
			}
		}
	}
	assert.True(t, found16, "distance 20 should need 16-bit entries")
}

func TestQuantScalesHDRTransfer(t *testing.T) {
	dcS, acS := quantScales(QuantYCbCr, 1, 1, transferSRGB)
	dcPQ, acPQ := quantScales(QuantYCbCr, 1, 1, transferPQ)
	dcHLG, acHLG := quantScales(QuantYCbCr, 1, 1, transferHLG)
	assert.InDelta(t, float64(dcS)*0.4, float64(dcPQ), 1e-6)
	assert.InDelta(t, float64(acS)*0.4, float64(acPQ), 1e-6)
	assert.InDelta(t, float64(dcS)*0.5, float64(dcHLG), 1e-6)
	assert.InDelta(t, float64(acS)*0.5, float64(acHLG), 1e-6)

	// XYB ignores the input transfer function.
	dcX1, acX1 := quantScales(QuantXYB, 1, 1, transferSRGB)
	dcX2, acX2 := quantScales(QuantXYB, 1, 1, transferPQ)
	assert.Equal(t, dcX1, dcX2)
	assert.Equal(t, acX1, acX2)
}

func TestQuantTablesDCPositive(t *testing.T) {
	for _, d := range []float32{0.01, 0.5, 1, 4.6, 10, 25} {
		dc, ac := quantScales(QuantYCbCr, d, 1.0, transferSRGB)
		tables := makeQuantTables(QuantYCbCr, 3, dc, ac, true)
		for _, tab := range tables {
			assert.GreaterOrEqual(t, tab.values[0], int32(1), "distance %v", d)
		}
	}
}

func TestZigZagOrderIsPermutation(t *testing.T) {
	var seen [dctBlockSize]bool
	for _, v := range zigZagOrder {
		require.False(t, seen[v], "index %d repeated", v)
		seen[v] = true
	}
	// Spot anchors of the T.81 pattern.
	assert.Equal(t, 0, zigZagOrder[0])
	assert.Equal(t, 1, zigZagOrder[1])
	assert.Equal(t, 8, zigZagOrder[2])
	assert.Equal(t, 63, zigZagOrder[63])
}
