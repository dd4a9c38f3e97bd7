package jpegli

import (
	"math"
	"math/rand"
	"testing"
)

// inverseDCT is the reference inverse transform used only by tests.
func inverseDCT(src *[dctBlockSize]float32, dst *[dctBlockSize]float32) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			var s float64
			for v := 0; v < 8; v++ {
				for u := 0; u < 8; u++ {
					s += float64(dctBasis[u][x]) * float64(dctBasis[v][y]) * float64(src[8*v+u])
				}
			}
			dst[8*y+x] = float32(s)
		}
	}
}

func TestForwardDCTConstantBlock(t *testing.T) {
	var src, dst [dctBlockSize]float32
	for i := range src {
		src[i] = 12.5
	}
	forwardDCT(&src, &dst)
	if got, want := dst[0], float32(8*12.5); math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("DC = %v, want %v", got, want)
	}
	for k := 1; k < dctBlockSize; k++ {
		if math.Abs(float64(dst[k])) > 1e-3 {
			t.Errorf("AC[%d] = %v, want 0", k, dst[k])
		}
	}
}

func TestForwardDCTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var src, freq, back [dctBlockSize]float32
	for i := range src {
		src[i] = rng.Float32()*255 - 128
	}
	forwardDCT(&src, &freq)
	inverseDCT(&freq, &back)
	for i := range src {
		if math.Abs(float64(src[i]-back[i])) > 1e-2 {
			t.Fatalf("sample %d: %v -> %v", i, src[i], back[i])
		}
	}
}

func TestForwardDCTParseval(t *testing.T) {
	// The normalized basis is orthonormal, so the transform preserves
	// the sum of squares.
	rng := rand.New(rand.NewSource(9))
	var src, freq [dctBlockSize]float32
	var inEnergy, outEnergy float64
	for i := range src {
		src[i] = rng.Float32()*2 - 1
		inEnergy += float64(src[i]) * float64(src[i])
	}
	forwardDCT(&src, &freq)
	for i := range freq {
		outEnergy += float64(freq[i]) * float64(freq[i])
	}
	if math.Abs(inEnergy-outEnergy) > 1e-3*inEnergy {
		t.Errorf("energy not preserved: %v vs %v", inEnergy, outEnergy)
	}
}
