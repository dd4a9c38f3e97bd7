package jpegli

import "math"

const dctBlockSize = 64

// zigZagOrder maps zig-zag sequence position to natural (row-major)
// coefficient index, per ITU-T T.81 Figure 5.
var zigZagOrder = [dctBlockSize]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// dctBasis[u][x] = C(u)/2 * cos((2x+1)*u*pi/16), the separable 1D basis
// of the type-II DCT with T.81 normalization.
var dctBasis = func() (b [8][8]float32) {
	for u := 0; u < 8; u++ {
		cu := 1.0
		if u == 0 {
			cu = math.Sqrt2 / 2
		}
		for x := 0; x < 8; x++ {
			b[u][x] = float32(0.5 * cu * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16))
		}
	}
	return b
}()

// forwardDCT computes the 8x8 forward DCT of src into dst, both in
// natural order. Two passes of the 1D transform: rows, then columns.
func forwardDCT(src *[dctBlockSize]float32, dst *[dctBlockSize]float32) {
	var tmp [dctBlockSize]float32
	for y := 0; y < 8; y++ {
		row := src[8*y : 8*y+8]
		for u := 0; u < 8; u++ {
			var s float32
			for x := 0; x < 8; x++ {
				s += dctBasis[u][x] * row[x]
			}
			tmp[8*y+u] = s
		}
	}
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			var s float32
			for y := 0; y < 8; y++ {
				s += dctBasis[v][y] * tmp[8*y+u]
			}
			dst[8*v+u] = s
		}
	}
}
