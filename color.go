package jpegli

// Forward YCbCr coefficients per Rec. ITU-R BT.601, full range.
const (
	rToY = 0.299
	gToY = 0.587
	bToY = 0.114

	// Cb = (B - Y) / cbDiv + 0.5, Cr = (R - Y) / crDiv + 0.5
	cbDiv = 1.772
	crDiv = 1.402
)

// rgbToYCbCr converts one row of full-range [0,1] RGB samples to YCbCr
// in place.
func rgbToYCbCr(r, g, b []float32, width int) {
	for x := 0; x < width; x++ {
		red, green, blue := r[x], g[x], b[x]
		y := rToY*red + gToY*green + bToY*blue
		cb := (blue-y)/cbDiv + 0.5
		cr := (red-y)/crDiv + 0.5
		r[x], g[x], b[x] = y, cb, cr
	}
}

// replicateGray copies the single gray plane into the two chroma plane
// slots so the rest of the pipeline always sees three planes.
func replicateGray(planes []*plane) {
	copy(planes[1].pix, planes[0].pix)
	copy(planes[2].pix, planes[0].pix)
}
