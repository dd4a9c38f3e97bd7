package jpegli

import "math"

// transferFunction identifies the opto-electronic transfer of the input
// color encoding. PQ and HLG inputs rescale the global quant scale.
type transferFunction int

const (
	transferSRGB transferFunction = iota
	transferLinear
	transferPQ
	transferHLG
)

// colorEncoding is the subset of an ICC color description the encoder
// acts on: gray vs RGB and the transfer function.
type colorEncoding struct {
	gray bool
	tf   transferFunction
}

func sRGBEncoding(gray bool) colorEncoding {
	return colorEncoding{gray: gray}
}

// Opsin absorbance matrix and bias mapping linear RGB to an LMS-like
// space, from the JPEG XL opsin model.
const (
	opsinM00 = 0.30
	opsinM01 = 0.622
	opsinM02 = 0.078
	opsinM10 = 0.23
	opsinM11 = 0.692
	opsinM12 = 0.078
	opsinM20 = 0.24342268924547819
	opsinM21 = 0.20476744424496821
	opsinM22 = 0.55180986650955360

	opsinBias = 0.0037930732552754493
)

var opsinBiasCbrt = float32(math.Cbrt(opsinBias))

// Affine mapping of raw XYB values into the [0,1] range the quantizer
// tables are tuned for: X is a small opponent signal around zero, B is
// stored as an offset from Y.
const (
	xybXScale  = 14.0
	xybXOffset = 0.5
	xybBOffset = 0.5
)

// srgbToLinear inverts the sRGB transfer function for one sample.
func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
}

// rgbToXYB converts full-range RGB planes to scaled XYB in place. The
// source transfer function is undone first; PQ and HLG inputs are
// treated as already linearized by the caller-supplied encoding because
// their dynamic range is handled through the quant scale instead.
func rgbToXYB(r, g, b []float32, width int, tf transferFunction) {
	for x := 0; x < width; x++ {
		red, green, blue := r[x], g[x], b[x]
		if tf == transferSRGB {
			red = srgbToLinear(red)
			green = srgbToLinear(green)
			blue = srgbToLinear(blue)
		}
		lMix := opsinM00*red + opsinM01*green + opsinM02*blue + opsinBias
		mMix := opsinM10*red + opsinM11*green + opsinM12*blue + opsinBias
		sMix := opsinM20*red + opsinM21*green + opsinM22*blue + opsinBias
		lGamma := cbrtf(lMix) - opsinBiasCbrt
		mGamma := cbrtf(mMix) - opsinBiasCbrt
		sGamma := cbrtf(sMix) - opsinBiasCbrt
		xv := 0.5 * (lGamma - mGamma)
		yv := 0.5 * (lGamma + mGamma)
		bv := sGamma
		r[x] = xv*xybXScale + xybXOffset
		g[x] = yv
		b[x] = (bv - yv) + xybBOffset
	}
}

func cbrtf(v float32) float32 {
	return float32(math.Cbrt(float64(v)))
}
