package jpegli

import "math"

const maxComponents = 3

// component is one frame component with its computed block grid and,
// after the DCT pass, its quantized coefficients in zigzag order,
// block by block.
type component struct {
	id           byte
	hSamp, vSamp int
	quantIdx     int
	// Block grid of the padded image; interleaved scans cover all of it.
	widthInBlocks  int
	heightInBlocks int
	// Nominal block grid of the unpadded image; non-interleaved scans
	// stop here (T.81 A.2.2).
	nWidthBlocks  int
	nHeightBlocks int
	coeffs        []int16
}

func (c *component) block(bx, by int) []int16 {
	idx := by*c.widthInBlocks + bx
	return c.coeffs[idx*dctBlockSize : (idx+1)*dctBlockSize]
}

// downsamplePlane reduces a plane by an integer factor with a box filter.
// The plane dimensions must be factor multiples, which the block padding
// guarantees.
func downsamplePlane(p *plane, factor int) *plane {
	if factor == 1 {
		return p
	}
	w, h := p.paddedWidth()/factor, p.paddedHeight()/factor
	out := newPlane(w, h, w, h)
	norm := 1.0 / float32(factor*factor)
	for y := 0; y < h; y++ {
		dst := out.row(y)
		for x := 0; x < w; x++ {
			var sum float32
			for dy := 0; dy < factor; dy++ {
				src := p.row(y*factor + dy)
				for dx := 0; dx < factor; dx++ {
					sum += src[x*factor+dx]
				}
			}
			dst[x] = sum * norm
		}
	}
	return out
}

// computeCoefficients runs the forward DCT and quantization over every
// component. For coefficient position k the quantized value is
//
//	round(dct[k] * mul / table[k])
//
// where mul is the block's quant-field value (divided by the field
// maximum in QuantStd mode; 1.0 for the DC term) and table carries the
// distance scaling. Each block is independent here; DC
// differencing is applied later during entropy coding so blocks can be
// processed in any order.
func computeCoefficients(planes []*plane, comps []component, qf *quantField, tables []quantTable, mode QuantMode, maxSamp int) {
	_, qfMax := qf.minMax()
	for ci := range comps {
		comp := &comps[ci]
		factor := maxSamp / comp.hSamp
		src := downsamplePlane(planes[ci], factor)
		comp.coeffs = make([]int16, comp.widthInBlocks*comp.heightInBlocks*dctBlockSize)
		table := &tables[comp.quantIdx]

		var samples, dct [dctBlockSize]float32
		for by := 0; by < comp.heightInBlocks; by++ {
			for bx := 0; bx < comp.widthInBlocks; bx++ {
				for y := 0; y < 8; y++ {
					row := src.row(by*8 + y)
					for x := 0; x < 8; x++ {
						samples[8*y+x] = row[bx*8+x]*255 - 128
					}
				}
				forwardDCT(&samples, &dct)

				fx := min(bx*factor, qf.widthInBlocks-1)
				fy := min(by*factor, qf.heightInBlocks-1)
				mul := qf.at(fx, fy)
				if mode == QuantStd {
					mul /= qfMax
				}
				out := comp.block(bx, by)
				for k := 0; k < dctBlockSize; k++ {
					m := mul
					if k == 0 {
						m = 1.0
					}
					v := math.Round(float64(dct[zigZagOrder[k]] * m / float32(table.values[k])))
					// Out-of-range float input could overflow the
					// coefficient range; clamp instead of wrapping.
					if v > 32767 {
						v = 32767
					} else if v < -32768 {
						v = -32768
					}
					out[k] = int16(v)
				}
			}
		}
	}
}
