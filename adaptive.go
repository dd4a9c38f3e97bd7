package jpegli

import "math"

// kFlatQuantField is the constant field value used when adaptive
// quantization is disabled.
const kFlatQuantField = 0.575

// initialQuantDC returns the DC quantization multiplier for a target
// distance. The DC band saturates below a fixed floor because DC banding
// stays visible at distances where AC error does not.
func initialQuantDC(distance float32) float32 {
	const (
		kDCQuant    = 1.12
		kDCQuantPow = 0.57
	)
	d := max(0.5*distance, min(distance, 0.8))
	return kDCQuant / float32(math.Pow(float64(d), kDCQuantPow))
}

// quantField holds one positive multiplier per 8x8 block.
type quantField struct {
	widthInBlocks  int
	heightInBlocks int
	values         []float32
}

func (qf *quantField) at(bx, by int) float32 {
	return qf.values[by*qf.widthInBlocks+bx]
}

func (qf *quantField) minMax() (lo, hi float32) {
	lo, hi = qf.values[0], qf.values[0]
	for _, v := range qf.values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// flatQuantField returns a field filled with kFlatQuantField.
func flatQuantField(widthInBlocks, heightInBlocks int) *quantField {
	qf := &quantField{
		widthInBlocks:  widthInBlocks,
		heightInBlocks: heightInBlocks,
		values:         make([]float32, widthInBlocks*heightInBlocks),
	}
	for i := range qf.values {
		qf.values[i] = kFlatQuantField
	}
	return qf
}

// computeQuantField derives the per-block multiplier field from the
// luminance plane. Blocks with high local variance and high-frequency
// energy mask quantization error and receive lower multipliers; smooth
// blocks stay near the top of the range so gradients keep their
// precision. The range is clamped as a function of distance and kept
// narrow so the block-to-block step modulation stays bounded.
func computeQuantField(luma *plane, widthInBlocks, heightInBlocks int, distance float32) *quantField {
	qf := &quantField{
		widthInBlocks:  widthInBlocks,
		heightInBlocks: heightInBlocks,
		values:         make([]float32, widthInBlocks*heightInBlocks),
	}
	hi := 1.2 / (1.0 + 0.1*float64(distance))
	lo := 0.65 * hi
	for by := 0; by < heightInBlocks; by++ {
		for bx := 0; bx < widthInBlocks; bx++ {
			variance, hfEnergy := blockStats(luma, bx*8, by*8)
			masking := math.Sqrt(float64(hfEnergy) + 0.25*float64(variance))
			v := hi / (1.0 + 24.0*masking)
			if v < lo {
				v = lo
			}
			qf.values[by*qf.widthInBlocks+bx] = float32(v)
		}
	}
	return qf
}

// blockStats returns the sample variance and the mean squared
// neighbor-difference (horizontal and vertical) of one 8x8 block.
func blockStats(p *plane, x0, y0 int) (variance, hfEnergy float32) {
	var sum, sumSq float32
	for y := 0; y < 8; y++ {
		row := p.row(y0 + y)
		for x := 0; x < 8; x++ {
			s := row[x0+x]
			sum += s
			sumSq += s * s
		}
	}
	mean := sum / 64
	variance = sumSq/64 - mean*mean
	if variance < 0 {
		variance = 0
	}
	var diffSq float32
	for y := 0; y < 8; y++ {
		row := p.row(y0 + y)
		for x := 0; x < 7; x++ {
			d := row[x0+x+1] - row[x0+x]
			diffSq += d * d
		}
	}
	for y := 0; y < 7; y++ {
		row, next := p.row(y0+y), p.row(y0+y+1)
		for x := 0; x < 8; x++ {
			d := next[x0+x] - row[x0+x]
			diffSq += d * d
		}
	}
	hfEnergy = diffSq / (2 * 56)
	return variance, hfEnergy
}
