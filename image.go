package jpegli

// plane is a single-channel float32 raster. The allocation is padded to
// block multiples; width and height are the logical sample counts.
type plane struct {
	width  int
	height int
	stride int
	pix    []float32
}

func newPlane(width, height, paddedWidth, paddedHeight int) *plane {
	return &plane{
		width:  width,
		height: height,
		stride: paddedWidth,
		pix:    make([]float32, paddedWidth*paddedHeight),
	}
}

func (p *plane) row(y int) []float32 {
	return p.pix[y*p.stride : (y+1)*p.stride]
}

func (p *plane) paddedWidth() int  { return p.stride }
func (p *plane) paddedHeight() int { return len(p.pix) / p.stride }

// padToBlockMultiple replicates the last logical column and row into the
// padding region so DCT blocks on the image border see continuous data.
func (p *plane) padToBlockMultiple() {
	pw, ph := p.paddedWidth(), p.paddedHeight()
	if p.width < pw {
		for y := 0; y < p.height; y++ {
			row := p.row(y)
			edge := row[p.width-1]
			for x := p.width; x < pw; x++ {
				row[x] = edge
			}
		}
	}
	if p.height < ph {
		last := p.row(p.height - 1)
		for y := p.height; y < ph; y++ {
			copy(p.row(y), last)
		}
	}
}

// fill sets every sample, padding included.
func (p *plane) fill(v float32) {
	for i := range p.pix {
		p.pix[i] = v
	}
}
