package jpegli

// scanSink receives the coding events of one scan. The same traversal
// runs twice per scan: first into a histogram sink to gather symbol
// statistics for the Huffman optimizer, then into the bitstream sink.
// Both passes must observe the identical symbol sequence, so every
// decision (EOB-run flushes, restarts) is made here, not in the sink.
type scanSink interface {
	// writeSymbol records one Huffman symbol for the scan component's
	// DC (class 0) or AC (class 1) table.
	writeSymbol(class, scanComp, symbol int)
	// writeBits records raw magnitude or correction bits.
	writeBits(bits uint32, n uint)
	// restart marks a restart boundary; idx counts restarts from zero.
	restart(idx int) error
}

const (
	dcClass = 0
	acClass = 1

	// maxEOBRun caps accumulated end-of-band runs at the EOB14 symbol
	// capacity. The cap is fixed rather than table-derived so that the
	// histogram and emission passes flush at the same points.
	maxEOBRun = 0x7FFF
)

// scanCoder drives the block traversal of one scan.
type scanCoder struct {
	comps           []component
	scan            ScanInfo
	restartInterval int
	sink            scanSink

	dcPred         [maxComponents]int32
	eobRun         int
	correctionBits []uint32
	restartIdx     int
}

func newScanCoder(comps []component, scan ScanInfo, restartInterval int, sink scanSink) *scanCoder {
	return &scanCoder{
		comps:           comps,
		scan:            scan,
		restartInterval: restartInterval,
		sink:            sink,
	}
}

// bitCategory returns the number of magnitude bits of v per T.81 F.1.2.
func bitCategory(v int32) int {
	if v < 0 {
		v = -v
	}
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// magnitudeBits returns the category-length bit pattern of v, using the
// ones-complement convention for negative values.
func magnitudeBits(v int32, category int) uint32 {
	if v < 0 {
		v--
	}
	return uint32(v) & (1<<category - 1)
}

// pointTransform divides by 2^al rounding toward zero, the AC point
// transform of T.81 G.1.2.1.
func pointTransform(v int32, al int) int32 {
	if v >= 0 {
		return v >> al
	}
	return -((-v) >> al)
}

// encode traverses the scan and feeds the sink. Interleaved scans walk
// MCUs in raster order with the per-component sampling block groups;
// non-interleaved scans walk the single component's nominal block grid
// (padding blocks beyond the image are not coded, per T.81 A.2.2).
func (sc *scanCoder) encode() error {
	interleaved := len(sc.scan.ComponentIndices) > 1
	if interleaved {
		return sc.encodeInterleaved()
	}
	return sc.encodeNonInterleaved()
}

func (sc *scanCoder) encodeInterleaved() error {
	ci0 := sc.scan.ComponentIndices[0]
	c0 := &sc.comps[ci0]
	mcusX := c0.widthInBlocks / c0.hSamp
	mcusY := c0.heightInBlocks / c0.vSamp
	mcu := 0
	for my := 0; my < mcusY; my++ {
		for mx := 0; mx < mcusX; mx++ {
			for scanComp, ci := range sc.scan.ComponentIndices {
				comp := &sc.comps[ci]
				for v := 0; v < comp.vSamp; v++ {
					for h := 0; h < comp.hSamp; h++ {
						bx := mx*comp.hSamp + h
						by := my*comp.vSamp + v
						sc.encodeBlock(comp.block(bx, by), scanComp)
					}
				}
			}
			mcu++
			if err := sc.maybeRestart(mcu, mcusX*mcusY); err != nil {
				return err
			}
		}
	}
	sc.flushEOBRun(0)
	return nil
}

func (sc *scanCoder) encodeNonInterleaved() error {
	comp := &sc.comps[sc.scan.ComponentIndices[0]]
	total := comp.nWidthBlocks * comp.nHeightBlocks
	mcu := 0
	for by := 0; by < comp.nHeightBlocks; by++ {
		for bx := 0; bx < comp.nWidthBlocks; bx++ {
			sc.encodeBlock(comp.block(bx, by), 0)
			mcu++
			if err := sc.maybeRestart(mcu, total); err != nil {
				return err
			}
		}
	}
	sc.flushEOBRun(0)
	return nil
}

func (sc *scanCoder) maybeRestart(mcu, totalMCUs int) error {
	if sc.restartInterval == 0 || mcu%sc.restartInterval != 0 || mcu == totalMCUs {
		return nil
	}
	sc.flushEOBRun(0)
	if err := sc.sink.restart(sc.restartIdx); err != nil {
		return err
	}
	sc.restartIdx++
	for i := range sc.dcPred {
		sc.dcPred[i] = 0
	}
	return nil
}

func (sc *scanCoder) encodeBlock(block []int16, scanComp int) {
	s := sc.scan
	if s.Ss == 0 {
		if s.Ah == 0 {
			sc.encodeDCFirst(block, scanComp)
		} else {
			sc.encodeDCRefine(block)
		}
	}
	if s.Se == 0 {
		return
	}
	if s.Ss == 0 {
		// Baseline scan: DC above, AC below in the same block, no EOB runs.
		sc.encodeACSequential(block, scanComp)
		return
	}
	if s.Ah == 0 {
		sc.encodeACFirst(block, scanComp)
	} else {
		sc.encodeACRefine(block, scanComp)
	}
}

func (sc *scanCoder) encodeDCFirst(block []int16, scanComp int) {
	dc := pointTransform(int32(block[0]), sc.scan.Al)
	diff := dc - sc.dcPred[scanComp]
	sc.dcPred[scanComp] = dc
	category := bitCategory(diff)
	sc.sink.writeSymbol(dcClass, scanComp, category)
	if category > 0 {
		sc.sink.writeBits(magnitudeBits(diff, category), uint(category))
	}
}

func (sc *scanCoder) encodeDCRefine(block []int16) {
	bit := uint32(int32(block[0])>>sc.scan.Al) & 1
	sc.sink.writeBits(bit, 1)
}

func (sc *scanCoder) encodeACSequential(block []int16, scanComp int) {
	run := 0
	for k := 1; k <= sc.scan.Se; k++ {
		coef := int32(block[k])
		if coef == 0 {
			run++
			continue
		}
		for run > 15 {
			sc.sink.writeSymbol(acClass, scanComp, 0xF0)
			run -= 16
		}
		category := bitCategory(coef)
		sc.sink.writeSymbol(acClass, scanComp, run<<4|category)
		sc.sink.writeBits(magnitudeBits(coef, category), uint(category))
		run = 0
	}
	if run > 0 {
		sc.sink.writeSymbol(acClass, scanComp, 0x00)
	}
}

func (sc *scanCoder) encodeACFirst(block []int16, scanComp int) {
	s := sc.scan
	run := 0
	for k := s.Ss; k <= s.Se; k++ {
		coef := pointTransform(int32(block[k]), s.Al)
		if coef == 0 {
			run++
			continue
		}
		sc.flushEOBRun(scanComp)
		for run > 15 {
			sc.sink.writeSymbol(acClass, scanComp, 0xF0)
			run -= 16
		}
		category := bitCategory(coef)
		sc.sink.writeSymbol(acClass, scanComp, run<<4|category)
		sc.sink.writeBits(magnitudeBits(coef, category), uint(category))
		run = 0
	}
	if run > 0 {
		sc.eobRun++
		if sc.eobRun == maxEOBRun {
			sc.flushEOBRun(scanComp)
		}
	}
}

func (sc *scanCoder) encodeACRefine(block []int16, scanComp int) {
	s := sc.scan

	// Position after the last coefficient that becomes newly nonzero in
	// this scan; history beyond it is correction-bits-only.
	eob := s.Ss
	for k := s.Se; k >= s.Ss; k-- {
		coef := pointTransform(int32(block[k]), s.Al)
		if coef == 1 || coef == -1 {
			eob = k + 1
			break
		}
	}

	if eob > s.Ss {
		sc.flushEOBRun(scanComp)
	}

	run := 0
	for k := s.Ss; k < eob; k++ {
		coef := pointTransform(int32(block[k]), s.Al)
		if coef == 0 {
			run++
			if run == 16 {
				sc.sink.writeSymbol(acClass, scanComp, 0xF0)
				sc.drainCorrectionBits()
				run = 0
			}
			continue
		}
		if coef == 1 || coef == -1 {
			category := 1
			sc.sink.writeSymbol(acClass, scanComp, run<<4|category)
			if coef > 0 {
				sc.sink.writeBits(1, 1)
			} else {
				sc.sink.writeBits(0, 1)
			}
			sc.drainCorrectionBits()
			run = 0
		} else {
			sc.correctionBits = append(sc.correctionBits, uint32(coef)&1)
		}
	}
	for k := eob; k <= s.Se; k++ {
		coef := pointTransform(int32(block[k]), s.Al)
		if coef != 0 {
			sc.correctionBits = append(sc.correctionBits, uint32(coef)&1)
		}
	}
	if eob <= s.Se {
		sc.eobRun++
		if sc.eobRun == maxEOBRun {
			sc.flushEOBRun(scanComp)
		}
	}
}

// flushEOBRun emits the pending end-of-band run as an EOBn symbol plus
// run extension bits, followed by any buffered correction bits.
func (sc *scanCoder) flushEOBRun(scanComp int) {
	if sc.eobRun > 0 {
		category := bitCategory(int32(sc.eobRun)) - 1
		sc.sink.writeSymbol(acClass, scanComp, category<<4)
		if category > 0 {
			sc.sink.writeBits(uint32(sc.eobRun-(1<<category)), uint(category))
		}
		sc.eobRun = 0
	}
	sc.drainCorrectionBits()
}

func (sc *scanCoder) drainCorrectionBits() {
	for _, b := range sc.correctionBits {
		sc.sink.writeBits(b, 1)
	}
	sc.correctionBits = sc.correctionBits[:0]
}
