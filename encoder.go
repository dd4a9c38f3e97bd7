package jpegli

import (
	"fmt"
	"image"
	"io"
)

// EncodingOptions control the quality and structure of the bitstream.
type EncodingOptions struct {
	// Distance is the target perceptual distance; lower is higher
	// quality. Zero selects the default of 1.0.
	Distance float32
	// Quality in [1,100]. When positive it overrides Distance through
	// QualityToDistance.
	Quality int
	// XYBMode encodes in the XYB color space with an embedded ICC
	// profile. Requires three-component RGB input.
	XYBMode bool
	// AdaptiveQuantization modulates quantization per block from local
	// image content.
	AdaptiveQuantization bool
	// StandardQuantTables selects the Annex K base tables instead of the
	// perceptually tuned ones.
	StandardQuantTables bool
	// ProgressiveLevel selects the scan script: 0 is sequential, higher
	// levels add more progression steps.
	ProgressiveLevel int
	// RestartInterval is the number of MCUs between restart markers;
	// 0 disables restarts.
	RestartInterval int
	// ForceBaseline clamps quantization table entries to [1,255].
	ForceBaseline bool
}

// DefaultEncodingOptions returns the defaults: distance 1.0, adaptive
// quantization, progressive level 2, baseline-compatible tables.
func DefaultEncodingOptions() *EncodingOptions {
	return &EncodingOptions{
		Distance:             1.0,
		AdaptiveQuantization: true,
		ProgressiveLevel:     2,
		ForceBaseline:        true,
	}
}

// Config describes one encode session over raw interleaved samples.
type Config struct {
	Width, Height int
	// NumComponents is 1 (grayscale) or 3 (RGB). Zero selects 3.
	NumComponents int
	DataType      DataType
	Endianness    Endianness
	// SamplingFactors holds one square sampling factor per component,
	// each a power of two in {1,2,4,8}. Nil selects no subsampling, or
	// {2,2,1} in XYB mode (the B channel is subsampled).
	SamplingFactors []int
	// ScanScript overrides the default scan sequence for the configured
	// progressive level.
	ScanScript []ScanInfo
	// StrictICCOrder rejects ICC marker chains whose chunks appear out
	// of order instead of accepting any permutation.
	StrictICCOrder bool

	Options EncodingOptions
}

// Encoder is the per-frame session: configuration is fixed at creation,
// scanlines are streamed in, and Finish serializes the bitstream.
type Encoder struct {
	cfg      Config
	distance float32
	mode     QuantMode

	comps                    []component
	planes                   []*plane
	maxSamp, maxShift        int
	xsizeBlocks, ysizeBlocks int

	nextScanline   int
	specialMarkers []SpecialMarker
	curMarker      int // index of the marker open for WriteMarkerByte, -1 if none
	warnings       []error
	finished       bool
}

// NewEncoder validates the configuration and allocates the session.
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.NumComponents == 0 {
		cfg.NumComponents = 3
	}
	if cfg.Options.Distance == 0 {
		cfg.Options.Distance = 1.0
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrConfiguration, cfg.Width, cfg.Height)
	}
	if cfg.Width > 0xFFFF || cfg.Height > 0xFFFF {
		return nil, ErrImageTooLarge
	}
	if cfg.NumComponents != 1 && cfg.NumComponents != 3 {
		return nil, fmt.Errorf("%w: %d components", ErrConfiguration, cfg.NumComponents)
	}
	if cfg.Options.XYBMode && cfg.NumComponents != 3 {
		return nil, fmt.Errorf("%w: XYB mode requires RGB input", ErrConfiguration)
	}
	if cfg.Options.ProgressiveLevel < 0 {
		return nil, fmt.Errorf("%w: progressive level %d", ErrConfiguration, cfg.Options.ProgressiveLevel)
	}
	if cfg.Options.RestartInterval < 0 || cfg.Options.RestartInterval > 0xFFFF {
		return nil, fmt.Errorf("%w: restart interval %d", ErrConfiguration, cfg.Options.RestartInterval)
	}

	factors := cfg.SamplingFactors
	if factors == nil {
		factors = make([]int, cfg.NumComponents)
		for i := range factors {
			factors[i] = 1
		}
		if cfg.Options.XYBMode {
			factors[0], factors[1], factors[2] = 2, 2, 1
		}
	}
	if len(factors) != cfg.NumComponents {
		return nil, fmt.Errorf("%w: %d sampling factors for %d components", ErrConfiguration, len(factors), cfg.NumComponents)
	}
	maxSamp := 1
	for _, f := range factors {
		if f != 1 && f != 2 && f != 4 && f != 8 {
			return nil, fmt.Errorf("%w: sampling factor %d", ErrConfiguration, f)
		}
		maxSamp = max(maxSamp, f)
	}
	maxShift := 0
	for _, f := range factors {
		shift := 0
		for 1<<shift*f < maxSamp {
			shift++
		}
		if 1<<shift*f != maxSamp {
			return nil, fmt.Errorf("%w: sampling factor %d does not divide %d", ErrConfiguration, f, maxSamp)
		}
		maxShift = max(maxShift, shift)
	}

	distance := cfg.Options.Distance
	if cfg.Options.Quality > 0 {
		distance = QualityToDistance(cfg.Options.Quality)
	}
	if distance <= 0 {
		return nil, fmt.Errorf("%w: distance %v", ErrConfiguration, distance)
	}

	mode := QuantYCbCr
	if cfg.Options.XYBMode {
		mode = QuantXYB
	} else if cfg.Options.StandardQuantTables {
		mode = QuantStd
	}

	mcuSize := 8 << maxShift
	xsizeBlocks := (cfg.Width + mcuSize - 1) / mcuSize << maxShift
	ysizeBlocks := (cfg.Height + mcuSize - 1) / mcuSize << maxShift

	e := &Encoder{
		cfg:         cfg,
		distance:    distance,
		mode:        mode,
		maxSamp:     maxSamp,
		maxShift:    maxShift,
		xsizeBlocks: xsizeBlocks,
		ysizeBlocks: ysizeBlocks,
		curMarker:   -1,
	}

	e.comps = make([]component, cfg.NumComponents)
	for c := range e.comps {
		comp := &e.comps[c]
		comp.id = byte(c + 1)
		comp.hSamp = factors[c]
		comp.vSamp = factors[c]
		comp.quantIdx = c
		factor := maxSamp / factors[c]
		comp.widthInBlocks = xsizeBlocks / factor
		comp.heightInBlocks = ysizeBlocks / factor
		compWidth := (cfg.Width*factors[c] + maxSamp - 1) / maxSamp
		compHeight := (cfg.Height*factors[c] + maxSamp - 1) / maxSamp
		comp.nWidthBlocks = (compWidth + 7) / 8
		comp.nHeightBlocks = (compHeight + 7) / 8
	}
	if cfg.Options.XYBMode {
		e.comps[0].id, e.comps[1].id, e.comps[2].id = 'R', 'G', 'B'
	}

	if cfg.ScanScript != nil {
		if err := validateScanScript(cfg.ScanScript, cfg.NumComponents); err != nil {
			return nil, err
		}
	}

	// Three planes regardless of component count: grayscale replicates
	// into the chroma slots before the color transform.
	e.planes = make([]*plane, 3)
	for i := range e.planes {
		e.planes[i] = newPlane(cfg.Width, cfg.Height, xsizeBlocks*8, ysizeBlocks*8)
	}
	return e, nil
}

// WriteScanlines appends interleaved rows at the current cursor and
// returns the number of rows consumed. Rows beyond the declared image
// height are silently dropped.
func (e *Encoder) WriteScanlines(scanlines [][]byte) (int, error) {
	if e.finished {
		return 0, fmt.Errorf("%w: encode already finished", ErrConfiguration)
	}
	numLines := len(scanlines)
	if e.nextScanline+numLines > e.cfg.Height {
		numLines = e.cfg.Height - e.nextScanline
	}
	if numLines <= 0 {
		return 0, nil
	}
	rowBytes := e.cfg.Width * e.cfg.NumComponents * e.cfg.DataType.BytesPerSample()
	for _, line := range scanlines[:numLines] {
		if len(line) < rowBytes {
			return 0, fmt.Errorf("%w: scanline holds %d bytes, need %d", ErrConfiguration, len(line), rowBytes)
		}
	}
	ingestScanlines(e.planes[:e.cfg.NumComponents], scanlines[:numLines], e.nextScanline, e.cfg.Width, e.cfg.DataType, e.cfg.Endianness)
	e.nextScanline += numLines
	return numLines, nil
}

// WriteMarkerHeader opens a new special marker with a declared payload
// length; the payload is supplied byte-wise through WriteMarkerByte.
// Only APPn and COM markers are accepted.
func (e *Encoder) WriteMarkerHeader(kind byte, datalen int) error {
	m, err := newSpecialMarker(kind, datalen)
	if err != nil {
		return err
	}
	e.specialMarkers = append(e.specialMarkers, m)
	e.curMarker = len(e.specialMarkers) - 1
	return nil
}

// WriteMarkerByte appends one payload byte to the marker opened by the
// last WriteMarkerHeader call.
func (e *Encoder) WriteMarkerByte(val byte) error {
	if e.curMarker < 0 {
		return fmt.Errorf("%w: marker header missing", ErrConfiguration)
	}
	e.specialMarkers[e.curMarker] = append(e.specialMarkers[e.curMarker], val)
	return nil
}

// AddMarker appends a complete APPn or COM marker with the given
// payload.
func (e *Encoder) AddMarker(kind byte, payload []byte) error {
	m, err := newSpecialMarker(kind, len(payload))
	if err != nil {
		return err
	}
	e.specialMarkers = append(e.specialMarkers, append(m, payload...))
	e.curMarker = -1
	return nil
}

// AddComment appends a COM marker.
func (e *Encoder) AddComment(text string) error {
	return e.AddMarker(markerCOM, []byte(text))
}

// WriteICCProfile embeds an ICC profile, split into chunked APP2
// markers.
func (e *Encoder) WriteICCProfile(icc []byte) error {
	if len(icc) == 0 {
		return fmt.Errorf("%w: empty ICC profile", ErrConfiguration)
	}
	e.specialMarkers = append(e.specialMarkers, createICCMarkers(icc)...)
	e.curMarker = -1
	return nil
}

// Warnings returns non-fatal problems encountered during the encode,
// such as a corrupt input ICC chain that fell back to sRGB.
func (e *Encoder) Warnings() []error {
	return e.warnings
}

// Finish runs the pipeline and serializes the bitstream to dst. The
// destination is initialized at the start of serialization and finalized
// on every exit path.
func (e *Encoder) Finish(dst Destination) error {
	if e.finished {
		return fmt.Errorf("%w: encode already finished", ErrConfiguration)
	}
	e.finished = true
	if e.nextScanline < e.cfg.Height {
		return fmt.Errorf("%w: %d of %d scanlines", ErrTruncatedInput, e.nextScanline, e.cfg.Height)
	}

	// Recover the input color encoding before the ICC chain is replaced
	// in XYB mode.
	encoding, warn := colorEncodingFromICC(e.specialMarkers, e.cfg.NumComponents, e.cfg.StrictICCOrder)
	if warn != nil {
		e.warnings = append(e.warnings, warn)
	}

	if e.cfg.NumComponents == 1 {
		replicateGray(e.planes)
	}
	if e.mode == QuantXYB {
		e.specialMarkers = upsertICCMarkers(e.specialMarkers, xybICCProfile())
		for y := 0; y < e.cfg.Height; y++ {
			rgbToXYB(e.planes[0].row(y), e.planes[1].row(y), e.planes[2].row(y), e.cfg.Width, encoding.tf)
		}
	} else {
		for y := 0; y < e.cfg.Height; y++ {
			rgbToYCbCr(e.planes[0].row(y), e.planes[1].row(y), e.planes[2].row(y), e.cfg.Width)
		}
	}
	for _, p := range e.planes {
		p.padToBlockMultiple()
	}

	var qf *quantField
	if e.cfg.Options.AdaptiveQuantization {
		luma := e.planes[0]
		if e.mode == QuantXYB {
			luma = e.planes[1]
		}
		qf = computeQuantField(luma, e.xsizeBlocks, e.ysizeBlocks, e.distance)
	} else {
		qf = flatQuantField(e.xsizeBlocks, e.ysizeBlocks)
	}
	_, qfMax := qf.minMax()

	dcScale, acScale := quantScales(e.mode, e.distance, qfMax, encoding.tf)
	tables := makeQuantTables(e.mode, e.cfg.NumComponents, dcScale, acScale, e.cfg.Options.ForceBaseline)
	computeCoefficients(e.planes, e.comps, qf, tables, e.mode, e.maxSamp)

	scans := e.cfg.ScanScript
	if scans == nil {
		scans = scanScript(e.cfg.Options.ProgressiveLevel, e.cfg.NumComponents, e.maxShift)
	}
	progressive := isProgressiveScript(scans)

	if err := dst.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	serializeErr := e.serialize(dst, tables, scans, progressive)
	finalizeErr := dst.Finalize()
	if serializeErr != nil {
		return serializeErr
	}
	if finalizeErr != nil {
		return fmt.Errorf("%w: %v", ErrResource, finalizeErr)
	}
	return nil
}

func (e *Encoder) serialize(dst Destination, tables []quantTable, scans []ScanInfo, progressive bool) error {
	fw := newFrameWriter(dst)
	fw.writeMarker(markerSOI)
	for _, m := range e.specialMarkers {
		fw.write(m)
	}
	fw.writeDQT(tables)
	fw.writeSOF(progressive, e.cfg.Width, e.cfg.Height, e.comps)
	if e.cfg.Options.RestartInterval > 0 {
		fw.writeDRI(e.cfg.Options.RestartInterval)
	}
	for _, scan := range scans {
		st, err := optimizeScan(e.comps, scan, e.cfg.Options.RestartInterval, !progressive)
		if err != nil {
			return err
		}
		if err := fw.writeScan(e.comps, scan, st, e.cfg.Options.RestartInterval); err != nil {
			return err
		}
	}
	fw.writeMarker(markerEOI)
	if fw.err != nil {
		return fw.err
	}
	if err := dst.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	return nil
}

// Encode writes img to w as a JPEG with the given options. Default
// options are used when opts is nil.
func Encode(w io.Writer, img image.Image, opts *EncodingOptions) error {
	if opts == nil {
		opts = DefaultEncodingOptions()
	}
	bounds := img.Bounds()
	cfg := Config{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		NumComponents: 3,
		DataType:      TypeUint8,
		Options:       *opts,
	}
	gray, isGray := img.(*image.Gray)
	if isGray && !opts.XYBMode {
		cfg.NumComponents = 1
	}
	enc, err := NewEncoder(cfg)
	if err != nil {
		return err
	}

	rows := make([][]byte, cfg.Height)
	if cfg.NumComponents == 1 {
		for y := 0; y < cfg.Height; y++ {
			rows[y] = gray.Pix[y*gray.Stride : y*gray.Stride+cfg.Width]
		}
	} else {
		for y := 0; y < cfg.Height; y++ {
			row := make([]byte, cfg.Width*3)
			for x := 0; x < cfg.Width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				row[3*x+0] = byte(r >> 8)
				row[3*x+1] = byte(g >> 8)
				row[3*x+2] = byte(b >> 8)
			}
			rows[y] = row
		}
	}
	if _, err := enc.WriteScanlines(rows); err != nil {
		return err
	}
	return enc.Finish(NewWriterDestination(w))
}
