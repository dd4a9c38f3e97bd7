package jpegli

import (
	"encoding/binary"
	"fmt"
)

// frameWriter serializes the JPEG marker stream to a Destination. The
// first write error sticks and turns later writes into no-ops, so
// callers can compose segments and check the error once.
type frameWriter struct {
	dst Destination
	err error
}

func newFrameWriter(dst Destination) *frameWriter {
	return &frameWriter{dst: dst}
}

func (fw *frameWriter) write(p []byte) {
	if fw.err != nil {
		return
	}
	if _, err := fw.dst.Write(p); err != nil {
		fw.err = fmt.Errorf("%w: %v", ErrResource, err)
	}
}

func (fw *frameWriter) writeMarker(kind byte) {
	fw.write([]byte{0xFF, kind})
}

// writeSegment emits a length-prefixed marker segment. The stored length
// covers the payload plus the two length bytes.
func (fw *frameWriter) writeSegment(kind byte, payload []byte) {
	if len(payload)+2 > 0xFFFF {
		fw.fail(fmt.Errorf("%w: segment 0x%02X payload too large", ErrInternal, kind))
		return
	}
	var head [4]byte
	head[0] = 0xFF
	head[1] = kind
	binary.BigEndian.PutUint16(head[2:], uint16(len(payload)+2))
	fw.write(head[:])
	fw.write(payload)
}

func (fw *frameWriter) fail(err error) {
	if fw.err == nil {
		fw.err = err
	}
}

// writeDQT emits all quantization tables in one DQT segment, entries in
// zigzag order, 16-bit big-endian when the table precision requires it.
func (fw *frameWriter) writeDQT(tables []quantTable) {
	var payload []byte
	for i := range tables {
		t := &tables[i]
		payload = append(payload, byte(t.precision<<4|t.index))
		for _, v := range t.values {
			if t.precision != 0 {
				payload = append(payload, byte(v>>8))
			}
			payload = append(payload, byte(v))
		}
	}
	fw.writeSegment(markerDQT, payload)
}

// writeSOF emits the frame header: SOF2 for progressive scripts, SOF0
// otherwise.
func (fw *frameWriter) writeSOF(progressive bool, width, height int, comps []component) {
	kind := byte(markerSOF0)
	if progressive {
		kind = markerSOF2
	}
	payload := make([]byte, 6, 6+3*len(comps))
	payload[0] = 8 // sample precision
	binary.BigEndian.PutUint16(payload[1:], uint16(height))
	binary.BigEndian.PutUint16(payload[3:], uint16(width))
	payload[5] = byte(len(comps))
	for i := range comps {
		c := &comps[i]
		payload = append(payload, c.id, byte(c.hSamp<<4|c.vSamp), byte(c.quantIdx))
	}
	fw.writeSegment(kind, payload)
}

func (fw *frameWriter) writeDRI(interval int) {
	var payload [2]byte
	binary.BigEndian.PutUint16(payload[:], uint16(interval))
	fw.writeSegment(markerDRI, payload[:])
}

// dhtEntry pairs a table spec with its class and DHT slot.
type dhtEntry struct {
	class int
	slot  int
	spec  huffmanSpec
}

// writeDHT emits the scan's newly defined Huffman tables in one segment.
func (fw *frameWriter) writeDHT(entries []dhtEntry) {
	if len(entries) == 0 {
		return
	}
	var payload []byte
	for _, e := range entries {
		payload = append(payload, byte(e.class<<4|e.slot))
		payload = append(payload, e.spec.bitCounts[1:]...)
		payload = append(payload, e.spec.values...)
	}
	fw.writeSegment(markerDHT, payload)
}

// writeSOS emits the scan header. dcSlots and acSlots give the table
// selectors per scan component.
func (fw *frameWriter) writeSOS(scan ScanInfo, comps []component, dcSlots, acSlots []int) {
	payload := make([]byte, 0, 4+2*len(scan.ComponentIndices))
	payload = append(payload, byte(len(scan.ComponentIndices)))
	for i, ci := range scan.ComponentIndices {
		payload = append(payload, comps[ci].id, byte(dcSlots[i]<<4|acSlots[i]))
	}
	payload = append(payload, byte(scan.Ss), byte(scan.Se), byte(scan.Ah<<4|scan.Al))
	fw.writeSegment(markerSOS, payload)
}

// histogramSink gathers per-scan-component symbol statistics.
type histogramSink struct {
	dc []*histogram
	ac []*histogram
}

func newHistogramSink(numScanComps int) *histogramSink {
	s := &histogramSink{
		dc: make([]*histogram, numScanComps),
		ac: make([]*histogram, numScanComps),
	}
	for i := 0; i < numScanComps; i++ {
		s.dc[i] = &histogram{}
		s.ac[i] = &histogram{}
	}
	return s
}

func (s *histogramSink) writeSymbol(class, scanComp, symbol int) {
	if class == dcClass {
		s.dc[scanComp].add(symbol)
	} else {
		s.ac[scanComp].add(symbol)
	}
}

func (s *histogramSink) writeBits(uint32, uint) {}

func (s *histogramSink) restart(int) error { return nil }

// emitSink writes the entropy-coded segment with byte stuffing, flushing
// at restart boundaries with DC-predictor resets handled by the coder.
type emitSink struct {
	bw  *bitWriter
	dc  []*huffmanCodeTable
	ac  []*huffmanCodeTable
	err error
}

func (s *emitSink) writeSymbol(class, scanComp, symbol int) {
	var t *huffmanCodeTable
	if class == dcClass {
		t = s.dc[scanComp]
	} else {
		t = s.ac[scanComp]
	}
	if t == nil || t.lengths[symbol] == 0 {
		if s.err == nil {
			s.err = fmt.Errorf("%w: no Huffman code for symbol 0x%02X", ErrInternal, symbol)
		}
		return
	}
	s.bw.WriteBits(uint32(t.codes[symbol]), uint(t.lengths[symbol]))
}

func (s *emitSink) writeBits(bits uint32, n uint) {
	s.bw.WriteBits(bits, n)
}

func (s *emitSink) restart(idx int) error {
	s.bw.Pad()
	s.bw.WriteRawBytes(0xFF, byte(markerRST0+idx&7))
	return nil
}

// scanTables holds the optimized tables and slot assignment of one scan.
type scanTables struct {
	dht     []dhtEntry
	dcSlots []int
	acSlots []int
	dc      []*huffmanCodeTable
	ac      []*huffmanCodeTable
}

// optimizeScan runs the histogram pass for one scan and builds its
// Huffman tables. DC and AC statistics are clustered independently so
// components with similar distributions share a table; baseline frames
// are capped at two tables per class as T.81 requires.
func optimizeScan(comps []component, scan ScanInfo, restartInterval int, baseline bool) (*scanTables, error) {
	n := len(scan.ComponentIndices)
	hs := newHistogramSink(n)
	if err := newScanCoder(comps, scan, restartInterval, hs).encode(); err != nil {
		return nil, err
	}

	maxTables := 4
	if baseline {
		maxTables = 2
	}
	st := &scanTables{
		dcSlots: make([]int, n),
		acSlots: make([]int, n),
		dc:      make([]*huffmanCodeTable, n),
		ac:      make([]*huffmanCodeTable, n),
	}
	for _, class := range []int{dcClass, acClass} {
		histos := hs.dc
		if class == acClass {
			histos = hs.ac
		}
		used := make([]int, 0, n)
		active := make([]*histogram, 0, n)
		for i, h := range histos {
			if !h.empty() {
				used = append(used, i)
				active = append(active, h)
			}
		}
		if len(active) == 0 {
			continue
		}
		assignment, clusters, err := clusterHistograms(active)
		if err != nil {
			return nil, err
		}
		for len(clusters) > maxTables {
			last := clusters[len(clusters)-1]
			clusters = clusters[:len(clusters)-1]
			clusters[len(clusters)-1].addHistogram(last)
			for i, a := range assignment {
				if a >= len(clusters) {
					assignment[i] = len(clusters) - 1
				}
			}
		}
		tables := make([]*huffmanCodeTable, len(clusters))
		for slot, h := range clusters {
			spec, err := buildHuffmanSpec(h)
			if err != nil {
				return nil, err
			}
			table, err := spec.compile()
			if err != nil {
				return nil, err
			}
			tables[slot] = table
			st.dht = append(st.dht, dhtEntry{class: class, slot: slot, spec: spec})
		}
		for k, i := range used {
			slot := assignment[k]
			if class == dcClass {
				st.dcSlots[i] = slot
				st.dc[i] = tables[slot]
			} else {
				st.acSlots[i] = slot
				st.ac[i] = tables[slot]
			}
		}
	}
	return st, nil
}

// writeScan emits DHT, SOS and the entropy-coded data of one scan.
func (fw *frameWriter) writeScan(comps []component, scan ScanInfo, st *scanTables, restartInterval int) error {
	fw.writeDHT(st.dht)
	fw.writeSOS(scan, comps, st.dcSlots, st.acSlots)
	if fw.err != nil {
		return fw.err
	}
	sink := &emitSink{bw: newBitWriter(), dc: st.dc, ac: st.ac}
	if err := newScanCoder(comps, scan, restartInterval, sink).encode(); err != nil {
		return err
	}
	if sink.err != nil {
		return sink.err
	}
	sink.bw.Pad()
	fw.write(sink.bw.Bytes())
	return fw.err
}
