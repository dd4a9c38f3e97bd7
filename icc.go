package jpegli

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// iccSignature prefixes every APP2 marker payload that carries a chunk of
// an embedded ICC profile.
// See https://www.color.org/technotes/ICC-Technote-ProfileEmbedding.pdf
var iccSignature = []byte("ICC_PROFILE\x00")

const (
	iccMarker = markerAPP0 + 2 // APP2
	// maxIccBytesInMarker is the profile capacity of one chunk: the marker
	// payload limit minus the 14 bytes of signature, chunk index and chunk
	// count, and minus 2 more bytes, leaving 65517.
	maxIccBytesInMarker = maxBytesInMarker - 14 - 2
)

// createICCMarkers splits an ICC profile into chunked APP2 markers. Each
// payload is the 12-byte signature, a 1-based chunk index, the total
// chunk count, then up to maxIccBytesInMarker profile bytes.
func createICCMarkers(icc []byte) []SpecialMarker {
	numMarkers := (len(icc) + maxIccBytesInMarker - 1) / maxIccBytesInMarker
	if numMarkers == 0 {
		numMarkers = 1
	}
	markers := make([]SpecialMarker, 0, numMarkers)
	for i := 0; i < numMarkers; i++ {
		chunk := icc[i*maxIccBytesInMarker:]
		if len(chunk) > maxIccBytesInMarker {
			chunk = chunk[:maxIccBytesInMarker]
		}
		m, _ := newSpecialMarker(iccMarker, len(iccSignature)+2+len(chunk))
		m = append(m, iccSignature...)
		m = append(m, byte(i+1), byte(numMarkers))
		m = append(m, chunk...)
		markers = append(markers, m)
	}
	return markers
}

// upsertICCMarkers replaces the existing ICC chain in a special marker
// list. The first APP2 marker is replaced in place by the new chain and
// any further APP2 markers are dropped; with no APP2 present the chain is
// appended.
func upsertICCMarkers(markers []SpecialMarker, icc []byte) []SpecialMarker {
	chain := createICCMarkers(icc)
	out := make([]SpecialMarker, 0, len(markers)+len(chain))
	added := false
	for _, m := range markers {
		if m.Kind() != iccMarker {
			out = append(out, m)
		} else if !added {
			out = append(out, chain...)
			added = true
		}
	}
	if !added {
		out = append(out, chain...)
	}
	return out
}

// parseChunkedICC reassembles an ICC profile from APP2 special markers.
// All chunks must agree on the total count and each 1-based index must
// appear exactly once; unless allowPermutations is set, chunks must also
// appear in index order. APP2 markers whose stored length does not match
// or whose payload lacks the ICC signature are ignored; a signed chunk
// without its index and count bytes is rejected.
func parseChunkedICC(markers []SpecialMarker, allowPermutations bool) ([]byte, error) {
	var chunks [][]byte
	var present []bool
	expectedParts := 0
	ordinal := 0
	for _, m := range markers {
		if m.Kind() != iccMarker {
			continue
		}
		payload, ok := m.Payload()
		if !ok || len(payload) < len(iccSignature) || !bytes.Equal(payload[:len(iccSignature)], iccSignature) {
			continue
		}
		payload = payload[len(iccSignature):]
		if len(payload) < 2 {
			return nil, fmt.Errorf("%w: ICC chunk too small", ErrFormat)
		}
		index, total := int(payload[0]), int(payload[1])
		ordinal++
		if !allowPermutations && index != ordinal {
			return nil, fmt.Errorf("%w: ICC chunk out of order", ErrFormat)
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: ICC chunk count is zero", ErrFormat)
		}
		if expectedParts == 0 {
			expectedParts = total
			chunks = make([][]byte, total+1)
			present = make([]bool, total+1)
		} else if total != expectedParts {
			return nil, fmt.Errorf("%w: mismatched ICC chunk count", ErrFormat)
		}
		if index < 1 || index > total {
			return nil, fmt.Errorf("%w: invalid ICC chunk index %d", ErrFormat, index)
		}
		if present[index] {
			return nil, fmt.Errorf("%w: duplicate ICC chunk %d", ErrFormat, index)
		}
		present[index] = true
		chunks[index] = payload[2:]
	}
	var out []byte
	for i := 1; i <= expectedParts; i++ {
		if !present[i] {
			return nil, fmt.Errorf("%w: missing ICC chunk %d", ErrFormat, i)
		}
		out = append(out, chunks[i]...)
	}
	return out, nil
}

// colorEncodingFromICC recovers the input color encoding from the special
// markers. A missing or corrupt profile chain falls back to sRGB (gray
// sRGB for single-component input); the returned warning carries the
// parse failure, if any.
func colorEncodingFromICC(markers []SpecialMarker, numComponents int, strictOrder bool) (colorEncoding, error) {
	icc, err := parseChunkedICC(markers, !strictOrder)
	if err != nil || len(icc) == 0 {
		return sRGBEncoding(numComponents == 1), err
	}
	return decodeICCProfile(icc, numComponents == 1), nil
}

// decodeICCProfile extracts the fields the encoder acts on: the data
// colorspace signature and, via the cicp tag when present, the transfer
// function.
func decodeICCProfile(icc []byte, grayDefault bool) colorEncoding {
	enc := sRGBEncoding(grayDefault)
	if len(icc) < 132 {
		return enc
	}
	switch string(icc[16:20]) {
	case "GRAY":
		enc.gray = true
	case "RGB ":
		enc.gray = false
	}
	// Tag table: count at offset 128, then 12-byte (sig, offset, size)
	// entries. The cicp tag payload is 8 bytes of type header followed by
	// primaries, transfer, matrix and range bytes (ICC.1:2022, 9.2.17).
	count := int(binary.BigEndian.Uint32(icc[128:132]))
	for i := 0; i < count; i++ {
		entry := 132 + 12*i
		if entry+12 > len(icc) {
			break
		}
		if string(icc[entry:entry+4]) != "cicp" {
			continue
		}
		offset := int(binary.BigEndian.Uint32(icc[entry+4 : entry+8]))
		if offset+10 > len(icc) {
			break
		}
		switch icc[offset+9] {
		case 16:
			enc.tf = transferPQ
		case 18:
			enc.tf = transferHLG
		case 8:
			enc.tf = transferLinear
		}
		break
	}
	return enc
}

// xybICCProfile synthesizes a compact ICC v2 display profile describing
// the XYB output encoding, embedded in every XYB-mode bitstream so
// decoders do not interpret the planes as YCbCr.
func xybICCProfile() []byte {
	desc := "XYB perceptual"

	type tag struct {
		sig  string
		data []byte
	}
	xyzTag := func(x, y, z uint32) []byte {
		b := make([]byte, 20)
		copy(b, "XYZ ")
		binary.BigEndian.PutUint32(b[8:], x)
		binary.BigEndian.PutUint32(b[12:], y)
		binary.BigEndian.PutUint32(b[16:], z)
		return b
	}
	// Single-entry curv tag: gamma in u8Fixed8 form.
	curvTag := func(gamma uint16) []byte {
		b := make([]byte, 14)
		copy(b, "curv")
		binary.BigEndian.PutUint32(b[8:], 1)
		binary.BigEndian.PutUint16(b[12:], gamma)
		return b
	}
	descTag := func(s string) []byte {
		b := make([]byte, 12+len(s)+1+78)
		copy(b, "desc")
		binary.BigEndian.PutUint32(b[8:], uint32(len(s)+1))
		copy(b[12:], s)
		return b
	}
	trc := curvTag(0x0300) // gamma 3.0, matching the cube-root opsin encoding
	tags := []tag{
		{"desc", descTag(desc)},
		{"wtpt", xyzTag(0x0000F6D6, 0x00010000, 0x0000D32D)},
		{"rXYZ", xyzTag(0x00006FA2, 0x000038F5, 0x00000390)},
		{"gXYZ", xyzTag(0x00006299, 0x0000B785, 0x000018DA)},
		{"bXYZ", xyzTag(0x000024A0, 0x00000F84, 0x0000B6C4)},
		{"rTRC", trc},
		{"gTRC", trc},
		{"bTRC", trc},
	}

	headerSize := 128
	tableSize := 4 + 12*len(tags)
	offset := headerSize + tableSize
	total := offset
	for _, t := range tags {
		total += (len(t.data) + 3) &^ 3
	}

	icc := make([]byte, total)
	binary.BigEndian.PutUint32(icc[0:], uint32(total))
	binary.BigEndian.PutUint32(icc[8:], 0x02400000) // profile version 2.4
	copy(icc[12:], "mntr")
	copy(icc[16:], "RGB ")
	copy(icc[20:], "XYZ ")
	copy(icc[36:], "acsp")
	// Rendering intent: perceptual (0), already zero.
	binary.BigEndian.PutUint32(icc[68:], 0x0000F6D6) // PCS illuminant
	binary.BigEndian.PutUint32(icc[72:], 0x00010000)
	binary.BigEndian.PutUint32(icc[76:], 0x0000D32D)

	binary.BigEndian.PutUint32(icc[128:], uint32(len(tags)))
	for i, t := range tags {
		entry := 132 + 12*i
		copy(icc[entry:], t.sig)
		binary.BigEndian.PutUint32(icc[entry+4:], uint32(offset))
		binary.BigEndian.PutUint32(icc[entry+8:], uint32(len(t.data)))
		copy(icc[offset:], t.data)
		offset += (len(t.data) + 3) &^ 3
	}
	return icc
}
