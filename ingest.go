package jpegli

import (
	"encoding/binary"
	"math"
)

// DataType selects the input sample representation.
type DataType int

const (
	TypeUint8 DataType = iota
	TypeUint16
	TypeFloat32
)

// BytesPerSample returns the input stride contribution of one sample.
func (t DataType) BytesPerSample() int {
	switch t {
	case TypeUint16:
		return 2
	case TypeFloat32:
		return 4
	default:
		return 1
	}
}

// Endianness selects the byte order of multi-byte input samples.
type Endianness int

const (
	NativeEndian Endianness = iota
	LittleEndian
	BigEndian
)

var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

func (e Endianness) little() bool {
	return e == LittleEndian || (e == NativeEndian && hostLittleEndian)
}

const (
	kMul8  = 1.0 / 255.0
	kMul16 = 1.0 / 65535.0
)

// ingestScanlines deinterleaves numLines rows into the planar float
// buffers starting at row cursor y0. Sample values are normalized to
// [0,1] for integer types and passed through for float input. Rows are
// expected to hold width*numComponents samples each.
func ingestScanlines(planes []*plane, scanlines [][]byte, y0, width int, dataType DataType, endianness Endianness) {
	numComponents := len(planes)
	pixStride := numComponents * dataType.BytesPerSample()
	little := endianness.little()
	for c := 0; c < numComponents; c++ {
		for i, line := range scanlines {
			row := planes[c].row(y0 + i)
			switch dataType {
			case TypeUint8:
				p := line[c:]
				for x := 0; x < width; x++ {
					row[x] = float32(p[x*pixStride]) * kMul8
				}
			case TypeUint16:
				p := line[c*2:]
				if little {
					for x := 0; x < width; x++ {
						row[x] = float32(binary.LittleEndian.Uint16(p[x*pixStride:])) * kMul16
					}
				} else {
					for x := 0; x < width; x++ {
						row[x] = float32(binary.BigEndian.Uint16(p[x*pixStride:])) * kMul16
					}
				}
			case TypeFloat32:
				p := line[c*4:]
				if little {
					for x := 0; x < width; x++ {
						row[x] = math.Float32frombits(binary.LittleEndian.Uint32(p[x*pixStride:]))
					}
				} else {
					for x := 0; x < width; x++ {
						row[x] = math.Float32frombits(binary.BigEndian.Uint32(p[x*pixStride:]))
					}
				}
			}
		}
	}
}
