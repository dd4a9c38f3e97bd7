package jpegli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeProfile(n int) []byte {
	icc := make([]byte, n)
	for i := range icc {
		icc[i] = byte(i * 7)
	}
	return icc
}

func TestICCRoundTrip(t *testing.T) {
	sizes := []int{1, 100, maxIccBytesInMarker, maxIccBytesInMarker + 1, 70000, 3 * maxIccBytesInMarker}
	for _, n := range sizes {
		icc := makeProfile(n)
		markers := createICCMarkers(icc)
		out, err := parseChunkedICC(markers, false)
		require.NoError(t, err, "size %d", n)
		require.True(t, bytes.Equal(icc, out), "size %d round trip mismatch", n)
	}
}

func TestICCChunking70000(t *testing.T) {
	icc := makeProfile(70000)
	markers := createICCMarkers(icc)
	require.Len(t, markers, 2)
	for i, m := range markers {
		require.Equal(t, byte(iccMarker), m.Kind())
		payload, ok := m.Payload()
		require.True(t, ok)
		assert.True(t, bytes.HasPrefix(payload, iccSignature))
		assert.Equal(t, byte(i+1), payload[12])
		assert.Equal(t, byte(2), payload[13])
	}
	p0, _ := markers[0].Payload()
	assert.Len(t, p0[14:], maxIccBytesInMarker)
}

func TestICCParseFailures(t *testing.T) {
	icc := makeProfile(2 * maxIccBytesInMarker)
	base := createICCMarkers(icc)

	t.Run("duplicate chunk", func(t *testing.T) {
		markers := []SpecialMarker{base[0], base[0]}
		_, err := parseChunkedICC(markers, true)
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("missing chunk", func(t *testing.T) {
		_, err := parseChunkedICC([]SpecialMarker{base[0]}, true)
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("invalid order", func(t *testing.T) {
		markers := []SpecialMarker{base[1], base[0]}
		_, err := parseChunkedICC(markers, false)
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("permutation allowed", func(t *testing.T) {
		markers := []SpecialMarker{base[1], base[0]}
		out, err := parseChunkedICC(markers, true)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(icc, out))
	})
	t.Run("mismatched total", func(t *testing.T) {
		other := createICCMarkers(makeProfile(10))
		markers := []SpecialMarker{base[0], other[0]}
		_, err := parseChunkedICC(markers, true)
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("chunk too small", func(t *testing.T) {
		m, _ := newSpecialMarker(iccMarker, len(iccSignature)+1)
		m = append(m, iccSignature...)
		m = append(m, 1)
		_, err := parseChunkedICC([]SpecialMarker{m}, true)
		assert.ErrorIs(t, err, ErrFormat)
	})
	t.Run("zero total", func(t *testing.T) {
		m, _ := newSpecialMarker(iccMarker, len(iccSignature)+2)
		m = append(m, iccSignature...)
		m = append(m, 1, 0)
		_, err := parseChunkedICC([]SpecialMarker{m}, true)
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestICCFallbackToSRGB(t *testing.T) {
	// Corrupt chain: encoding falls back to sRGB and surfaces a warning.
	icc := makeProfile(2 * maxIccBytesInMarker)
	base := createICCMarkers(icc)
	enc, warn := colorEncodingFromICC([]SpecialMarker{base[0]}, 3, false)
	assert.Error(t, warn)
	assert.False(t, enc.gray)
	assert.Equal(t, transferSRGB, enc.tf)

	enc, _ = colorEncodingFromICC(nil, 1, false)
	assert.True(t, enc.gray)
}

func TestUpsertICCMarkers(t *testing.T) {
	app1, err := newSpecialMarker(markerAPP0+1, 4)
	require.NoError(t, err)
	app1 = append(app1, 1, 2, 3, 4)
	old := createICCMarkers(makeProfile(30000))
	com, err := newSpecialMarker(markerCOM, 2)
	require.NoError(t, err)
	com = append(com, 'h', 'i')

	markers := []SpecialMarker{app1, old[0], com}
	out := upsertICCMarkers(markers, makeProfile(10))

	require.Len(t, out, 3)
	assert.Equal(t, byte(markerAPP0+1), out[0].Kind())
	assert.Equal(t, byte(iccMarker), out[1].Kind())
	assert.Equal(t, byte(markerCOM), out[2].Kind())
	parsed, err := parseChunkedICC(out, false)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(makeProfile(10), parsed))

	// No APP2 present: the chain is appended.
	out = upsertICCMarkers([]SpecialMarker{app1}, makeProfile(10))
	require.Len(t, out, 2)
	assert.Equal(t, byte(iccMarker), out[1].Kind())
}

func TestXYBICCProfileParses(t *testing.T) {
	icc := xybICCProfile()
	require.GreaterOrEqual(t, len(icc), 132)
	assert.Equal(t, "RGB ", string(icc[16:20]))
	assert.Equal(t, "acsp", string(icc[36:40]))
	enc := decodeICCProfile(icc, false)
	assert.False(t, enc.gray)

	// Embedding and recovering it through markers keeps it intact.
	markers := createICCMarkers(icc)
	out, err := parseChunkedICC(markers, false)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(icc, out))
}

func TestDecodeICCProfileCICP(t *testing.T) {
	mk := func(transfer byte) []byte {
		icc := make([]byte, 160)
		copy(icc[16:], "RGB ")
		icc[128+3] = 1 // one tag
		copy(icc[132:], "cicp")
		icc[132+7] = 144 // offset
		icc[132+11] = 12 // size
		icc[144+9] = transfer
		return icc
	}
	assert.Equal(t, transferPQ, decodeICCProfile(mk(16), false).tf)
	assert.Equal(t, transferHLG, decodeICCProfile(mk(18), false).tf)
	assert.Equal(t, transferSRGB, decodeICCProfile(mk(13), false).tf)
}
