package jpegli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertFullCoverage checks that across all scans, every coefficient
// position of every component is transmitted exactly once at each bit
// position down to zero.
func assertFullCoverage(t *testing.T, scans []ScanInfo, numComponents int) {
	t.Helper()
	// bitsSent[c][k] tracks the lowest bit already transmitted for the
	// coefficient; -1 means untouched.
	bitsSent := make([][dctBlockSize]int, numComponents)
	for c := range bitsSent {
		for k := range bitsSent[c] {
			bitsSent[c][k] = -1
		}
	}
	for i, s := range scans {
		for _, c := range s.ComponentIndices {
			for k := s.Ss; k <= s.Se; k++ {
				if s.Ah == 0 {
					require.Equal(t, -1, bitsSent[c][k], "scan %d: coefficient %d of component %d sent twice", i, k, c)
				} else {
					require.Equal(t, s.Ah, bitsSent[c][k], "scan %d: refinement skips bits at coefficient %d of component %d", i, k, c)
				}
				bitsSent[c][k] = s.Al
			}
		}
	}
	for c := range bitsSent {
		for k, al := range bitsSent[c] {
			require.Equal(t, 0, al, "coefficient %d of component %d not fully transmitted", k, c)
		}
	}
}

func TestScanScriptLevel0(t *testing.T) {
	scans := scanScript(0, 3, 0)
	require.Len(t, scans, 1)
	s := scans[0]
	assert.Equal(t, 0, s.Ss)
	assert.Equal(t, 63, s.Se)
	assert.Equal(t, 0, s.Ah)
	assert.Equal(t, 0, s.Al)
	assert.Equal(t, []int{0, 1, 2}, s.ComponentIndices)
	assert.False(t, isProgressiveScript(scans))
	assertFullCoverage(t, scans, 3)
}

func TestScanScriptLevel1(t *testing.T) {
	// No subsampling: the DC scan splits per component.
	scans := scanScript(1, 3, 0)
	require.Len(t, scans, 3+3+3)
	assert.Equal(t, []int{0}, scans[0].ComponentIndices)
	assert.True(t, isProgressiveScript(scans))
	assertFullCoverage(t, scans, 3)

	// Subsampled: the DC scan is interleaved.
	scans = scanScript(1, 3, 1)
	require.Len(t, scans, 1+3+3)
	assert.Equal(t, []int{0, 1, 2}, scans[0].ComponentIndices)
	assert.Equal(t, 0, scans[0].Se)
	assertFullCoverage(t, scans, 3)
}

func TestScanScriptLevel2(t *testing.T) {
	// Grayscale: the documented five scans.
	scans := scanScript(2, 1, 0)
	require.Len(t, scans, 5)
	assert.Equal(t, 0, scans[0].Ss)
	assert.Equal(t, 0, scans[0].Se)
	assert.Equal(t, ScanInfo{Ss: 1, Se: 2, Ah: 0, Al: 0, ComponentIndices: []int{0}}, scans[1])
	assert.Equal(t, ScanInfo{Ss: 3, Se: 63, Ah: 0, Al: 2, ComponentIndices: []int{0}}, scans[2])
	assert.Equal(t, ScanInfo{Ss: 3, Se: 63, Ah: 2, Al: 1, ComponentIndices: []int{0}}, scans[3])
	assert.Equal(t, ScanInfo{Ss: 3, Se: 63, Ah: 1, Al: 0, ComponentIndices: []int{0}}, scans[4])
	assertFullCoverage(t, scans, 1)

	// RGB 4:4:4 expands the non-interleaved scans per component.
	scans = scanScript(2, 3, 0)
	require.Len(t, scans, 3+4*3)
	assertFullCoverage(t, scans, 3)

	// Levels beyond 2 reuse the level-2 script.
	assert.Equal(t, scans, scanScript(5, 3, 0))
}

func TestValidateScanScript(t *testing.T) {
	good := scanScript(2, 3, 1)
	require.NoError(t, validateScanScript(good, 3))

	tests := []struct {
		name  string
		scans []ScanInfo
	}{
		{"empty", nil},
		{"bad spectral range", []ScanInfo{{Ss: 10, Se: 5, ComponentIndices: []int{0}}}},
		{"spectral end out of range", []ScanInfo{{Ss: 0, Se: 64, ComponentIndices: []int{0}}}},
		{"interleaved AC", []ScanInfo{
			{Ss: 0, Se: 0, ComponentIndices: []int{0, 1, 2}},
			{Ss: 1, Se: 63, ComponentIndices: []int{0, 1}},
		}},
		{"skipped refinement bit", []ScanInfo{{Ss: 1, Se: 63, Ah: 3, Al: 1, ComponentIndices: []int{0}}}},
		{"unknown component", []ScanInfo{{Ss: 0, Se: 63, ComponentIndices: []int{3}}}},
		{"repeated component", []ScanInfo{{Ss: 0, Se: 0, ComponentIndices: []int{1, 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, validateScanScript(tt.scans, 3), ErrConfiguration)
		})
	}
}
