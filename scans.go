package jpegli

import "fmt"

// ScanInfo describes one scan: the spectral band [Ss,Se], the successive
// approximation bit positions Ah/Al, and the frame components coded in
// the scan.
type ScanInfo struct {
	Ss, Se           int
	Ah, Al           int
	ComponentIndices []int
}

// progressiveScan is one entry of a scan script before expansion;
// non-interleaved entries expand to one scan per component.
type progressiveScan struct {
	ss, se, ah, al int
	interleaved    bool
}

// scanScript returns the default scan sequence for a progressive level.
// Level 0 is a single baseline scan. Level 1 sends DC, then the AC band
// without its lowest bit, then the refinement bit. Level 2 and above
// additionally split the AC band spectrally and refines in two steps.
// The DC scan is interleaved only when chroma is subsampled; AC scans
// are always per-component as required by T.81.
func scanScript(progressiveLevel, numComponents, maxShift int) []ScanInfo {
	var script []progressiveScan
	switch {
	case progressiveLevel <= 0:
		script = []progressiveScan{{0, 63, 0, 0, true}}
	case progressiveLevel == 1:
		script = []progressiveScan{
			{0, 0, 0, 0, maxShift > 0},
			{1, 63, 0, 1, false},
			{1, 63, 1, 0, false},
		}
	default:
		script = []progressiveScan{
			{0, 0, 0, 0, maxShift > 0},
			{1, 2, 0, 0, false},
			{3, 63, 0, 2, false},
			{3, 63, 2, 1, false},
			{3, 63, 1, 0, false},
		}
	}

	var scans []ScanInfo
	for _, s := range script {
		if s.interleaved {
			comps := make([]int, numComponents)
			for c := range comps {
				comps[c] = c
			}
			scans = append(scans, ScanInfo{Ss: s.ss, Se: s.se, Ah: s.ah, Al: s.al, ComponentIndices: comps})
		} else {
			for c := 0; c < numComponents; c++ {
				scans = append(scans, ScanInfo{Ss: s.ss, Se: s.se, Ah: s.ah, Al: s.al, ComponentIndices: []int{c}})
			}
		}
	}
	return scans
}

// validateScanScript rejects scripts that violate T.81 scan constraints:
// bad spectral bounds, interleaved AC scans, DC mixed with AC, or
// refinement steps that skip bits.
func validateScanScript(scans []ScanInfo, numComponents int) error {
	if len(scans) == 0 {
		return fmt.Errorf("%w: empty scan script", ErrConfiguration)
	}
	for i, s := range scans {
		if s.Ss < 0 || s.Se > 63 || s.Ss > s.Se {
			return fmt.Errorf("%w: scan %d has invalid spectral range [%d,%d]", ErrConfiguration, i, s.Ss, s.Se)
		}
		if s.Ss == 0 && s.Se != 0 && (s.Ah != 0 || s.Al != 0 || len(scans) > 1) {
			return fmt.Errorf("%w: scan %d mixes DC and AC bands", ErrConfiguration, i)
		}
		if s.Ss > 0 && len(s.ComponentIndices) != 1 {
			return fmt.Errorf("%w: scan %d is an interleaved AC scan", ErrConfiguration, i)
		}
		if s.Ah != 0 && s.Ah != s.Al+1 {
			return fmt.Errorf("%w: scan %d has successive approximation %d/%d", ErrConfiguration, i, s.Ah, s.Al)
		}
		if s.Al < 0 || s.Al > 13 {
			return fmt.Errorf("%w: scan %d has point transform %d", ErrConfiguration, i, s.Al)
		}
		if len(s.ComponentIndices) == 0 || len(s.ComponentIndices) > maxComponents {
			return fmt.Errorf("%w: scan %d has %d components", ErrConfiguration, i, len(s.ComponentIndices))
		}
		seen := map[int]bool{}
		for _, c := range s.ComponentIndices {
			if c < 0 || c >= numComponents {
				return fmt.Errorf("%w: scan %d names component %d", ErrConfiguration, i, c)
			}
			if seen[c] {
				return fmt.Errorf("%w: scan %d repeats component %d", ErrConfiguration, i, c)
			}
			seen[c] = true
		}
	}
	return nil
}

// isProgressiveScript reports whether a script needs an SOF2 frame
// header: any scan restricted spectrally or by successive approximation.
func isProgressiveScript(scans []ScanInfo) bool {
	for _, s := range scans {
		if s.Ss != 0 || s.Se != 63 || s.Ah != 0 || s.Al != 0 {
			return true
		}
	}
	return false
}
