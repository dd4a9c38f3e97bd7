package jpegli

import "math"

// QuantMode selects the base quantization matrix family.
type QuantMode int

const (
	QuantXYB QuantMode = iota
	QuantYCbCr
	QuantStd
	numQuantModes
)

// Global scales are chosen so the perceptual 3-norm of the output matches
// libjpeg at the same quality setting.
const (
	kGlobalScaleXYB   = 0.86747522
	kGlobalScaleYCbCr = 1.03148720
	kGlobalScaleStd   = 1.0
)

var kGlobalScales = [numQuantModes]float32{kGlobalScaleXYB, kGlobalScaleYCbCr, kGlobalScaleStd}

// Base quantization step matrices in natural order, one per quant table
// index. The perceptual tables are smooth radial CSF ramps; entries are
// step sizes at distance 1.0 before global scaling.
var baseQuantMatrixYCbCr = [3][dctBlockSize]float32{
	{ // luminance
		10, 8.96, 11.68, 14.94, 18.62, 22.63, 26.94, 31.5,
		8.96, 10.01, 12.41, 15.51, 19.09, 23.04, 27.3, 31.84,
		11.68, 12.41, 14.35, 17.12, 20.47, 24.26, 28.39, 32.82,
		14.94, 15.51, 17.12, 19.56, 22.63, 26.19, 30.14, 34.43,
		18.62, 19.09, 20.47, 22.63, 25.43, 28.75, 32.5, 36.61,
		22.63, 23.04, 24.26, 26.19, 28.75, 31.84, 35.37, 39.3,
		26.94, 27.3, 28.39, 30.14, 32.5, 35.37, 38.71, 42.45,
		31.5, 31.84, 32.82, 34.43, 36.61, 39.3, 42.45, 46,
	},
	{ // Cb
		11.5, 16.08, 23.26, 30.83, 38.66, 46.69, 54.88, 63.21,
		16.08, 19, 25.02, 32.09, 39.64, 47.49, 55.57, 63.81,
		23.26, 25.02, 29.51, 35.55, 42.43, 49.83, 57.57, 65.57,
		30.83, 32.09, 35.55, 40.59, 46.69, 53.49, 60.77, 68.4,
		38.66, 39.64, 42.43, 46.69, 52.05, 58.22, 64.99, 72.19,
		46.69, 47.49, 49.83, 53.49, 58.22, 63.81, 70.05, 76.81,
		54.88, 55.57, 57.57, 60.77, 64.99, 70.05, 75.8, 82.11,
		63.21, 63.81, 65.57, 68.4, 72.19, 76.81, 82.11, 88,
	},
	{ // Cr
		11, 15.07, 21.56, 28.39, 35.46, 42.7, 50.1, 57.62,
		15.07, 17.7, 23.14, 29.52, 36.34, 43.43, 50.72, 58.16,
		21.56, 23.14, 27.2, 32.64, 38.86, 45.54, 52.53, 59.75,
		28.39, 29.52, 32.64, 37.2, 42.7, 48.84, 55.41, 62.31,
		35.46, 36.34, 38.86, 42.7, 47.55, 53.12, 59.22, 65.73,
		42.7, 43.43, 45.54, 48.84, 53.12, 58.16, 63.8, 69.89,
		50.1, 50.72, 52.53, 55.41, 59.22, 63.8, 68.99, 74.68,
		57.62, 58.16, 59.75, 62.31, 65.73, 69.89, 74.68, 80,
	},
}

var baseQuantMatrixXYB = [3][dctBlockSize]float32{
	{ // X
		7, 7.04, 9.15, 11.62, 14.34, 17.29, 20.41, 23.7,
		7.04, 7.86, 9.71, 12.04, 14.7, 17.59, 20.68, 23.94,
		9.15, 9.71, 11.17, 13.24, 15.71, 18.47, 21.46, 24.65,
		11.62, 12.04, 13.24, 15.04, 17.29, 19.87, 22.72, 25.8,
		14.34, 14.7, 15.71, 17.29, 19.32, 21.72, 24.41, 27.35,
		17.29, 17.59, 18.47, 19.87, 21.72, 23.94, 26.47, 29.26,
		20.41, 20.68, 21.46, 22.72, 24.41, 26.47, 28.84, 31.49,
		23.7, 23.94, 24.65, 25.8, 27.35, 29.26, 31.49, 34,
	},
	{ // Y
		9.5, 8.58, 11.04, 13.98, 17.3, 20.92, 24.8, 28.92,
		8.58, 9.53, 11.7, 14.5, 17.73, 21.29, 25.14, 29.22,
		11.04, 11.7, 13.45, 15.95, 18.97, 22.39, 26.12, 30.11,
		13.98, 14.5, 15.95, 18.15, 20.92, 24.13, 27.7, 31.56,
		17.3, 17.73, 18.97, 20.92, 23.44, 26.44, 29.82, 33.53,
		20.92, 21.29, 22.39, 24.13, 26.44, 29.22, 32.41, 35.95,
		24.8, 25.14, 26.12, 27.7, 29.82, 32.41, 35.42, 38.79,
		28.92, 29.22, 30.11, 31.56, 33.53, 35.95, 38.79, 42,
	},
	{ // B
		14, 21.9, 31.8, 41.7, 51.6, 61.5, 71.4, 81.3,
		21.9, 26, 34.14, 43.3, 52.82, 62.48, 72.22, 82,
		31.8, 34.14, 40, 47.69, 56.27, 65.31, 74.61, 84.07,
		41.7, 43.3, 47.69, 54, 61.5, 69.72, 78.41, 87.39,
		51.6, 52.82, 56.27, 61.5, 68, 75.39, 83.39, 91.81,
		61.5, 62.48, 65.31, 69.72, 75.39, 82, 89.32, 97.16,
		71.4, 72.22, 74.61, 78.41, 83.39, 89.32, 96, 103.27,
		81.3, 82, 84.07, 87.39, 91.81, 97.16, 103.27, 110,
	},
}

// Annex K tables, section K.1 of ITU-T T.81, natural order.
var baseQuantMatrixStd = [2][dctBlockSize]float32{
	{ // luminance
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	},
	{ // chrominance
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	},
}

// QualityToDistance maps a libjpeg-style quality setting in [1,100] to a
// perceptual distance.
func QualityToDistance(quality int) float32 {
	if quality >= 100 {
		return 0.01
	}
	if quality >= 30 {
		return 0.1 + float32(100-quality)*0.09
	}
	q := float32(quality)
	return 53.0/3000.0*q*q - 23.0/20.0*q + 25.0
}

// LinearQualityToDistance maps a libjpeg linear scale factor (as produced
// by QualityScaling) back to a distance.
func LinearQualityToDistance(scaleFactor int) float32 {
	scaleFactor = min(5000, max(0, scaleFactor))
	var quality int
	if scaleFactor < 100 {
		quality = 100 - scaleFactor/2
	} else {
		quality = 5000 / scaleFactor
	}
	return QualityToDistance(quality)
}

// QualityScaling converts quality in [1,100] to the libjpeg linear
// scaling factor applied to the Annex K tables.
func QualityScaling(quality int) int {
	quality = min(100, max(1, quality))
	if quality < 50 {
		return 5000 / quality
	}
	return 200 - 2*quality
}

// DistanceToLinearQuality maps distance to the linear scale of the Annex K
// tables. Monotonic non-decreasing on [0, inf); the result never exceeds
// 5000, the linear scale of quality 1.
func DistanceToLinearQuality(distance float32) float32 {
	switch {
	case distance <= 0.1:
		return 1.0
	case distance <= 4.6:
		return (200.0 / 9.0) * (distance - 0.1)
	case distance <= 6.4:
		return 5000.0 / (100.0 - (distance-0.1)/0.09)
	case distance < 25.0:
		return min(5000.0, 530000.0/(3450.0-300.0*float32(math.Sqrt(float64((848.0*distance-5330.0)/120.0)))))
	default:
		return 5000.0
	}
}

// quantTable is one frame quantization table with its DQT slot index.
type quantTable struct {
	index     int
	precision int // 0: 8-bit entries, 1: 16-bit entries
	values    [dctBlockSize]int32
}

// quantScales derives the DC and AC table scales from the mode, distance
// and the dynamic range of the adaptive quant field.
func quantScales(mode QuantMode, distance, qfMax float32, tf transferFunction) (dcScale, acScale float32) {
	globalScale := kGlobalScales[mode]
	if mode != QuantXYB {
		switch tf {
		case transferPQ:
			globalScale *= 0.4
		case transferHLG:
			globalScale *= 0.5
		}
	}
	if mode == QuantStd {
		linear := 0.01 * globalScale * DistanceToLinearQuality(distance)
		return linear, linear
	}
	return globalScale / initialQuantDC(distance), globalScale * distance / qfMax
}

// makeQuantTables computes the integer quantization tables for all
// components, in zigzag order. Entries are clamped to [1,255] when
// forceBaseline, else [1,32767] with 16-bit DQT precision where needed.
func makeQuantTables(mode QuantMode, numComponents int, dcScale, acScale float32, forceBaseline bool) []quantTable {
	maxVal := int32(32767)
	if forceBaseline {
		maxVal = 255
	}
	numTables := numComponents
	tables := make([]quantTable, numTables)
	for c := 0; c < numTables; c++ {
		var base *[dctBlockSize]float32
		switch mode {
		case QuantXYB:
			base = &baseQuantMatrixXYB[c]
		case QuantYCbCr:
			base = &baseQuantMatrixYCbCr[c]
		default:
			base = &baseQuantMatrixStd[min(c, 1)]
		}
		t := &tables[c]
		t.index = c
		for k := 0; k < dctBlockSize; k++ {
			scale := acScale
			if k == 0 {
				scale = dcScale
			}
			v := int32(math.Round(float64(base[zigZagOrder[k]] * scale)))
			if v < 1 {
				v = 1
			} else if v > maxVal {
				v = maxVal
			}
			t.values[k] = v
			if v > 255 {
				t.precision = 1
			}
		}
	}
	return tables
}
