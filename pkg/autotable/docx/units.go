package docx

// EMU (English Metric Units) per typographic point.
// 1 inch = 914400 EMU = 72 pt, therefore 914400 / 72 = 12700 EMU per point.
const EMUPerPoint = 12700

// EMUPerHalfPoint is the EMU width of one w:sz unit.
const EMUPerHalfPoint = EMUPerPoint / 2

// maxHalfPoints bounds a plausible w:sz value. Word caps font sizes at
// 1638 pt; anything larger was written in EMU by a foreign producer.
const maxHalfPoints = 4000

// EMUToHalfPoints converts EMU to w:sz half-points.
func EMUToHalfPoints(emu int64) int {
	return int(emu / EMUPerHalfPoint)
}

// normalizeSize returns a w:sz value in half-points, converting values that
// are too large to be half-points from EMU.
func normalizeSize(v int) int {
	if v > maxHalfPoints {
		return EMUToHalfPoints(int64(v))
	}
	return v
}
