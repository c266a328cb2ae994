package capsule

import "math"

// palette is the fixed set of placeholder colors. Selection must be
// deterministic for a given seed so a capsule keeps its color across renders.
var palette = []string{
	"#f97316", // orange
	"#eab308", // amber
	"#22c55e", // green
	"#06b6d4", // cyan
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#ef4444", // red
}

// PaletteSize returns the number of colors in the fixed palette.
func PaletteSize() int {
	return len(palette)
}

// PaletteIndex maps a numeric seed to a palette slot:
// floor(seed * N) mod N. Seeds outside [0, 1) still map to a valid slot;
// NaN falls back to the first.
func PaletteIndex(seed float64) int {
	n := len(palette)
	if math.IsNaN(seed) || math.IsInf(seed, 0) {
		return 0
	}
	idx := int(math.Floor(seed*float64(n))) % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// ColorForSeed maps a numeric seed to a palette color.
func ColorForSeed(seed float64) string {
	return palette[PaletteIndex(seed)]
}
