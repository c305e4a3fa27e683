package cursor

import "math"

// ScanFloat32Near returns the absolute positions of every little-endian
// float32 in buf whose value falls within tolerance of target. It mirrors
// the original toolchain's standalone binary_search.py helper used to pin
// down the meaning of an opaque float field by bisecting known-good values;
// kept here as a diagnostic, not part of the public API. Nothing in this
// module calls it.
func ScanFloat32Near(buf []byte, target, tolerance float32) []int {
	var hits []int
	for i := 0; i+4 <= len(buf); i++ {
		v := math.Float32frombits(
			uint32(buf[i]) | uint32(buf[i+1])<<8 | uint32(buf[i+2])<<16 | uint32(buf[i+3])<<24,
		)
		if float32(math.Abs(float64(v-target))) <= tolerance {
			hits = append(hits, i)
		}
	}
	return hits
}
