// Package checksum implements the additive checksum used by the
// target-side copy-to-flash routine. Host and target compute the same
// value over the same bytes, so the two results are directly comparable.
package checksum

// Sum32 returns the sum of the unsigned byte values of data,
// accumulated in a 32-bit register with native wraparound on overflow.
// This mirrors the accumulation loop in the target firmware; any
// deployment-specific firmware must use the same algorithm for the
// per-chunk verification to be meaningful.
func Sum32(data []byte) uint32 {
	return Accumulate(0, data)
}

// Accumulate continues a Sum32 computation from a previous value.
// Accumulate(Sum32(a), b) == Sum32(append(a, b...)).
func Accumulate(seed uint32, data []byte) uint32 {
	sum := seed
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}
