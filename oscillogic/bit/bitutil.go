package bit

import "math/bits"

// IsSet will check if the bit at the specified index is Set to 1 or not.
func IsSet(index, byte uint8) bool {
	return ((byte >> index) & 1) == 1
}

// Set will return the passed byte with the bit at the specified index Set to 1.
func Set(index, byte uint8) uint8 {
	return byte | (1 << index)
}

// Clear will return the passed byte with the bit at the specified index Set to 0.
func Clear(index, byte uint8) uint8 {
	return byte & ^(1 << index)
}

// Ones counts the set bits across data.
func Ones(data []byte) int {
	n := 0
	for _, b := range data {
		n += bits.OnesCount8(b)
	}
	return n
}

// Unpack expands the first count bits of data, most significant bit first.
func Unpack(data []byte, count int) []bool {
	if limit := len(data) * 8; count > limit {
		count = limit
	}
	out := make([]bool, count)
	for i := range out {
		out[i] = IsSet(uint8(7-i%8), data[i/8])
	}
	return out
}
