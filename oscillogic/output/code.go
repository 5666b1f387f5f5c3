package output

const (
	// CodeHigh and CodeLow are the full-swing duty values for a true and a
	// false result.
	CodeHigh int8 = 127
	CodeLow  int8 = -128
)

// Code maps a boolean result to its signed 8-bit duty value.
func Code(result bool) int8 {
	if result {
		return CodeHigh
	}
	return CodeLow
}
