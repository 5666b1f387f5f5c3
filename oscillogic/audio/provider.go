package audio

// Provider supplies PCM samples to a playback device.
type Provider interface {
	// GetSamples retrieves count samples for playback. Missing samples are
	// returned as silence.
	GetSamples(count int) []int16
}

var _ Provider = (*Ring)(nil)

// ToUnsigned converts an output code to the unsigned 8-bit form used on the
// monitoring link (-128 maps to 0, 127 to 255).
func ToUnsigned(code int8) uint8 {
	return uint8(int16(code) + 128)
}

// ToPCM scales an output code to a 16-bit PCM sample.
func ToPCM(code int8) int16 {
	return int16(code) << 8
}
