package audio

import (
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const wavBitDepth = 16

// WAVRecorder writes output batches as a mono 16-bit WAV stream at the tick
// rate.
type WAVRecorder struct {
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	closer  io.Closer
	samples uint64
}

// NewWAVRecorder encodes to w. The header is finalised by Close.
func NewWAVRecorder(w io.WriteSeeker, sampleRate int) *WAVRecorder {
	return &WAVRecorder{
		enc: wav.NewEncoder(w, sampleRate, wavBitDepth, 1, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: 1,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: wavBitDepth,
		},
	}
}

// CreateWAV creates path and records into it. Close also closes the file.
func CreateWAV(path string, sampleRate int) (*WAVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create wav")
	}
	r := NewWAVRecorder(f, sampleRate)
	r.closer = f
	return r, nil
}

func (r *WAVRecorder) WriteBatch(batch []int8) error {
	if cap(r.buf.Data) < len(batch) {
		r.buf.Data = make([]int, len(batch))
	}
	r.buf.Data = r.buf.Data[:len(batch)]
	for i, c := range batch {
		r.buf.Data[i] = int(ToPCM(c))
	}

	if err := r.enc.Write(r.buf); err != nil {
		return errors.Wrap(err, "write wav")
	}
	r.samples += uint64(len(batch))
	return nil
}

// Samples is the number of samples written.
func (r *WAVRecorder) Samples() uint64 { return r.samples }

func (r *WAVRecorder) Close() error {
	err := r.enc.Close()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "close wav")
}
