package serial

import (
	"encoding/binary"
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/valerio/go-oscillogic/oscillogic/audio"
)

// Frame header layout: two sync bytes, a big-endian sequence number and a
// big-endian payload length.
const (
	SyncByte0  = 0xA5
	SyncByte1  = 0x5A
	HeaderSize = 6
)

var _ audio.BatchSink = (*Link)(nil)

// Link streams output batches to an external consumer as unsigned 8-bit
// samples, code+128, one write per batch.
type Link struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger
	buf    []byte

	// settings
	framed bool

	seq    uint16
	frames uint64
	bytes  uint64
	err    error
}

type LinkOption func(*Link)

// WithFraming prefixes every batch with a header so a reader can resync
// after a lost byte.
func WithFraming() LinkOption { return func(l *Link) { l.framed = true } }

// WithLogger sets the logger used for link errors.
func WithLogger(logger *slog.Logger) LinkOption { return func(l *Link) { l.logger = logger } }

func NewLink(w io.Writer, opts ...LinkOption) *Link {
	l := &Link{w: w, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WriteBatch sends one batch. After the first write error the link stays
// failed and returns that error.
func (l *Link) WriteBatch(batch []int8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return l.err
	}

	l.buf = l.buf[:0]
	if l.framed {
		var header [HeaderSize]byte
		header[0], header[1] = SyncByte0, SyncByte1
		binary.BigEndian.PutUint16(header[2:], l.seq)
		binary.BigEndian.PutUint16(header[4:], uint16(len(batch)))
		l.buf = append(l.buf, header[:]...)
	}
	for _, code := range batch {
		l.buf = append(l.buf, audio.ToUnsigned(code))
	}

	n, err := l.w.Write(l.buf)
	l.bytes += uint64(n)
	if err != nil {
		l.err = errors.Wrapf(err, "link frame %d", l.seq)
		l.logger.Error("Link write failed", "frame", l.seq, "written", n, "error", err)
		return l.err
	}

	l.seq++
	l.frames++
	return nil
}

// Frames counts batches sent.
func (l *Link) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// BytesWritten counts bytes accepted by the writer, headers included.
func (l *Link) BytesWritten() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bytes
}

// ReadFrame reads one framed batch from r and returns its sequence number
// and payload.
func ReadFrame(r io.Reader) (uint16, []byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	if header[0] != SyncByte0 || header[1] != SyncByte1 {
		return 0, nil, errors.Errorf("bad sync bytes %#02x %#02x", header[0], header[1])
	}
	seq := binary.BigEndian.Uint16(header[2:])
	payload := make([]byte, binary.BigEndian.Uint16(header[4:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return seq, nil, errors.Wrapf(err, "frame %d payload", seq)
	}
	return seq, payload, nil
}
