package bit

import (
	"io"

	"github.com/pkg/errors"
)

const defaultPackerBuffer = 512

// Packer accumulates single bits into bytes, most significant bit first, and
// writes full buffers to an io.Writer. A nil writer discards the output but
// still counts it.
type Packer struct {
	w   io.Writer
	buf []byte
	cur uint8
	n   uint8 // bits in cur

	bits    uint64
	ones    uint64
	written uint64
	err     error
}

func NewPacker(w io.Writer) *Packer {
	return &Packer{w: w, buf: make([]byte, 0, defaultPackerBuffer)}
}

// WriteBit appends one bit. After a write error every call returns that
// error and nothing else is written.
func (p *Packer) WriteBit(v bool) error {
	if p.err != nil {
		return p.err
	}

	if v {
		p.cur = Set(7-p.n, p.cur)
		p.ones++
	} else {
		p.cur = Clear(7-p.n, p.cur)
	}
	p.n++
	p.bits++

	if p.n == 8 {
		p.buf = append(p.buf, p.cur)
		p.cur, p.n = 0, 0
		if len(p.buf) == cap(p.buf) {
			return p.flushBuffer()
		}
	}
	return nil
}

func (p *Packer) flushBuffer() error {
	if len(p.buf) == 0 {
		return nil
	}
	if p.w != nil {
		if _, err := p.w.Write(p.buf); err != nil {
			p.err = errors.Wrap(err, "bitstream write")
			return p.err
		}
	}
	p.written += uint64(len(p.buf))
	p.buf = p.buf[:0]
	return nil
}

// Flush writes any buffered bytes, padding a partial byte with zeros.
func (p *Packer) Flush() error {
	if p.err != nil {
		return p.err
	}
	if p.n > 0 {
		p.buf = append(p.buf, p.cur)
		p.cur, p.n = 0, 0
	}
	return p.flushBuffer()
}

// Bits is the number of bits written so far.
func (p *Packer) Bits() uint64 { return p.bits }

// Ones is the number of set bits written so far.
func (p *Packer) Ones() uint64 { return p.ones }

// BytesWritten is the number of bytes handed to the writer.
func (p *Packer) BytesWritten() uint64 { return p.written }
