// Package tinycompress writes zlib streams made of stored (uncompressed)
// DEFLATE blocks. The output is readable by any zlib decoder and the
// writer needs no compression tables, which keeps it small enough for
// the bridge firmware.
package tinycompress

import (
	"errors"
	"hash"
	"hash/adler32"
	"io"
)

// maxBlock is the largest stored block DEFLATE allows
const maxBlock = 0xFFFF

var errClosed = errors.New("tinycompress: write after close")

// Writer buffers everything written to it and emits the zlib stream on
// Close.
type Writer struct {
	output io.Writer
	buf    []byte
	adler  hash.Hash32
	closed bool
}

// NewWriter creates a writer that emits to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		output: w,
		adler:  adler32.New(),
	}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close writes the header, the stored blocks and the Adler-32 trailer
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	out := make([]byte, 0, len(w.buf)+len(w.buf)/maxBlock*5+11)
	out = append(out, 0x78, 0x01)

	data := w.buf
	for {
		n := len(data)
		if n > maxBlock {
			n = maxBlock
		}
		final := byte(0)
		if n == len(data) {
			final = 1
		}
		length := uint16(n)
		out = append(out, final,
			byte(length), byte(length>>8),
			byte(^length), byte(^length>>8))
		out = append(out, data[:n]...)
		data = data[n:]
		if final == 1 {
			break
		}
	}

	w.adler.Write(w.buf)
	sum := w.adler.Sum32()
	out = append(out, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))

	_, err := w.output.Write(out)
	return err
}

// Compress is a convenience wrapper around Writer
func Compress(data []byte) []byte {
	var out sliceWriter
	w := NewWriter(&out)
	_, _ = w.Write(data)
	_ = w.Close()
	return out
}

type sliceWriter []byte

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s = append(*s, p...)
	return len(p), nil
}
