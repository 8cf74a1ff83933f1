package tinycompress

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
)

func inflate(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("zlib.NewReader failed: %v", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	return out
}

func TestCompressReadableByZlib(t *testing.T) {
	testCases := [][]byte{
		{},
		[]byte(`{"version":"test"}`),
		bytes.Repeat([]byte("0123456789abcdef"), 5000), // spans two stored blocks
	}

	for i, input := range testCases {
		got := inflate(t, Compress(input))
		if !bytes.Equal(got, input) {
			t.Errorf("Test case %d: round trip mismatch (%d bytes in, %d out)", i, len(input), len(got))
		}
	}
}

func TestWriterRejectsWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := w.Write([]byte("d")); err == nil {
		t.Error("Expected write after close to fail")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
	if buf.Bytes()[0] != 0x78 {
		t.Errorf("Expected zlib header, got 0x%02x", buf.Bytes()[0])
	}
}
