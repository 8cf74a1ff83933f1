package protocol

import (
	"errors"
	"fmt"
)

// ErrFrameTooLong is returned when a payload does not fit in one frame
var ErrFrameTooLong = errors.New("protocol: frame too long")

// CRC16 is the CCITT variant used in the frame trailer
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}

// Frame is one decoded message block. An empty payload is an ack (or a
// nak, when Seq is not the one the sender expects).
type Frame struct {
	Seq     uint8
	Payload []byte
}

// IsAck reports whether the frame carries no commands
func (f Frame) IsAck() bool {
	return len(f.Payload) == 0
}

// AppendFrame appends the encoded frame for payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := FrameMin + len(payload)
	if n > FrameMax {
		return dst, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLong, n, FrameMax)
	}
	start := len(dst)
	dst = append(dst, uint8(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), SyncByte), nil
}

// Scanner splits a byte stream into frames. Garbage and corrupt frames are
// skipped by hunting for the next sync byte.
type Scanner struct {
	buf     []byte
	synced  bool
	dropped int
}

// NewScanner creates a scanner that starts synchronized
func NewScanner() *Scanner {
	return &Scanner{synced: true}
}

// Feed appends received bytes
func (s *Scanner) Feed(data []byte) {
	s.buf = append(s.buf, data...)
}

// Dropped returns the number of corrupt frames skipped so far
func (s *Scanner) Dropped() int {
	return s.dropped
}

// Next returns the next complete frame, or false when more input is needed
func (s *Scanner) Next() (Frame, bool) {
	for len(s.buf) > 0 {
		if !s.synced {
			i := indexByte(s.buf, SyncByte)
			if i < 0 {
				s.buf = s.buf[:0]
				return Frame{}, false
			}
			s.buf = s.buf[i+1:]
			s.synced = true
			continue
		}

		if s.buf[0] == SyncByte {
			s.buf = s.buf[1:]
			continue
		}
		if len(s.buf) < FrameMin {
			return Frame{}, false
		}

		n := int(s.buf[posLen])
		if n < FrameMin || n > FrameMax || s.buf[posSeq]&^SeqMask != DestBit {
			s.desync()
			continue
		}
		if len(s.buf) < n {
			return Frame{}, false
		}
		if s.buf[n-1] != SyncByte {
			s.desync()
			continue
		}
		crc := uint16(s.buf[n-3])<<8 | uint16(s.buf[n-2])
		if crc != CRC16(s.buf[:n-TrailerSize]) {
			s.desync()
			continue
		}

		f := Frame{
			Seq:     s.buf[posSeq],
			Payload: append([]byte(nil), s.buf[HeaderSize:n-TrailerSize]...),
		}
		s.buf = s.buf[n:]
		return f, true
	}
	return Frame{}, false
}

func (s *Scanner) desync() {
	s.synced = false
	s.dropped++
	s.buf = s.buf[1:]
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
