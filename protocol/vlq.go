package protocol

import "errors"

// ErrShortBuffer is returned when a value runs past the end of the data
var ErrShortBuffer = errors.New("protocol: short buffer")

// AppendInt appends v in the variable-length encoding: 7 bits per byte,
// most significant first, high bit set on all but the last byte.
func AppendInt(dst []byte, v int32) []byte {
	if !(-(1<<26) <= v && v < (3<<26)) {
		dst = append(dst, byte((v>>28)&0x7F)|0x80)
	}
	if !(-(1<<19) <= v && v < (3<<19)) {
		dst = append(dst, byte((v>>21)&0x7F)|0x80)
	}
	if !(-(1<<12) <= v && v < (3<<12)) {
		dst = append(dst, byte((v>>14)&0x7F)|0x80)
	}
	if !(-(1<<5) <= v && v < (3<<5)) {
		dst = append(dst, byte((v>>7)&0x7F)|0x80)
	}
	return append(dst, byte(v&0x7F))
}

// AppendUint appends an unsigned value
func AppendUint(dst []byte, v uint32) []byte {
	return AppendInt(dst, int32(v))
}

// AppendBool appends a flag as 0 or 1
func AppendBool(dst []byte, v bool) []byte {
	if v {
		return AppendUint(dst, 1)
	}
	return AppendUint(dst, 0)
}

// AppendBytes appends a length-prefixed byte string
func AppendBytes(dst []byte, b []byte) []byte {
	dst = AppendUint(dst, uint32(len(b)))
	return append(dst, b...)
}

// AppendString appends a length-prefixed string
func AppendString(dst []byte, s string) []byte {
	dst = AppendUint(dst, uint32(len(s)))
	return append(dst, s...)
}

// ReadInt decodes a value and advances data past it
func ReadInt(data *[]byte) (int32, error) {
	b := *data
	if len(b) == 0 {
		return 0, ErrShortBuffer
	}
	c := uint32(b[0])
	b = b[1:]
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if len(b) == 0 {
			return 0, ErrShortBuffer
		}
		c = uint32(b[0])
		b = b[1:]
		v = v<<7 | c&0x7F
	}
	*data = b
	return int32(v), nil
}

// ReadUint decodes an unsigned value
func ReadUint(data *[]byte) (uint32, error) {
	v, err := ReadInt(data)
	return uint32(v), err
}

// ReadBytes decodes a length-prefixed byte string. The result aliases data.
func ReadBytes(data *[]byte) ([]byte, error) {
	n, err := ReadUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrShortBuffer
	}
	b := (*data)[:n]
	*data = (*data)[n:]
	return b, nil
}

// ReadString decodes a length-prefixed string
func ReadString(data *[]byte) (string, error) {
	b, err := ReadBytes(data)
	return string(b), err
}
