package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// vlqBounds lists, from the most significant group down, the range a value
// must fall in to need no continuation byte for that group
var vlqBounds = [...]struct {
	shift    uint
	min, max int32
}{
	{28, -(1 << 26), 3 << 26},
	{21, -(1 << 19), 3 << 19},
	{14, -(1 << 12), 3 << 12},
	{7, -(1 << 5), 3 << 5},
}

// EncodeVLQInt writes v as a variable-length quantity, 7 bits per byte,
// most significant group first. Values in [-32, 96) take one byte.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [5]byte
	n := 0
	for _, b := range vlqBounds {
		if v < b.min || v >= b.max {
			buf[n] = byte((v>>b.shift)&0x7F) | 0x80
			n++
		}
	}
	buf[n] = byte(v & 0x7F)
	output.Output(buf[:n+1])
}

// EncodeVLQUint writes an unsigned value using the signed encoding
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one VLQ from the front of data and advances it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		// Negative: sign-extend the first group
		v |= ^uint32(0x1F)
	}

	i := 1
	for c&0x80 != 0 {
		if i >= len(buf) {
			return 0, ErrBufferTooSmall
		}
		if i >= 5 {
			return 0, ErrInvalidVLQ
		}
		c = uint32(buf[i])
		v = v<<7 | c&0x7F
		i++
	}

	*data = buf[i:]
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned VLQ from the front of data
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQBytes writes a length-prefixed byte string
func EncodeVLQBytes(output OutputBuffer, data []byte) {
	EncodeVLQUint(output, uint32(len(data)))
	output.Output(data)
}

// DecodeVLQBytes reads a length-prefixed byte string. The result aliases data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrBufferTooSmall
	}
	out := (*data)[:n]
	*data = (*data)[n:]
	return out, nil
}

func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQBytes(output, []byte(s))
}

func DecodeVLQString(data *[]byte) (string, error) {
	b, err := DecodeVLQBytes(data)
	return string(b), err
}

// EncodeVLQ returns the encoding of v
func EncodeVLQ(v int32) []byte {
	out := NewScratchOutput()
	EncodeVLQInt(out, v)
	return append([]byte(nil), out.Result()...)
}
