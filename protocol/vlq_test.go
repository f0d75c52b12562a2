package protocol

import (
	"bytes"
	"testing"
)

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		value   int32
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{95, []byte{0x5F}},
		{96, []byte{0x80, 0x60}},
		{-1, []byte{0x7F}},
		{-32, []byte{0x60}},
		{-33, []byte{0xFF, 0x5F}},
		{300, []byte{0x82, 0x2C}},
	}

	for _, tc := range testCases {
		got := EncodeVLQ(tc.value)
		if !bytes.Equal(got, tc.encoded) {
			t.Errorf("EncodeVLQ(%d) = % X, expected % X", tc.value, got, tc.encoded)
		}

		data := tc.encoded
		v, err := DecodeVLQInt(&data)
		if err != nil || v != tc.value {
			t.Errorf("DecodeVLQInt(% X) = %d, %v; expected %d", tc.encoded, v, err, tc.value)
		}
		if len(data) != 0 {
			t.Errorf("DecodeVLQInt(% X) left %d bytes", tc.encoded, len(data))
		}
	}
}

func TestVLQRange(t *testing.T) {
	values := []int32{-1 << 31, -1000000, -65535, -4096, -128, 127, 4095, 65535, 1000000, 1<<31 - 1}
	for _, want := range values {
		data := EncodeVLQ(want)
		got, err := DecodeVLQInt(&data)
		if err != nil || got != want {
			t.Errorf("Value %d decoded as %d (%v)", want, got, err)
		}
	}

	for _, want := range []uint32{0, 255, 1 << 20, 0xFFFFFFFF} {
		out := NewScratchOutput()
		EncodeVLQUint(out, want)
		data := out.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil || got != want {
			t.Errorf("Unsigned %d decoded as %d (%v)", want, got, err)
		}
	}
}

func TestVLQSequence(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQUint(out, 7)
	EncodeVLQBytes(out, []byte{0xDE, 0xAD})
	EncodeVLQString(out, "priam")
	EncodeVLQInt(out, -5)

	data := out.Result()
	if id, _ := DecodeVLQUint(&data); id != 7 {
		t.Errorf("Expected 7, got %d", id)
	}
	if b, _ := DecodeVLQBytes(&data); !bytes.Equal(b, []byte{0xDE, 0xAD}) {
		t.Errorf("Expected DE AD, got % X", b)
	}
	if s, _ := DecodeVLQString(&data); s != "priam" {
		t.Errorf("Expected priam, got %q", s)
	}
	if v, _ := DecodeVLQInt(&data); v != -5 {
		t.Errorf("Expected -5, got %d", v)
	}
	if len(data) != 0 {
		t.Errorf("%d bytes left over", len(data))
	}
}

func TestVLQErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, ErrBufferTooSmall},
		{"truncated", []byte{0x80}, ErrBufferTooSmall},
		{"too long", []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}, ErrInvalidVLQ},
	}

	for _, tc := range testCases {
		data := tc.data
		if _, err := DecodeVLQInt(&data); err != tc.err {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
		if len(data) != len(tc.data) {
			t.Errorf("%s: failed decode consumed input", tc.name)
		}
	}

	data := []byte{0x05, 0x01}
	if _, err := DecodeVLQBytes(&data); err != ErrBufferTooSmall {
		t.Errorf("Short byte string: expected ErrBufferTooSmall, got %v", err)
	}
}
