package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{[]byte{}, 0xFFFF},
		{[]byte("123456789"), 0x6F91},
	}

	for _, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("CRC16(%q) = 0x%04X, expected 0x%04X", tc.data, got, tc.expected)
		}
		if got := TableCRC16(tc.data); got != tc.expected {
			t.Errorf("TableCRC16(%q) = 0x%04X, expected 0x%04X", tc.data, got, tc.expected)
		}
	}
}

func TestTableCRC16MatchesBitwise(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i*37 + 11)
	}

	for n := 0; n <= len(data); n += 7 {
		if a, b := CRC16(data[:n]), TableCRC16(data[:n]); a != b {
			t.Fatalf("Length %d: bitwise 0x%04X, table 0x%04X", n, a, b)
		}
	}
}

func TestCRC16DetectsChange(t *testing.T) {
	if CRC16([]byte{0x01, 0x02, 0x03}) == CRC16([]byte{0x01, 0x02, 0x04}) {
		t.Error("Single-bit change not detected")
	}
}
