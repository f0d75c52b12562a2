package protocol

import "errors"

// ErrMessageTooLong is returned when a payload does not fit in one block
var ErrMessageTooLong = errors.New("message too long")

// Frame is one decoded message block. Payload aliases the input buffer.
type Frame struct {
	Sequence uint8
	Payload  []byte
}

type scanResult uint8

const (
	scanIncomplete scanResult = iota
	scanOK
	scanBad
)

// scanFrame checks for a complete block at the start of data and returns it
// with its length
func scanFrame(data []byte, sum func([]byte) uint16) (Frame, int, scanResult) {
	if len(data) < MessageLengthMin {
		return Frame{}, 0, scanIncomplete
	}

	n := int(data[MessagePositionLen])
	if n < MessageLengthMin || n > MessageLengthMax {
		return Frame{}, 0, scanBad
	}
	seq := data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Frame{}, 0, scanBad
	}
	if len(data) < n {
		return Frame{}, 0, scanIncomplete
	}
	if data[n-1] != MessageValueSync {
		return Frame{}, 0, scanBad
	}

	crc := uint16(data[n-3])<<8 | uint16(data[n-2])
	if sum(data[:n-MessageTrailerSize]) != crc {
		return Frame{}, 0, scanBad
	}
	return Frame{Sequence: seq, Payload: data[MessageHeaderSize : n-MessageTrailerSize]}, n, scanOK
}

// deframer splits a byte stream into blocks, resynchronising on the sync
// byte after any corrupt block
type deframer struct {
	desynced bool
	sum      func([]byte) uint16
}

// feed delivers each complete block in data to onFrame and returns the
// number of bytes consumed. onResync runs when sync is regained.
func (d *deframer) feed(data []byte, onFrame func(Frame), onResync func()) int {
	total := len(data)

	for len(data) > 0 {
		if d.desynced {
			i := 0
			for i < len(data) && data[i] != MessageValueSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.desynced = false
			if onResync != nil {
				onResync()
			}
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		frame, n, res := scanFrame(data, d.sum)
		if res == scanIncomplete {
			break
		}
		if res == scanBad {
			d.desynced = true
			continue
		}
		data = data[n:]
		onFrame(frame)
	}
	return total - len(data)
}

// encodeFrame writes one block to out. body writes the payload.
func encodeFrame(out OutputBuffer, seq uint8, sum func([]byte) uint16, body func(OutputBuffer)) {
	start := out.CurPosition()
	out.Output([]byte{0, seq})
	if body != nil {
		body(out)
	}

	out.Update(start, uint8(len(out.DataSince(start))+MessageTrailerSize))
	crc := sum(out.DataSince(start))
	out.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// AppendFrame appends a block carrying payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := len(payload) + MessageLengthMin
	if n > MessageLengthMax {
		return dst, ErrMessageTooLong
	}
	start := len(dst)
	dst = append(dst, uint8(n), seq)
	dst = append(dst, payload...)
	crc := TableCRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// SplitFrames decodes every complete block in data, skipping corrupt ones,
// and returns them with the number of bytes consumed
func SplitFrames(data []byte) ([]Frame, int) {
	var frames []Frame
	d := deframer{sum: TableCRC16}
	n := d.feed(data, func(f Frame) {
		frames = append(frames, f)
	}, nil)
	return frames, n
}
