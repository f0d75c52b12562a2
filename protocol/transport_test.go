package protocol

import (
	"bytes"
	"net"
	"testing"
	"time"
)

type received struct {
	id   uint16
	args []uint32
}

// newRecordingTransport returns a firmware transport whose handler decodes
// two unsigned arguments per command
func newRecordingTransport() (*Transport, *ScratchOutput, *[]received) {
	out := NewScratchOutput()
	var got []received
	tr := NewTransport(out, func(id uint16, data *[]byte) error {
		a, _ := DecodeVLQUint(data)
		b, _ := DecodeVLQUint(data)
		got = append(got, received{id, []uint32{a, b}})
		return nil
	})
	return tr, out, &got
}

func commandBlock(t *testing.T, seq uint8, id uint16, a, b uint32) []byte {
	t.Helper()
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(id))
	EncodeVLQUint(payload, a)
	EncodeVLQUint(payload, b)
	block, err := AppendFrame(nil, seq, payload.Result())
	if err != nil {
		t.Fatalf("AppendFrame failed: %v", err)
	}
	return block
}

func ackBlock(seq uint8) []byte {
	block, _ := AppendFrame(nil, seq, nil)
	return block
}

func TestTransportDispatch(t *testing.T) {
	tr, out, got := newRecordingTransport()

	tr.Receive(NewSliceInputBuffer(commandBlock(t, 0x10, 9, 300, 2)))

	if len(*got) != 1 || (*got)[0].id != 9 || (*got)[0].args[0] != 300 || (*got)[0].args[1] != 2 {
		t.Fatalf("Unexpected dispatch %+v", *got)
	}
	if !bytes.Equal(out.Result(), ackBlock(0x11)) {
		t.Errorf("Expected ACK % X, got % X", ackBlock(0x11), out.Result())
	}
}

func TestTransportSequence(t *testing.T) {
	tr, out, got := newRecordingTransport()

	stream := append(commandBlock(t, 0x10, 1, 0, 0), commandBlock(t, 0x11, 2, 0, 0)...)
	// Repeated block is acknowledged but not run again
	stream = append(stream, commandBlock(t, 0x11, 2, 0, 0)...)
	tr.Receive(NewSliceInputBuffer(stream))

	if len(*got) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(*got))
	}
	want := append(append(ackBlock(0x11), ackBlock(0x12)...), ackBlock(0x12)...)
	if !bytes.Equal(out.Result(), want) {
		t.Errorf("Expected ACKs % X, got % X", want, out.Result())
	}
}

func TestTransportPartialBlock(t *testing.T) {
	tr, _, got := newRecordingTransport()
	block := commandBlock(t, 0x10, 4, 1, 1)

	fifo := NewFifoBuffer(128)
	fifo.Write(block[:4])
	tr.Receive(fifo)
	if len(*got) != 0 || fifo.Available() != 4 {
		t.Fatalf("Partial block consumed")
	}

	fifo.Write(block[4:])
	tr.Receive(fifo)
	if len(*got) != 1 || !fifo.IsEmpty() {
		t.Errorf("Completed block not dispatched")
	}
}

func TestTransportResync(t *testing.T) {
	tr, out, got := newRecordingTransport()

	bad := commandBlock(t, 0x10, 5, 1, 3)
	bad[3] ^= 0xFF // corrupt payload, CRC now wrong

	stream := append([]byte{}, bad...)
	stream = append(stream, commandBlock(t, 0x10, 6, 3, 4)...)
	tr.Receive(NewSliceInputBuffer(stream))

	if len(*got) != 1 || (*got)[0].id != 6 {
		t.Fatalf("Expected only the good block, got %+v", *got)
	}
	// NAK on resync, then ACK for the good block
	want := append(ackBlock(0x10), ackBlock(0x11)...)
	if !bytes.Equal(out.Result(), want) {
		t.Errorf("Expected % X, got % X", want, out.Result())
	}
}

func TestTransportHostRestart(t *testing.T) {
	tr, _, got := newRecordingTransport()
	resets := 0
	tr.SetResetCallback(func() { resets++ })

	stream := append(commandBlock(t, 0x10, 1, 0, 0), commandBlock(t, 0x11, 2, 0, 0)...)
	stream = append(stream, commandBlock(t, 0x10, 3, 0, 0)...)
	tr.Receive(NewSliceInputBuffer(stream))

	if resets != 1 {
		t.Errorf("Expected 1 reset, got %d", resets)
	}
	if len(*got) != 3 {
		t.Errorf("Expected 3 commands, got %d", len(*got))
	}
}

func TestTransportResponse(t *testing.T) {
	tr, out, _ := newRecordingTransport()
	tr.SendCommand(12, func(o OutputBuffer) { EncodeVLQUint(o, 7) })

	data := out.Result()
	if int(data[MessagePositionLen]) != len(data) {
		t.Fatalf("Length byte %d, block %d bytes", data[0], len(data))
	}
	f, n, res := scanFrame(data, TableCRC16)
	if res != scanOK || n != len(data) {
		t.Fatalf("Response block did not scan: %v", res)
	}
	if f.Sequence != MessageDest || !bytes.Equal(f.Payload, []byte{12, 7}) {
		t.Errorf("Unexpected frame %+v", f)
	}
}

func TestAppendFrameTooLong(t *testing.T) {
	if _, err := AppendFrame(nil, MessageDest, make([]byte, MessagePayloadMax+1)); err != ErrMessageTooLong {
		t.Errorf("Expected ErrMessageTooLong, got %v", err)
	}
	if _, err := AppendFrame(nil, MessageDest, make([]byte, MessagePayloadMax)); err != nil {
		t.Errorf("Maximum payload rejected: %v", err)
	}
}

// runFirmware serves a firmware transport on conn until it is closed.
// Command 1 answers with response 2 carrying the argument doubled.
func runFirmware(conn net.Conn) {
	out := NewScratchOutput()
	var tr *Transport
	tr = NewTransport(out, func(id uint16, data *[]byte) error {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		if id == 1 {
			tr.SendCommand(2, func(o OutputBuffer) { EncodeVLQUint(o, v*2) })
		}
		return nil
	})

	fifo := NewFifoBuffer(256)
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		fifo.Write(buf[:n])
		tr.Receive(fifo)
		if out.CurPosition() > 0 {
			if _, err := conn.Write(out.Result()); err != nil {
				return
			}
			out.Reset()
		}
	}
}

func TestHostTransportRoundTrip(t *testing.T) {
	hostEnd, mcuEnd := net.Pipe()
	go runFirmware(mcuEnd)

	host := NewHostTransport(hostEnd)
	defer host.Close()

	for i := uint32(1); i <= 20; i++ {
		err := host.SendCommand(1, func(o OutputBuffer) { EncodeVLQUint(o, i) })
		if err != nil {
			t.Fatalf("Command %d: %v", i, err)
		}

		msg, err := host.ReceiveResponse(time.Second)
		if err != nil {
			t.Fatalf("Response %d: %v", i, err)
		}
		data := msg.Payload
		id, _ := DecodeVLQUint(&data)
		v, _ := DecodeVLQUint(&data)
		if id != 2 || v != i*2 {
			t.Errorf("Response %d: got id %d value %d", i, id, v)
		}
	}

	// Sequence wraps through 0x10-0x1F
	if seq := host.Sequence(); seq != 0x10|(20&MessageSeqMask) {
		t.Errorf("Expected sequence 0x%02X, got 0x%02X", 0x10|(20&MessageSeqMask), seq)
	}
}

func TestHostTransportAckTimeout(t *testing.T) {
	hostEnd, mcuEnd := net.Pipe()
	defer mcuEnd.Close()
	go func() {
		// Swallow everything, never acknowledge
		buf := make([]byte, 64)
		for {
			if _, err := mcuEnd.Read(buf); err != nil {
				return
			}
		}
	}()

	host := NewHostTransport(hostEnd)
	defer host.Close()

	err := host.SendCommandWithTimeout(1, nil, 50*time.Millisecond)
	if err == nil {
		t.Fatal("Expected acknowledge timeout")
	}
	if _, err := host.ReceiveResponse(10 * time.Millisecond); err == nil {
		t.Error("Expected response timeout")
	}
}

func TestSplitFrames(t *testing.T) {
	stream := append(ackBlock(0x11), 0x01, 0x02, MessageValueSync)
	stream = append(stream, commandBlock(t, 0x12, 4, 1, 3)...)
	stream = append(stream, ackBlock(0x13)[:3]...)

	frames, n := SplitFrames(stream)
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	if frames[0].Sequence != 0x11 || len(frames[0].Payload) != 0 {
		t.Errorf("Unexpected first frame %+v", frames[0])
	}
	if frames[1].Sequence != 0x12 || len(frames[1].Payload) != 3 {
		t.Errorf("Unexpected second frame %+v", frames[1])
	}
	if n != len(stream)-3 {
		t.Errorf("Expected the partial block to stay unconsumed, consumed %d of %d", n, len(stream))
	}
}
