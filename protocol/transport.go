package protocol

import "sync/atomic"

// CommandHandler runs one decoded command. data holds the remaining
// payload and must be advanced past the command's arguments.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware end of the link. It acknowledges every block,
// dispatches in-sequence blocks to the handler and frames responses.
//
// The sequence counter is shared: a block received with sequence s is
// acknowledged, and responses are sent, with the next sequence s+1.
type Transport struct {
	deframer
	nextSeq atomic.Uint32

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func()
	flushCallback func()
}

// NewTransport creates a transport writing to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		deframer: deframer{sum: CRC16},
		output:   output,
		handler:  handler,
	}
	t.nextSeq.Store(MessageDest)
	return t
}

// Receive consumes every complete block in input
func (t *Transport) Receive(input InputBuffer) {
	n := t.feed(input.Data(), t.receiveFrame, t.encodeAckNak)
	if n > 0 {
		input.Pop(n)
	}
}

func (t *Transport) receiveFrame(f Frame) {
	expected := uint8(t.nextSeq.Load())

	// A block with the initial sequence while we expect another one
	// means the host restarted
	if f.Sequence == MessageDest && expected != MessageDest {
		t.nextSeq.Store(MessageDest)
		expected = MessageDest
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}

	if f.Sequence == expected {
		t.nextSeq.Store(uint32(nextSequence(f.Sequence)))
		_ = t.dispatch(f.Payload)
	}

	// Acknowledge (or NAK with the expected sequence) every block
	t.encodeAckNak()
}

// dispatch runs every command in a block payload
func (t *Transport) dispatch(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.desynced = true
		}
	}()

	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.desynced = true
			return err
		}
		if t.handler == nil {
			return nil
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			return err
		}
	}
	return nil
}

// encodeAckNak sends an empty block carrying the next expected sequence
func (t *Transport) encodeAckNak() {
	encodeFrame(t.output, uint8(t.nextSeq.Load()), CRC16, nil)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame frames the payload written by body
func (t *Transport) EncodeFrame(body func(output OutputBuffer)) {
	encodeFrame(t.output, uint8(t.nextSeq.Load()), CRC16, body)
}

// SendCommand frames one response with its ID and arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.desynced = false
	t.nextSeq.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback installs the hook run when the host restarts the sequence
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback installs the hook that pushes acknowledgements out immediately
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
