package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Host transport errors
var (
	ErrAckTimeout       = errors.New("acknowledge timeout")
	ErrResponseTimeout  = errors.New("response timeout")
	ErrTransportClosed  = errors.New("transport closed")
	ErrSequenceMismatch = errors.New("acknowledge sequence mismatch")
)

// DefaultAckTimeout bounds the wait for a block acknowledge
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler observes responses as they arrive
type ResponseHandler func(cmdID uint16, data *[]byte) error

// Message is a received block
type Message struct {
	Sequence uint8
	Payload  []byte // Owned copy, header and trailer removed
}

// HostTransport is the host end of the link. A background goroutine reads
// the port, acknowledges are matched to sent blocks and responses are
// queued for ReceiveResponse.
type HostTransport struct {
	port io.ReadWriteCloser

	mu      sync.Mutex // guards seq and writes
	seq     uint8
	scratch *ScratchOutput

	readMu  sync.Mutex
	input   *FifoBuffer
	framer  deframer
	handler ResponseHandler

	acks      chan Message
	responses chan Message
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts a transport on port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       MessageDest,
		scratch:   NewScratchOutput(),
		input:     NewFifoBuffer(1024),
		framer:    deframer{sum: TableCRC16},
		acks:      make(chan Message, 1),
		responses: make(chan Message, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends one command and waits for its acknowledge
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, DefaultAckTimeout)
}

// SendCommandWithTimeout is SendCommand with an explicit acknowledge timeout
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.scratch.Reset()
	EncodeVLQUint(t.scratch, uint32(cmdID))
	if args != nil {
		args(t.scratch)
	}

	block, err := AppendFrame(nil, t.seq, t.scratch.Result())
	if err != nil {
		return fmt.Errorf("command %d: %w", cmdID, err)
	}
	if _, err := t.port.Write(block); err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	}

	want := nextSequence(t.seq)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-t.acks:
		if ack.Sequence != want {
			return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrSequenceMismatch, want, ack.Sequence)
		}
		t.seq = want
		return nil
	case <-timer.C:
		return fmt.Errorf("command %d: %w after %v", cmdID, ErrAckTimeout, timeout)
	case <-t.stop:
		return ErrTransportClosed
	}
}

// ReceiveResponse returns the next response block
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-t.responses:
		return msg, nil
	case <-timer.C:
		return Message{}, fmt.Errorf("%w after %v", ErrResponseTimeout, timeout)
	case <-t.stop:
		return Message{}, ErrTransportClosed
	}
}

// SetResponseHandler installs an observer called for every response
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.readMu.Lock()
	t.handler = handler
	t.readMu.Unlock()
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	buf := make([]byte, 256)
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			t.process(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// process appends received bytes and dispatches every complete block
func (t *HostTransport) process(data []byte) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	for len(data) > 0 {
		n := t.input.Write(data)
		data = data[n:]

		used := t.framer.feed(t.input.Data(), t.dispatch, nil)
		t.input.Pop(used)

		if n == 0 && used == 0 {
			// Ring full of garbage: drop it and resync
			t.input.Reset()
			t.framer.desynced = true
		}
	}
}

func (t *HostTransport) dispatch(f Frame) {
	msg := Message{Sequence: f.Sequence, Payload: append([]byte(nil), f.Payload...)}

	if len(msg.Payload) == 0 {
		select {
		case t.acks <- msg:
		default:
		}
		return
	}

	if t.handler != nil {
		payload := msg.Payload
		if id, err := DecodeVLQUint(&payload); err == nil {
			_ = t.handler(uint16(id), &payload)
		}
	}

	select {
	case t.responses <- msg:
	default:
		// Queue full: drop the oldest
		select {
		case <-t.responses:
		default:
		}
		t.responses <- msg
	}
}

// Reset restarts the sequence and drops anything queued
func (t *HostTransport) Reset() {
	t.mu.Lock()
	t.seq = MessageDest
	t.mu.Unlock()

	t.readMu.Lock()
	t.input.Reset()
	t.framer.desynced = false
	t.readMu.Unlock()

	for len(t.acks) > 0 {
		<-t.acks
	}
	for len(t.responses) > 0 {
		<-t.responses
	}
}

// Sequence returns the sequence of the next block to send
func (t *HostTransport) Sequence() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.done
	})
	return err
}
