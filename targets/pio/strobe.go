//go:build rp2040 || rp2350

// Package pio generates the interface write strobe (HWR) with a PIO state
// machine so the pulse width does not depend on CPU timing.
package pio

import (
	"errors"
	"machine"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// ErrStrobeStuck is returned when the strobe pin does not complete a pulse
var ErrStrobeStuck = errors.New("pio: write strobe did not complete")

// The state machine runs at 1 MHz so one loop iteration is 1 µs
const (
	strobeClkDiv = 125 // 125 MHz system clock
	strobeOrigin = 0
	spinLimit    = 100000
)

// buildStrobeProgram pulls a width in µs, drives the pin low for that long
// and releases it high
func buildStrobeProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (width - 1)
		asm.Set(rp2pio.SetDestPins, 0).Encode(), // 2: set pins, 0
		// low_loop:
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(), // 3: jmp x--, 3
		asm.Set(rp2pio.SetDestPins, 1).Encode(),  // 4: set pins, 1
		// .wrap
	}
}

// WriteStrobe implements core.Strobe on a PIO state machine
type WriteStrobe struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	width  uint32
	pioNum uint8
	smNum  uint8
}

// NewWriteStrobe creates a strobe on the given PIO block and state machine
func NewWriteStrobe(pioNum, smNum uint8) *WriteStrobe {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &WriteStrobe{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}
}

// Init loads the program and hands pin to the state machine. width is
// rounded up to whole microseconds.
func (s *WriteStrobe) Init(pin uint8, width time.Duration) error {
	s.pin = machine.Pin(pin)
	s.width = uint32((width + time.Microsecond - 1) / time.Microsecond)
	if s.width == 0 {
		s.width = 1
	}

	s.sm.TryClaim()

	program := buildStrobeProgram()
	offset, err := s.pio.AddProgram(program, strobeOrigin)
	if err != nil {
		return err
	}

	s.pin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(s.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(strobeClkDiv, 0)

	s.sm.Init(offset, cfg)

	// Pin direction after Init; idle high (inactive)
	s.sm.SetPindirsConsecutive(s.pin, 1, true)
	s.sm.SetPinsConsecutive(s.pin, 1, true)

	s.sm.SetEnabled(true)
	return nil
}

// Pulse queues one strobe and waits until the pin has gone low and back high
func (s *WriteStrobe) Pulse() error {
	for s.sm.IsTxFIFOFull() {
	}
	s.sm.TxPut(s.width - 1)

	n := 0
	for s.pin.Get() {
		if n++; n > spinLimit {
			return ErrStrobeStuck
		}
	}
	for !s.pin.Get() {
		if n++; n > spinLimit {
			return ErrStrobeStuck
		}
	}
	return nil
}

// Stop halts the state machine and frees it
func (s *WriteStrobe) Stop() {
	s.sm.SetEnabled(false)
	s.sm.ClearFIFOs()
	s.sm.Restart()
	Release(s.pioNum, s.smNum)
}
