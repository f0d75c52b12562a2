// Package simulator emulates a Priam Smart interface at the GPIO pin level.
//
// Controller implements core.GPIODriver: the host side drives address, data
// and strobe lines exactly as it would on hardware, and the controller
// decodes register cycles, answers reads on the data bus and runs commands
// through a small status-register state machine. It also checks the bus
// discipline (contention, strobe timing) and records violations.
package simulator

import (
	"errors"
	"time"

	"priamsmart/core"
)

// ErrInjected is returned by pins configured to fail with FailPin
var ErrInjected = errors.New("simulated pin failure")

// Response describes how the controller completes one command
type Response struct {
	Results   [core.MaxRegisters]byte // RESULT0-5
	Data      []byte                  // Offered one byte at a time through the data-transfer register
	Reject    bool                    // Set command-reject instead of running the command
	BusyPolls int                     // Status reads reporting busy before the data/completion phase
	Hang      bool                    // Never raise the completion request
}

// Handler runs a command with the parameter registers written before it
type Handler func(op core.Opcode, params [core.MaxRegisters]byte) Response

type phase uint8

const (
	phaseIdle phase = iota
	phaseBusy
	phaseData
	phaseComplete
	phaseRejected
	phaseHung
)

// Write records one completed register write cycle
type Write struct {
	Register core.WriteRegister
	Value    uint8
}

// Controller is the simulated interface
type Controller struct {
	pins  core.Pins
	clock *Clock

	output map[core.GPIOPin]bool // pin configured as host output
	latch  map[core.GPIOPin]bool // host output latch
	failAt map[core.GPIOPin]bool

	// Bus timing minimums checked on every strobe
	SetupMin time.Duration
	PulseMin time.Duration

	// BootPolls is the number of DBUSENA reads that return high after power-up or reset
	BootPolls int

	handlers map[core.Opcode]Handler

	inReset   bool
	wedged    bool
	bootLeft  int
	booted    bool
	phase     phase
	busyLeft  int
	params    [core.MaxRegisters]byte
	results   [core.MaxRegisters]byte
	data      []byte
	readCycle bool
	readValue uint8
	readAddr  core.ReadRegister
	writeLow  bool
	addrSetAt time.Time
	strobeAt  time.Time

	// Observations
	Writes        []Write
	Commands      []core.Opcode
	StatusReads   int
	ResultReads   int
	DataReads     int
	Acks          int
	ResetAsserts  int
	ResetReleases int
	Violations    []string
}

// NewController creates a powered controller that boots after BootPolls
// DBUSENA reads and then raises its initial completion request.
func NewController(pins core.Pins, clock *Clock) *Controller {
	c := &Controller{
		pins:      pins,
		clock:     clock,
		output:    make(map[core.GPIOPin]bool),
		latch:     make(map[core.GPIOPin]bool),
		failAt:    make(map[core.GPIOPin]bool),
		SetupMin:  core.DefaultSetupDelay,
		PulseMin:  core.DefaultPulseDelay,
		BootPolls: 2,
		handlers:  make(map[core.Opcode]Handler),
	}
	c.powerUp()
	return c
}

// Handle installs the handler for op. Opcodes without a handler are rejected.
func (c *Controller) Handle(op core.Opcode, h Handler) {
	c.handlers[op] = h
}

// Wedge keeps DBUSENA high until the next reset pulse
func (c *Controller) Wedge() {
	c.wedged = true
	c.booted = false
}

// FailPin makes every access to pin return ErrInjected until cleared
func (c *Controller) FailPin(pin core.GPIOPin, fail bool) {
	c.failAt[pin] = fail
}

// InReset reports whether the reset line is currently asserted
func (c *Controller) InReset() bool {
	return c.inReset
}

// Params returns the parameter registers as last written
func (c *Controller) Params() [core.MaxRegisters]byte {
	return c.params
}

// BusesReleased reports whether every data and address line is high impedance
func (c *Controller) BusesReleased() bool {
	for _, p := range c.pins.Data {
		if c.output[p] {
			return false
		}
	}
	for _, p := range c.pins.Address {
		if c.output[p] {
			return false
		}
	}
	return true
}

func (c *Controller) powerUp() {
	c.bootLeft = -1
	c.booted = false
	c.phase = phaseIdle
	c.data = nil
	c.results = [core.MaxRegisters]byte{}
}

func (c *Controller) violation(msg string) {
	c.Violations = append(c.Violations, msg)
}

// ConfigureOutput implements core.GPIODriver
func (c *Controller) ConfigureOutput(pin core.GPIOPin) error {
	if c.failAt[pin] {
		return ErrInjected
	}
	if c.readCycle && c.isData(pin) {
		c.violation("data bus driven by host during read cycle")
	}
	c.output[pin] = true
	if c.isAddress(pin) {
		c.addrSetAt = c.clock.Now()
	}
	c.updateReset()
	return nil
}

// ConfigureInput implements core.GPIODriver
func (c *Controller) ConfigureInput(pin core.GPIOPin) error {
	if c.failAt[pin] {
		return ErrInjected
	}
	c.output[pin] = false
	c.updateReset()
	return nil
}

// SetPin implements core.GPIODriver
func (c *Controller) SetPin(pin core.GPIOPin, value bool) error {
	if c.failAt[pin] {
		return ErrInjected
	}
	prev, known := c.latch[pin]
	c.latch[pin] = value

	switch {
	case c.isAddress(pin):
		if c.output[pin] {
			c.addrSetAt = c.clock.Now()
		}
	case pin == c.pins.Reset:
		c.updateReset()
	case pin == c.pins.ReadStrobe && c.output[pin]:
		if known && prev && !value {
			c.beginRead()
		} else if !prev && value && c.readCycle {
			c.endRead()
		}
	case pin == c.pins.WriteStrobe && c.output[pin]:
		if known && prev && !value {
			c.checkSetup("HWR")
			c.writeLow = true
			c.strobeAt = c.clock.Now()
		} else if !prev && value && c.writeLow {
			c.writeLow = false
			c.checkPulse("HWR")
			c.endWrite()
		}
	}
	return nil
}

// GetPin implements core.GPIODriver
func (c *Controller) GetPin(pin core.GPIOPin) (bool, error) {
	if c.failAt[pin] {
		return false, ErrInjected
	}

	if bit := c.dataBit(pin); bit >= 0 {
		if c.output[pin] {
			return c.latch[pin], nil
		}
		if c.readCycle {
			return c.readValue&(1<<bit) != 0, nil
		}
		return false, nil
	}

	switch pin {
	case c.pins.BusEnable:
		return !c.sampleBusEnable(), nil
	case c.pins.TransferReq:
		return c.status()&core.StatusTransferRequest != 0, nil
	}
	if c.output[pin] {
		return c.latch[pin], nil
	}
	return false, nil
}

// sampleBusEnable counts down the boot delay and reports whether DBUSENA is asserted
func (c *Controller) sampleBusEnable() bool {
	if c.inReset || c.wedged {
		return false
	}
	if !c.booted {
		if c.bootLeft < 0 {
			c.bootLeft = c.BootPolls
		}
		if c.bootLeft > 0 {
			c.bootLeft--
			return false
		}
		c.booted = true
		// Power-up/reset completion request
		c.phase = phaseComplete
	}
	return true
}

func (c *Controller) updateReset() {
	asserted := c.output[c.pins.Reset] && !c.latch[c.pins.Reset]
	if asserted == c.inReset {
		return
	}
	c.inReset = asserted
	if asserted {
		c.ResetAsserts++
		c.wedged = false
		c.powerUp()
	} else {
		c.ResetReleases++
	}
}

func (c *Controller) status() uint8 {
	if c.inReset || !c.booted {
		return 0
	}
	s := uint8(core.StatusDatabusEnable)
	switch c.phase {
	case phaseBusy, phaseHung:
		s |= core.StatusInterfaceBusy
	case phaseData:
		s |= core.StatusTransferRequest | core.StatusReadWriteRequest
	case phaseComplete:
		s |= core.StatusCompletionRequest
	case phaseRejected:
		s |= core.StatusCommandReject
	}
	return s
}

func (c *Controller) address() (uint8, bool) {
	var v uint8
	for i, p := range c.pins.Address {
		if !c.output[p] {
			return 0, false
		}
		if c.latch[p] {
			v |= 1 << i
		}
	}
	return v, true
}

func (c *Controller) dataValue() (uint8, bool) {
	var v uint8
	for i, p := range c.pins.Data {
		if !c.output[p] {
			return 0, false
		}
		if c.latch[p] {
			v |= 1 << i
		}
	}
	return v, true
}

func (c *Controller) checkSetup(strobe string) {
	if c.clock.Now().Sub(c.addrSetAt) < c.SetupMin {
		c.violation(strobe + " asserted before address setup time")
	}
}

func (c *Controller) checkPulse(strobe string) {
	if c.clock.Now().Sub(c.strobeAt) < c.PulseMin {
		c.violation(strobe + " pulse too short")
	}
}

func (c *Controller) beginRead() {
	addr, ok := c.address()
	if !ok {
		c.violation("HRD asserted with floating address bus")
		return
	}
	for _, p := range c.pins.Data {
		if c.output[p] {
			c.violation("HRD asserted while host drives data bus")
			break
		}
	}
	c.checkSetup("HRD")
	c.strobeAt = c.clock.Now()
	c.readCycle = true
	c.readAddr = core.ReadRegister(addr)

	switch c.readAddr {
	case core.RegStatus:
		c.readValue = c.status()
	case core.RegReadData:
		if c.phase == phaseData && len(c.data) > 0 {
			c.readValue = c.data[0]
		} else {
			c.readValue = 0
		}
	default:
		c.readValue = c.results[c.readAddr-core.RegResult0]
	}
}

func (c *Controller) endRead() {
	c.readCycle = false
	c.checkPulse("HRD")

	switch c.readAddr {
	case core.RegStatus:
		c.StatusReads++
		c.tick()
	case core.RegReadData:
		c.DataReads++
		if c.phase == phaseData && len(c.data) > 0 {
			c.data = c.data[1:]
			if len(c.data) == 0 {
				c.phase = phaseComplete
			}
		}
	default:
		c.ResultReads++
	}
}

// tick advances a running command after each status read
func (c *Controller) tick() {
	if c.phase != phaseBusy {
		return
	}
	if c.busyLeft > 0 {
		c.busyLeft--
		return
	}
	if len(c.data) > 0 {
		c.phase = phaseData
	} else {
		c.phase = phaseComplete
	}
}

func (c *Controller) endWrite() {
	addr, ok := c.address()
	if !ok {
		c.violation("HWR pulsed with floating address bus")
		return
	}
	value, ok := c.dataValue()
	if !ok {
		c.violation("HWR pulsed with floating data bus")
		return
	}
	reg := core.WriteRegister(addr)
	c.Writes = append(c.Writes, Write{Register: reg, Value: value})

	switch {
	case reg == core.RegCommand:
		c.command(core.Opcode(value))
	case reg >= core.RegParam0:
		c.params[reg-core.RegParam0] = value
	}
}

func (c *Controller) command(op core.Opcode) {
	if op == core.OpCompletionAck {
		c.Acks++
		if c.phase == phaseComplete || c.phase == phaseRejected {
			c.phase = phaseIdle
		}
		return
	}

	c.Commands = append(c.Commands, op)
	h, ok := c.handlers[op]
	if !ok {
		c.phase = phaseRejected
		return
	}

	resp := h(op, c.params)
	switch {
	case resp.Reject:
		c.phase = phaseRejected
	case resp.Hang:
		c.phase = phaseHung
	default:
		c.results = resp.Results
		c.data = append([]byte(nil), resp.Data...)
		c.busyLeft = resp.BusyPolls
		c.phase = phaseBusy
	}
}

func (c *Controller) isAddress(pin core.GPIOPin) bool {
	for _, p := range c.pins.Address {
		if p == pin {
			return true
		}
	}
	return false
}

func (c *Controller) isData(pin core.GPIOPin) bool {
	return c.dataBit(pin) >= 0
}

func (c *Controller) dataBit(pin core.GPIOPin) int {
	for i, p := range c.pins.Data {
		if p == pin {
			return i
		}
	}
	return -1
}
