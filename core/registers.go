package core

import "time"

// ReadRegister is a register address on the read side
type ReadRegister uint8

// The Smart Interface register addresses (read)
const (
	RegStatus   ReadRegister = 0
	RegReadData ReadRegister = 1
	RegResult0  ReadRegister = 2
	RegResult1  ReadRegister = 3
	RegResult2  ReadRegister = 4
	RegResult3  ReadRegister = 5
	RegResult4  ReadRegister = 6
	RegResult5  ReadRegister = 7
)

// WriteRegister is a register address on the write side
type WriteRegister uint8

// The Smart Interface register addresses (write)
const (
	RegCommand   WriteRegister = 0
	RegWriteData WriteRegister = 1
	RegParam0    WriteRegister = 2
	RegParam1    WriteRegister = 3
	RegParam2    WriteRegister = 4
	RegParam3    WriteRegister = 5
	RegParam4    WriteRegister = 6
	RegParam5    WriteRegister = 7
)

// Strobe generates one active-low HWR pulse of at least the configured
// pulse delay and returns once the line is high again.
type Strobe interface {
	Pulse() error
}

// pinStrobe toggles the strobe pin through the GPIO driver
type pinStrobe struct {
	gpio  GPIODriver
	pin   GPIOPin
	clock Clock
	width time.Duration
}

func (s *pinStrobe) Pulse() error {
	if err := s.gpio.SetPin(s.pin, false); err != nil {
		return err
	}
	s.clock.Sleep(s.width)
	return s.gpio.SetPin(s.pin, true)
}

// RegisterRead reads a Smart Interface register.
// Sets HAD, pulses HRD and samples HCBUS. Returns HAD to high impedance when done.
func (i *Interface) RegisterRead(address ReadRegister) (uint8, error) {
	// Bus mode should already be input, but just in case
	if err := i.data.SetMode(BusInput); err != nil {
		return 0, err
	}

	if err := i.addr.Output(uint8(address)); err != nil {
		i.releaseBuses()
		return 0, err
	}

	// Address stable before asserting HRD, minimum 60ns
	i.sleep(i.cfg.SetupDelay)

	if err := i.gpio.SetPin(i.cfg.Pins.ReadStrobe, false); err != nil {
		i.releaseBuses()
		return 0, err
	}
	i.sleep(i.cfg.PulseDelay)

	value, sampleErr := i.data.SampleValue()

	if err := i.gpio.SetPin(i.cfg.Pins.ReadStrobe, true); err != nil {
		i.releaseBuses()
		return 0, err
	}
	if err := i.addr.SetMode(BusInput); err != nil {
		i.releaseBuses()
		return 0, err
	}
	if sampleErr != nil {
		return 0, sampleErr
	}
	return value, nil
}

// RegisterWrite writes a Smart Interface register.
// Sets HAD and HCBUS, pulses HWR. Returns HAD and HCBUS to high impedance when done.
func (i *Interface) RegisterWrite(address WriteRegister, value uint8) error {
	if err := i.addr.Output(uint8(address)); err != nil {
		i.releaseBuses()
		return err
	}
	if err := i.data.Output(value); err != nil {
		i.releaseBuses()
		return err
	}

	// Address and data stable before asserting HWR, minimum 60ns
	i.sleep(i.cfg.SetupDelay)

	if err := i.strobe.Pulse(); err != nil {
		i.releaseBuses()
		return err
	}

	if err := i.addr.SetMode(BusInput); err != nil {
		i.releaseBuses()
		return err
	}
	return i.data.SetMode(BusInput)
}

// releaseBuses is the best-effort recovery after a failed cycle: strobes
// idle, both buses high impedance. Errors are ignored, the cycle already failed.
func (i *Interface) releaseBuses() {
	_ = i.gpio.SetPin(i.cfg.Pins.ReadStrobe, true)
	_ = i.gpio.SetPin(i.cfg.Pins.WriteStrobe, true)
	_ = i.data.SetMode(BusInput)
	_ = i.addr.SetMode(BusInput)
}

// ReadStatus reads and decodes the interface status register
func (i *Interface) ReadStatus() (InterfaceStatus, error) {
	v, err := i.RegisterRead(RegStatus)
	if err != nil {
		DebugPrintln("[IFACE] error reading interface status register")
		return 0, err
	}
	return InterfaceStatus(v), nil
}

// completionAcknowledge acknowledges the end of an operation
func (i *Interface) completionAcknowledge() error {
	return i.RegisterWrite(RegCommand, uint8(OpCompletionAck))
}
