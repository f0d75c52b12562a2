package core

import "time"

// Stats counts interface activity since Open
type Stats struct {
	Transactions uint32
	Faults       [FaultTimeout + 1]uint32 // Indexed by Fault
	DataBytes    uint32                   // Bytes drained from the data-transfer register
	ResetPulses  uint32
}

// DataHook receives each byte the controller presents in the data-transfer
// register during a command.
type DataHook func(offset uint32, value uint8)

// Interface drives one Priam Smart interface over GPIO.
// It is not safe for concurrent use: the bus is a single shared resource
// and exactly one call chain may own it.
type Interface struct {
	cfg   Config
	gpio  GPIODriver
	clock Clock

	data   *Bus
	addr   *Bus
	strobe Strobe

	state    State
	dataHook DataHook
	stats    Stats
}

// NewInterface creates an interface in the NotOpen state.
// A nil clock uses SystemClock.
func NewInterface(gpio GPIODriver, clock Clock, cfg Config) *Interface {
	if clock == nil {
		clock = SystemClock()
	}
	applyDefaults(&cfg)

	i := &Interface{
		cfg:   cfg,
		gpio:  gpio,
		clock: clock,
		data:  NewBus("HCBUS", gpio, cfg.Pins.Data[:]...),
		addr:  NewBus("HAD", gpio, cfg.Pins.Address[:]...),
		state: StateNotOpen,
	}
	i.strobe = &pinStrobe{
		gpio:  gpio,
		pin:   cfg.Pins.WriteStrobe,
		clock: clock,
		width: cfg.PulseDelay,
	}
	return i
}

// Open sets up the IO and starts waiting for the interface.
// Holds the interface in reset if holdInReset is true.
func (i *Interface) Open(holdInReset bool) error {
	if i.IsOpen() {
		return ErrAlreadyOpen
	}

	p := i.cfg.Pins

	// Both buses start high impedance
	if err := i.data.SetMode(BusInput); err != nil {
		return err
	}
	if err := i.addr.SetMode(BusInput); err != nil {
		return err
	}

	for _, pin := range []GPIOPin{p.Reset, p.TransferReq, p.BusEnable} {
		if err := i.gpio.ConfigureInput(pin); err != nil {
			return err
		}
	}

	// Strobes idle high; latch the level before enabling the driver
	for _, pin := range []GPIOPin{p.ReadStrobe, p.WriteStrobe} {
		if err := i.gpio.SetPin(pin, true); err != nil {
			return err
		}
		if err := i.gpio.ConfigureOutput(pin); err != nil {
			return err
		}
	}

	i.state = StateWaitBusReady
	i.stats = Stats{}
	DebugPrintln("[IFACE] open")

	if holdInReset {
		return i.AssertReset()
	}
	return nil
}

// IsOpen reports whether Open has been called
func (i *Interface) IsOpen() bool {
	return i.state != StateNotOpen
}

// Config returns the interface configuration
func (i *Interface) Config() Config {
	return i.cfg
}

// Clock returns the interface time base
func (i *Interface) Clock() Clock {
	return i.clock
}

// Stats returns the activity counters
func (i *Interface) Stats() Stats {
	return i.stats
}

// SetDataHook installs the receiver for data-transfer bytes; nil drops them
func (i *Interface) SetDataHook(hook DataHook) {
	i.dataHook = hook
}

// SetWriteStrobe replaces the HWR pulse generator.
// Call after Open: Open claims the strobe pin as a GPIO output.
func (i *Interface) SetWriteStrobe(s Strobe) {
	i.strobe = s
}

// sleep waits at least d
func (i *Interface) sleep(d time.Duration) {
	if d > 0 {
		i.clock.Sleep(d)
	}
}
