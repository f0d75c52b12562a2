package core

// BusMode selects the direction of every line of a bus
type BusMode uint8

const (
	BusInput  BusMode = iota // High impedance, lines are sampled
	BusOutput                // Lines are driven from the output latches
)

// Bus is a named group of GPIO lines carrying one value, first pin is the LSB.
// The lines are shared with the controller's own drivers, so a bus must be
// returned to BusInput whenever it is not actively driving a cycle.
type Bus struct {
	name string
	pins []GPIOPin
	gpio GPIODriver
}

// NewBus creates a bus over the given pins, LSB first
func NewBus(name string, gpio GPIODriver, pins ...GPIOPin) *Bus {
	p := make([]GPIOPin, len(pins))
	copy(p, pins)
	return &Bus{name: name, pins: p, gpio: gpio}
}

// Name returns the bus name
func (b *Bus) Name() string {
	return b.name
}

// Width returns the number of lines on the bus
func (b *Bus) Width() int {
	return len(b.pins)
}

// SetMode configures every line as input or output
func (b *Bus) SetMode(mode BusMode) error {
	for _, pin := range b.pins {
		var err error
		if mode == BusOutput {
			err = b.gpio.ConfigureOutput(pin)
		} else {
			err = b.gpio.ConfigureInput(pin)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DriveValue writes value to the output latches, LSB first.
// Does NOT set mode.
func (b *Bus) DriveValue(value uint8) error {
	if len(b.pins) < 8 && value >= 1<<len(b.pins) {
		DebugPrintln("[BUS] " + b.name + ": value " + hex8(value) + " too wide")
		return ErrValueTooWide
	}

	for _, pin := range b.pins {
		if err := b.gpio.SetPin(pin, value&1 != 0); err != nil {
			return err
		}
		value >>= 1
	}
	return nil
}

// SampleValue reads the lines and assembles a value, LSB first.
// Does NOT set mode.
func (b *Bus) SampleValue() (uint8, error) {
	var value uint8
	for i, pin := range b.pins {
		level, err := b.gpio.GetPin(pin)
		if err != nil {
			return 0, err
		}
		if level {
			value |= 1 << i
		}
	}
	return value, nil
}

// Output latches value and then switches the bus to output, so the lines
// never drive a stale value.
func (b *Bus) Output(value uint8) error {
	if err := b.DriveValue(value); err != nil {
		return err
	}
	return b.SetMode(BusOutput)
}
