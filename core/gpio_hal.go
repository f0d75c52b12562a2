package core

import "time"

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a push-pull digital output.
	// The pin keeps the level last written with SetPin.
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInput configures a pin as a floating input (high impedance).
	ConfigureInput(pin GPIOPin) error

	// SetPin sets the output latch of the pin to high (true) or low (false).
	// Does not change the pin mode.
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin level
	GetPin(pin GPIOPin) (bool, error)
}

// Clock provides the time base for bus timing and polling delays.
// Sleep must honor at least the requested duration; on the MCU short
// durations are busy-waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// systemClock is the Clock used when none is configured.
type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns a Clock backed by the time package
func SystemClock() Clock {
	return systemClock{}
}
