//go:build rp2040 || rp2350

package main

import (
	"machine"

	"priamsmart/core"
)

// RPGPIODriver implements core.GPIODriver on the RP2 SIO pins
type RPGPIODriver struct {
	pins map[core.GPIOPin]machine.Pin
}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{pins: make(map[core.GPIOPin]machine.Pin)}
}

// pin maps a core pin to a machine.Pin; GPIO numbers map directly
func (d *RPGPIODriver) pin(pin core.GPIOPin) machine.Pin {
	p, ok := d.pins[pin]
	if !ok {
		p = machine.Pin(pin)
		d.pins[pin] = p
	}
	return p
}

// ConfigureOutput switches the pin to output, keeping the latched level
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// ConfigureInput floats the pin
func (d *RPGPIODriver) ConfigureInput(pin core.GPIOPin) error {
	d.pin(pin).Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	d.pin(pin).Set(value)
	return nil
}

func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return d.pin(pin).Get(), nil
}
