package core

import (
	"context"
	"time"
)

// AssertReset drives the active-low reset line and holds the interface in reset.
// Fails if already in the reset hold state.
func (i *Interface) AssertReset() error {
	if i.state == StateResetHold {
		DebugPrintln("[IFACE] assert reset: already in reset hold state")
		return ErrInvalidState
	}

	// Latch low before enabling the driver
	if err := i.gpio.SetPin(i.cfg.Pins.Reset, false); err != nil {
		return err
	}
	if err := i.gpio.ConfigureOutput(i.cfg.Pins.Reset); err != nil {
		return err
	}

	i.state = StateResetHold
	return nil
}

// ReleaseFromReset floats the reset line and waits for the bus again.
// Fails unless the interface is in the reset hold state.
func (i *Interface) ReleaseFromReset() error {
	if i.state != StateResetHold {
		DebugPrintln("[IFACE] release from reset: wrong state " + i.state.String())
		return ErrInvalidState
	}

	if err := i.gpio.ConfigureInput(i.cfg.Pins.Reset); err != nil {
		return err
	}

	i.state = StateWaitBusReady
	return nil
}

// PulseReset asserts reset for length and releases it.
// Only safe between transactions.
func (i *Interface) PulseReset(length time.Duration) error {
	if err := i.AssertReset(); err != nil {
		return err
	}
	i.sleep(length)
	i.stats.ResetPulses++
	return i.ReleaseFromReset()
}

// WaitForDriveReady blocks until the interface is Ready.
// Sleeps pause between polls and pulses reset after maxTries consecutive
// non-Ready polls; maxTries == 0 never resets.
func (i *Interface) WaitForDriveReady(pause time.Duration, maxTries uint) {
	_ = i.WaitForDriveReadyContext(context.Background(), pause, maxTries)
}

// WaitForDriveReadyContext is WaitForDriveReady that gives up when ctx is done
func (i *Interface) WaitForDriveReadyContext(ctx context.Context, pause time.Duration, maxTries uint) error {
	var tries uint

	for i.State() != StateReady {
		if err := ctx.Err(); err != nil {
			return err
		}

		tries++
		if maxTries != 0 && tries >= maxTries {
			DebugPrintln("[IFACE] max tries waiting for drive ready exceeded, resetting interface")
			if err := i.PulseReset(i.cfg.ResetPulse); err != nil {
				DebugPrintln("[IFACE] reset pulse failed")
			}
			tries = 0
		}
		i.sleep(pause)
	}
	return nil
}
