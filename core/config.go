package core

import "time"

// Pins holds the wiring between the MCU and the Smart interface connector.
// Bus arrays are ordered LSB first.
type Pins struct {
	Data    [8]GPIOPin // HCBUS0-7
	Address [3]GPIOPin // HAD0-2

	Reset       GPIOPin // active low, released by floating the pin
	TransferReq GPIOPin // DTREQ
	BusEnable   GPIOPin // DBUSENA, low when the interface drives the bus handshake
	ReadStrobe  GPIOPin // HRD, active low
	WriteStrobe GPIOPin // HWR, active low
}

// Config holds the interface wiring and timing
type Config struct {
	Pins Pins

	// SetupDelay is the minimum time address/data must be stable before a strobe (min 60ns)
	SetupDelay time.Duration

	// PulseDelay is the strobe assertion time
	PulseDelay time.Duration

	// ResetPulse is the reset pulse length used by PulseReset and WaitForDriveReady
	ResetPulse time.Duration

	// CompletionTimeout bounds the wait for a completion request once a
	// command has been issued. Zero waits forever.
	CompletionTimeout time.Duration
}

// Default timing values
const (
	DefaultSetupDelay        = 1 * time.Microsecond
	DefaultPulseDelay        = 5 * time.Microsecond
	DefaultResetPulse        = 100 * time.Millisecond
	DefaultCompletionTimeout = 30 * time.Second
)

// DefaultPins returns the reference wiring (Arduino-style header numbering)
func DefaultPins() Pins {
	return Pins{
		Data:        [8]GPIOPin{2, 3, 4, 5, 6, 7, 8, 9},
		Address:     [3]GPIOPin{10, 11, 12},
		Reset:       13,
		BusEnable:   14,
		TransferReq: 15,
		ReadStrobe:  17,
		WriteStrobe: 18,
	}
}

// DefaultConfig returns a configuration with the reference wiring and timing
func DefaultConfig() Config {
	return Config{
		Pins:              DefaultPins(),
		SetupDelay:        DefaultSetupDelay,
		PulseDelay:        DefaultPulseDelay,
		ResetPulse:        DefaultResetPulse,
		CompletionTimeout: DefaultCompletionTimeout,
	}
}

// applyDefaults fills in missing timing values
func applyDefaults(cfg *Config) {
	if cfg.SetupDelay == 0 {
		cfg.SetupDelay = DefaultSetupDelay
	}
	if cfg.PulseDelay == 0 {
		cfg.PulseDelay = DefaultPulseDelay
	}
	if cfg.ResetPulse == 0 {
		cfg.ResetPulse = DefaultResetPulse
	}
}
