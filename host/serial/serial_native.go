//go:build !tinygo

package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port and drops anything already queued on it
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	p := &NativePort{port: port, cfg: cfg}
	if err := p.Flush(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards pending input and output on the device
func (p *NativePort) Flush() error {
	if err := flushDevice(p.cfg.Device); err != nil {
		return fmt.Errorf("failed to flush %s: %w", p.cfg.Device, err)
	}
	return nil
}
