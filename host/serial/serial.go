// Package serial opens the USB CDC link to the interface firmware.
package serial

import (
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"time"
)

// ErrNoDevice is returned by Open when no device path is configured
var ErrNoDevice = errors.New("serial: device path required")

// Port is an open link to the firmware
type Port interface {
	io.ReadWriteCloser

	// Flush discards bytes queued in either direction
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (USB CDC ignores this)
	Baud int

	// ReadTimeout bounds each Read; zero blocks
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration for a USB CDC firmware link
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// ListPorts returns the candidate USB serial devices on this machine
func ListPorts() ([]string, error) {
	var patterns []string
	switch runtime.GOOS {
	case "linux":
		patterns = []string{"/dev/ttyACM*", "/dev/ttyUSB*", "/dev/serial/by-id/*"}
	case "darwin":
		patterns = []string{"/dev/cu.usbmodem*", "/dev/cu.usbserial*"}
	default:
		return nil, errors.New("serial: port listing unsupported on " + runtime.GOOS)
	}

	var ports []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if resolved, err := filepath.EvalSymlinks(m); err == nil {
				m = resolved
			}
			if !slices.Contains(ports, m) {
				ports = append(ports, m)
			}
		}
	}
	slices.Sort(ports)
	return ports, nil
}
