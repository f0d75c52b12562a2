package core

import "errors"

// Interface errors
var (
	ErrNotOpen           = errors.New("interface not open")
	ErrAlreadyOpen       = errors.New("interface already open")
	ErrInvalidState      = errors.New("invalid interface state")
	ErrValueTooWide      = errors.New("value too large for bus width")
	ErrNotReady          = errors.New("interface not ready")
	ErrComms             = errors.New("interface communication error")
	ErrCommandRejected   = errors.New("command rejected by interface")
	ErrCompletionTimeout = errors.New("timeout waiting for completion request")
)

// Fault classifies why a transaction did not produce a valid result
type Fault uint8

const (
	FaultNone     Fault = iota // Transaction completed
	FaultNotReady              // Interface state was not Ready
	FaultComms                 // Register access or status read failed
	FaultRejected              // Controller set the command-reject bit
	FaultTimeout               // No completion request before the deadline
)

// Err returns the sentinel error for the fault, nil for FaultNone
func (f Fault) Err() error {
	switch f {
	case FaultNone:
		return nil
	case FaultNotReady:
		return ErrNotReady
	case FaultRejected:
		return ErrCommandRejected
	case FaultTimeout:
		return ErrCompletionTimeout
	default:
		return ErrComms
	}
}

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultNotReady:
		return "not_ready"
	case FaultComms:
		return "comms"
	case FaultRejected:
		return "rejected"
	case FaultTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}
