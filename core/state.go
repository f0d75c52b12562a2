package core

// State is the interface lifecycle state
type State uint8

const (
	StateNotOpen State = iota
	StateResetHold
	StateWaitBusReady
	StateWaitInitialCompletion
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNotOpen:
		return "not_open"
	case StateResetHold:
		return "reset_hold"
	case StateWaitBusReady:
		return "wait_bus_ready"
	case StateWaitInitialCompletion:
		return "wait_initial_completion"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Sample is one reading of the hardware signals the state machine depends on
type Sample struct {
	BusEnableLow bool            // DBUSENA line is low
	Status       InterfaceStatus // Status register, valid when StatusOK
	StatusOK     bool
}

// Step is the outcome of advancing the state machine by one sample
type Step struct {
	Next        State
	Acknowledge bool // A completion acknowledge must be sent before entering Next
}

// Advance computes the next state from the current state and a sample.
// Only WaitBusReady and WaitInitialCompletion move on their own; every
// other state changes through Open or the reset operations.
func Advance(state State, s Sample) Step {
	switch state {
	case StateWaitBusReady:
		if s.BusEnableLow {
			return Step{Next: StateWaitInitialCompletion}
		}
	case StateWaitInitialCompletion:
		// A controller coming out of power-up or reset raises an initial
		// completion request that must be acknowledged
		if s.StatusOK && s.Status.CompletionRequest() {
			return Step{Next: StateReady, Acknowledge: true}
		}
	}
	return Step{Next: state}
}

// State samples the hardware, advances the state machine and returns the new state
func (i *Interface) State() State {
	var s Sample

	switch i.state {
	case StateWaitBusReady:
		level, err := i.gpio.GetPin(i.cfg.Pins.BusEnable)
		if err != nil {
			DebugPrintln("[IFACE] DBUSENA read failed")
			return i.state
		}
		s.BusEnableLow = !level
	case StateWaitInitialCompletion:
		stat, err := i.ReadStatus()
		s.Status, s.StatusOK = stat, err == nil
		if err == nil && !stat.CompletionRequest() {
			DebugPrintln("[IFACE] no completion request, status " + stat.String())
		}
	default:
		return i.state
	}

	step := Advance(i.state, s)
	if step.Acknowledge {
		if err := i.completionAcknowledge(); err != nil {
			DebugPrintln("[IFACE] initial completion ack failed")
			return i.state
		}
	}
	if step.Next != i.state {
		DebugPrintln("[IFACE] " + i.state.String() + " -> " + step.Next.String())
		i.state = step.Next
	}
	return i.state
}

// CurrentState returns the state without sampling the hardware
func (i *Interface) CurrentState() State {
	return i.state
}
