package core

import "time"

// Transact executes a complete transaction on the interface:
// parameter write, command issue, poll for completion, result read, acknowledge.
//
// Any failure returns all-zero registers tagged with the fault; no partial
// result is ever returned as valid.
func Transact[P, R Arity](i *Interface, info CommandInfo[P, R], params RegisterValues[P]) RegisterValues[R] {
	t := transaction{iface: i, op: info.Code()}
	if state := i.State(); state != StateReady {
		DebugPrintln("[XACT] interface not ready (" + state.String() + ")")
		return finish[R](&t, FaultNotReady)
	}

	if fault := t.waitReadyForCommand(); fault != FaultNone {
		return finish[R](&t, fault)
	}

	// Set parameters
	for n := 0; n < params.Len(); n++ {
		if err := i.RegisterWrite(RegParam0+WriteRegister(n), params.Get(n)); err != nil {
			return finish[R](&t, FaultComms)
		}
	}

	// Issue command
	if err := i.RegisterWrite(RegCommand, uint8(info.Code())); err != nil {
		return finish[R](&t, FaultComms)
	}

	if fault := t.waitCompletion(); fault != FaultNone {
		return finish[R](&t, fault)
	}

	// Read result registers
	var results R
	for n := 0; n < len(results); n++ {
		v, err := i.RegisterRead(RegResult0 + ReadRegister(n))
		if err != nil {
			return finish[R](&t, FaultComms)
		}
		results[n] = v
	}

	if err := i.completionAcknowledge(); err != nil {
		return finish[R](&t, FaultComms)
	}

	finish[R](&t, FaultNone)
	return RegisterValues[R]{values: results}
}

// transaction tracks one Transact call for logging and statistics
type transaction struct {
	iface  *Interface
	op     Opcode
	status InterfaceStatus
	bytes  uint32
}

// finish records the outcome and returns the faulted result for it
func finish[R Arity](t *transaction, fault Fault) RegisterValues[R] {
	i := t.iface
	i.stats.Transactions++
	i.stats.Faults[fault]++
	recordTrace(TraceEvent{Opcode: t.op, Fault: fault, Status: t.status.Raw(), Bytes: t.bytes})

	if fault != FaultNone {
		DebugPrintln("[XACT] op " + hex8(uint8(t.op)) + " failed: " + fault.String() +
			" status " + t.status.String())
	}
	return faulted[R](fault)
}

// deadline returns the poll deadline from now, zero when unbounded
func (t *transaction) deadline() time.Time {
	timeout := t.iface.cfg.CompletionTimeout
	if timeout <= 0 {
		return time.Time{}
	}
	return t.iface.clock.Now().Add(timeout)
}

func (t *transaction) expired(deadline time.Time) bool {
	return !deadline.IsZero() && t.iface.clock.Now().After(deadline)
}

// waitReadyForCommand polls until the interface accepts a command,
// acknowledging any pending completion request on the way
func (t *transaction) waitReadyForCommand() Fault {
	i := t.iface
	deadline := t.deadline()

	stat, err := i.ReadStatus()
	if err != nil {
		return FaultComms
	}
	t.status = stat

	for !stat.ReadyForCommand() {
		if stat.CompletionRequest() {
			DebugPrintln("[XACT] interface expecting completion ack, status " + stat.String())
			if err := i.completionAcknowledge(); err != nil {
				return FaultComms
			}
		}
		if t.expired(deadline) {
			return FaultTimeout
		}
		if stat, err = i.ReadStatus(); err != nil {
			return FaultComms
		}
		t.status = stat
	}
	return FaultNone
}

// waitCompletion polls the status register until the controller requests
// completion, draining data-transfer bytes as they are offered
func (t *transaction) waitCompletion() Fault {
	i := t.iface
	deadline := t.deadline()

	for {
		stat, err := i.ReadStatus()
		if err != nil {
			return FaultComms
		}
		t.status = stat

		if stat.CommandRejected() {
			return FaultRejected
		}

		if stat.ReadRequest() {
			v, err := i.RegisterRead(RegReadData)
			if err != nil {
				return FaultComms
			}
			if i.dataHook != nil {
				i.dataHook(t.bytes, v)
			}
			t.bytes++
			i.stats.DataBytes++
		}

		if stat.CompletionRequest() {
			return FaultNone
		}
		if t.expired(deadline) {
			return FaultTimeout
		}
	}
}
