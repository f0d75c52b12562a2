package drive

import "priamsmart/core"

// CompletionType is the completion class reported in a status register
type CompletionType uint8

const (
	CompletionGood                 CompletionType = 0
	CompletionSystemError          CompletionType = 1
	CompletionOperatorIntervention CompletionType = 2
	CompletionCommandDriveError    CompletionType = 3
)

func (c CompletionType) String() string {
	switch c {
	case CompletionGood:
		return "good"
	case CompletionSystemError:
		return "system_error"
	case CompletionOperatorIntervention:
		return "operator_intervention"
	case CompletionCommandDriveError:
		return "command_drive_error"
	default:
		return "unknown"
	}
}

// TransactionStatus is the status register returned by every drive command.
// Layout: drive in bits 7-6, completion type in bits 5-4, code in bits 3-0.
type TransactionStatus struct {
	raw   uint8
	fault core.Fault
}

// NewTransactionStatus decodes a raw status byte from a completed transaction
func NewTransactionStatus(raw uint8) TransactionStatus {
	return TransactionStatus{raw: raw}
}

// ParseTransactionStatus decodes the status from a single result register
func ParseTransactionStatus(regs core.RegisterValues[core.Regs1]) TransactionStatus {
	return statusFrom(regs.Get(0), regs.Fault())
}

// StatusWithFault rebuilds a status reported over the serial link
func StatusWithFault(raw uint8, fault core.Fault) TransactionStatus {
	return statusFrom(raw, fault)
}

func statusFrom(raw uint8, fault core.Fault) TransactionStatus {
	return TransactionStatus{raw: raw, fault: fault}
}

// Raw returns the status register value
func (s TransactionStatus) Raw() uint8 {
	return s.raw
}

// Drive returns the drive the status refers to
func (s TransactionStatus) Drive() uint8 {
	return s.raw >> 6
}

// CompType returns the completion type
func (s TransactionStatus) CompType() CompletionType {
	return CompletionType((s.raw >> 4) & 3)
}

// Code returns the completion code
func (s TransactionStatus) Code() uint8 {
	return s.raw & 0xF
}

// IsErrorStatus reports a completion type other than Good
func (s TransactionStatus) IsErrorStatus() bool {
	return s.CompType() != CompletionGood
}

// CommsError reports that the transaction itself failed and the fields are meaningless
func (s TransactionStatus) CommsError() bool {
	return s.fault != core.FaultNone
}

// Fault returns the transaction fault
func (s TransactionStatus) Fault() core.Fault {
	return s.fault
}

// Err folds the transaction fault and the completion type into one error
func (s TransactionStatus) Err() error {
	if s.CommsError() {
		return s.fault.Err()
	}
	if s.IsErrorStatus() {
		return &StatusError{Status: s}
	}
	return nil
}

// StatusError is a drive-reported error in a completed transaction
type StatusError struct {
	Status TransactionStatus
}

func (e *StatusError) Error() string {
	return "drive " + utoa(uint32(e.Status.Drive())) + ": " + e.Status.CompType().String() +
		" code " + utoa(uint32(e.Status.Code()))
}

func utoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
