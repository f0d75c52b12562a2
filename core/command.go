package core

// Opcode is a value written to the command register
type Opcode uint8

// Smart interface command opcodes
const (
	OpCompletionAck   Opcode = 0x00
	OpInternalStatus  Opcode = 0x05
	OpSoftwareReset   Opcode = 0x07
	OpSpinDown        Opcode = 0x81
	OpSpinUpAndWait   Opcode = 0x82
	OpSpinUpAndReturn Opcode = 0x83
	OpReadDriveParams Opcode = 0x85
	OpReadDriveType   Opcode = 0x86
	OpSeekNoRetry     Opcode = 0x41
	OpSeekWithRetry   Opcode = 0x51
	OpReadDataNoRetry Opcode = 0x43
	OpReadDataRetry   Opcode = 0x53
	OpVerifyDisk      Opcode = 0xA3
)

// CommandInfo binds an opcode to its parameter and result register counts.
// The counts are the lengths of P and R.
type CommandInfo[P, R Arity] struct {
	code Opcode
}

// NewCommandInfo creates the info for code
func NewCommandInfo[P, R Arity](code Opcode) CommandInfo[P, R] {
	return CommandInfo[P, R]{code: code}
}

// Code returns the command register value
func (c CommandInfo[P, R]) Code() Opcode {
	return c.code
}

// NumParams returns the number of parameter registers
func (c CommandInfo[P, R]) NumParams() int {
	var p P
	return len(p)
}

// NumResults returns the number of result registers
func (c CommandInfo[P, R]) NumResults() int {
	var r R
	return len(r)
}

// Param is a command parameter that serializes itself to registers
type Param[A Arity] interface {
	Registers() RegisterValues[A]
}

// Command is a typed command definition: opcode, parameter type P carried in
// PA registers and result type R parsed from RA registers.
type Command[P Param[PA], PA Arity, R any, RA Arity] struct {
	info  CommandInfo[PA, RA]
	parse func(RegisterValues[RA]) R
}

// NewCommand defines a command. parse must accept invalid registers and
// report them through the result.
func NewCommand[P Param[PA], PA Arity, R any, RA Arity](code Opcode, parse func(RegisterValues[RA]) R) Command[P, PA, R, RA] {
	return Command[P, PA, R, RA]{
		info:  NewCommandInfo[PA, RA](code),
		parse: parse,
	}
}

// Info returns the command info
func (c Command[P, PA, R, RA]) Info() CommandInfo[PA, RA] {
	return c.info
}

// Execute runs one transaction with param and parses the result registers.
// A communication failure yields the parse of an invalid register set.
func (c Command[P, PA, R, RA]) Execute(iface *Interface, param P) R {
	return c.parse(Transact(iface, c.info, param.Registers()))
}
