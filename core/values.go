package core

// MaxRegisters is the number of parameter (and result) registers on the interface
const MaxRegisters = 6

// Arity is the set of register array types a command can exchange.
// The array length is the register count, so counts are fixed by the type.
type Arity interface {
	~[0]byte | ~[1]byte | ~[2]byte | ~[3]byte | ~[4]byte | ~[5]byte | ~[6]byte
}

// Register array shorthands
type (
	Regs0 = [0]byte
	Regs1 = [1]byte
	Regs2 = [2]byte
	Regs3 = [3]byte
	Regs4 = [4]byte
	Regs5 = [5]byte
	Regs6 = [6]byte
)

// RegisterValues is a fixed-length set of register values tagged with the
// outcome of the transaction that produced it.
type RegisterValues[A Arity] struct {
	values A
	fault  Fault
}

// NewRegisterValues wraps values. An invalid set carries FaultComms.
func NewRegisterValues[A Arity](values A, valid bool) RegisterValues[A] {
	r := RegisterValues[A]{values: values}
	if !valid {
		r.fault = FaultComms
	}
	return r
}

// faulted returns an all-zero set tagged with fault
func faulted[A Arity](fault Fault) RegisterValues[A] {
	var zero A
	return RegisterValues[A]{values: zero, fault: fault}
}

// Get returns register i, or 0 when i is out of range
func (r RegisterValues[A]) Get(i int) uint8 {
	v, _ := r.Lookup(i)
	return v
}

// Lookup returns register i and whether i is in range
func (r RegisterValues[A]) Lookup(i int) (uint8, bool) {
	if i < 0 || i >= len(r.values) {
		return 0, false
	}
	return r.values[i], true
}

// Len returns the register count
func (r RegisterValues[A]) Len() int {
	return len(r.values)
}

// Values returns a copy of the registers
func (r RegisterValues[A]) Values() A {
	return r.values
}

// Valid reports whether the registers came from a completed transaction
func (r RegisterValues[A]) Valid() bool {
	return r.fault == FaultNone
}

// Fault returns why the registers are not valid
func (r RegisterValues[A]) Fault() Fault {
	return r.fault
}
