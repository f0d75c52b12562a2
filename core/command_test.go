package core

import "testing"

type testParam struct {
	a, b uint8
}

func (p testParam) Registers() RegisterValues[Regs2] {
	return NewRegisterValues(Regs2{p.a, p.b}, true)
}

func TestCommandInfoCounts(t *testing.T) {
	tests := []struct {
		name    string
		code    Opcode
		params  int
		results int
		info    interface {
			Code() Opcode
			NumParams() int
			NumResults() int
		}
	}{
		{"spin down", OpSpinDown, 1, 1, NewCommandInfo[Regs1, Regs1](OpSpinDown)},
		{"read params", OpReadDriveParams, 1, 6, NewCommandInfo[Regs1, Regs6](OpReadDriveParams)},
		{"seek", OpSeekWithRetry, 3, 3, NewCommandInfo[Regs3, Regs3](OpSeekWithRetry)},
		{"read data", OpReadDataRetry, 5, 1, NewCommandInfo[Regs5, Regs1](OpReadDataRetry)},
		{"no registers", OpSoftwareReset, 0, 0, NewCommandInfo[Regs0, Regs0](OpSoftwareReset)},
	}

	for _, tt := range tests {
		if tt.info.Code() != tt.code {
			t.Errorf("%s: expected opcode 0x%02X, got 0x%02X", tt.name, tt.code, tt.info.Code())
		}
		if tt.info.NumParams() != tt.params {
			t.Errorf("%s: expected %d params, got %d", tt.name, tt.params, tt.info.NumParams())
		}
		if tt.info.NumResults() != tt.results {
			t.Errorf("%s: expected %d results, got %d", tt.name, tt.results, tt.info.NumResults())
		}
	}
}

func TestCommandNotReady(t *testing.T) {
	cmd := NewCommand[testParam, Regs2, RegisterValues[Regs4], Regs4](0x42,
		func(r RegisterValues[Regs4]) RegisterValues[Regs4] { return r })

	iface := NewInterface(NewMockGPIODriver(), nil, DefaultConfig())
	res := cmd.Execute(iface, testParam{1, 2})

	if res.Valid() {
		t.Fatal("Expected invalid result from an unopened interface")
	}
	if res.Fault() != FaultNotReady {
		t.Errorf("Expected FaultNotReady, got %s", res.Fault())
	}
	if res.Len() != 4 {
		t.Errorf("Expected 4 result registers, got %d", res.Len())
	}
	for i := 0; i < 4; i++ {
		if res.Get(i) != 0 {
			t.Errorf("Result register %d not zeroed", i)
		}
	}
}

func TestFaultErr(t *testing.T) {
	tests := []struct {
		fault Fault
		want  error
	}{
		{FaultNone, nil},
		{FaultNotReady, ErrNotReady},
		{FaultComms, ErrComms},
		{FaultRejected, ErrCommandRejected},
		{FaultTimeout, ErrCompletionTimeout},
	}
	for _, tt := range tests {
		if got := tt.fault.Err(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.fault, tt.want, got)
		}
	}
}
