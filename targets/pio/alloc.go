//go:build rp2040 || rp2350

package pio

var (
	// RP2040/RP2350 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	allocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum  = uint8(0)
	nextSMNum   = uint8(0)
)

// Allocate reserves a free PIO state machine.
// Returns (pioNum, smNum, ok).
func Allocate() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ {
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !allocations[pioNum][smNum] {
			allocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

// Release returns a state machine to the pool
func Release(pioNum, smNum uint8) {
	allocations[pioNum&1][smNum&3] = false
}
