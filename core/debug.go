package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures one transaction outcome for post-mortem analysis
type TraceEvent struct {
	Opcode Opcode // Command issued
	Fault  Fault  // Transaction outcome
	Status uint8  // Last interface status read
	Bytes  uint32 // Data-transfer bytes drained
}

const (
	TraceRingSize = 16 // Keep last 16 transactions
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
	traceCount    uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
// Bus cycles are timing sensitive; leave disabled unless diagnosing.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// recordTrace stores a transaction outcome in the ring buffer
func recordTrace(evt TraceEvent) {
	idx := traceRingHead
	traceRing[idx] = evt
	traceRingHead = (idx + 1) % TraceRingSize
	traceCount++
}

// RecentTransactions returns the recorded transactions, oldest first
func RecentTransactions() []TraceEvent {
	n := int(traceCount)
	if n > TraceRingSize {
		n = TraceRingSize
	}
	out := make([]TraceEvent, 0, n)
	start := (int(traceRingHead) + TraceRingSize - n) % TraceRingSize
	for i := 0; i < n; i++ {
		out = append(out, traceRing[(start+i)%TraceRingSize])
	}
	return out
}

// DumpTraceRing outputs the transaction ring buffer (call after a failure)
func DumpTraceRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Transaction Ring Dump ===")
	for _, evt := range RecentTransactions() {
		debugPrintln("[TRACE] op=" + hex8(uint8(evt.Opcode)) +
			" fault=" + evt.Fault.String() +
			" status=" + hex8(evt.Status) +
			" bytes=" + utoa(evt.Bytes))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTraceRing clears the transaction buffer
func ClearTraceRing() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
	traceCount = 0
}
