//go:build rp2350

package main

import (
	"runtime/volatile"
	"unsafe"
)

const mcuName = "rp2350"

// RP2350 TIMER0 is at a different address than the RP2040 timer
const (
	timerBase     = 0x400B0000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high (no latching)
	timerTIMERAWL = timerBase + 0x28 // Raw timer low (no latching)
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)
