//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

const mcuName = "rp2040"

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)
