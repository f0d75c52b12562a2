//go:build (rp2040 || rp2350) && debug

package main

import (
	"machine"

	"priamsmart/core"
)

var debugUART *machine.UART

// InitDebug routes core debug output to UART0 on GPIO0 (TX) and GPIO1 (RX)
// at 115200 baud
func InitDebug() {
	debugUART = machine.UART0
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.DebugPrintln("=== Priam Smart interface debug UART ===")
}
