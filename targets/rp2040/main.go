//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"priamsmart/core"
	"priamsmart/firmware"
	"priamsmart/protocol"
	"priamsmart/targets/pio"
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	fw           *firmware.Firmware
	iface        *core.Interface

	msgerrors                uint32
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear any watchdog state left from before the reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	InitDebug()

	cfg := core.DefaultConfig()
	iface = core.NewInterface(NewRPGPIODriver(), hwClock{}, cfg)
	if err := iface.Open(false); err != nil {
		core.DebugPrintln("[MAIN] interface open failed: " + err.Error())
	}

	// Hardware-timed HWR once the pin has been set up idle-high by Open
	if pioNum, smNum, ok := pio.Allocate(); ok {
		strobe := pio.NewWriteStrobe(pioNum, smNum)
		if err := strobe.Init(uint8(cfg.Pins.WriteStrobe), cfg.PulseDelay); err != nil {
			core.DebugPrintln("[MAIN] PIO strobe unavailable, using GPIO")
		} else {
			iface.SetWriteStrobe(strobe)
		}
	}

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	fw = firmware.New(iface, outputBuffer, writeUSB)
	fw.SetConstant("MCU", mcuName)
	fw.SetConstant("CLOCK_FREQ", uint32(ClockFreq))
	fw.Transport().SetResetCallback(func() {
		// Host restarted: drop anything not yet sent
		outputBuffer.Reset()
	})

	go usbReaderLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			if inputBuffer.Available() > 0 {
				data := inputBuffer.Data()
				in := protocol.NewSliceInputBuffer(data)
				fw.Receive(in)
				if consumed := len(data) - in.Available(); consumed > 0 {
					inputBuffer.Pop(consumed)
				}
			}

			writeUSB()

			// Bring the interface up on its own between host commands
			switch iface.CurrentState() {
			case core.StateWaitBusReady, core.StateWaitInitialCompletion:
				iface.State()
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// usbReaderLoop moves received USB bytes into the input FIFO
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(time.Millisecond)
				continue
			}

			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				fw.Transport().Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB sends the output buffer, marking the link disconnected after
// repeated failures
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
