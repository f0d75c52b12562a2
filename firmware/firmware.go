// Package firmware exposes the drive command set over the framed serial link.
// It is the MCU side: the host sends priam_* commands, the firmware runs them
// on the interface and answers with one response per command.
package firmware

import (
	"priamsmart/core"
	"priamsmart/drive"
	"priamsmart/protocol"
)

// DataChunkSize is the largest payload of one priam_data response
const DataChunkSize = 16

// Firmware binds a registry, the identify dictionary and the command
// handlers to one interface
type Firmware struct {
	iface     *core.Interface
	drive     *drive.Drive
	registry  *Registry
	dict      *Dictionary
	transport *protocol.Transport
	flush     func()

	chunk    [DataChunkSize]byte
	chunkLen int
	chunkOff uint32
}

// New creates the firmware for iface, writing frames to output. flush is
// called whenever output should be drained (after acknowledges and between
// data chunks); nil means output is drained by the caller only.
func New(iface *core.Interface, output protocol.OutputBuffer, flush func()) *Firmware {
	f := &Firmware{
		iface:    iface,
		drive:    drive.New(iface),
		registry: NewRegistry(),
		flush:    flush,
	}
	f.registerCommands()

	f.dict = NewDictionary(f.registry, "priamsmart-"+protocol.Version, "go")
	cfg := iface.Config()
	f.dict.AddConstant("PRIAM_SETUP_NS", uint32(cfg.SetupDelay.Nanoseconds()))
	f.dict.AddConstant("PRIAM_PULSE_NS", uint32(cfg.PulseDelay.Nanoseconds()))
	f.dict.AddConstant("PRIAM_DATA_CHUNK", DataChunkSize)
	f.dict.Build()

	f.transport = protocol.NewTransport(output, f.registry.Dispatch)
	f.transport.SetFlushCallback(flush)

	iface.SetDataHook(f.collectData)
	return f
}

// Transport returns the link transport
func (f *Firmware) Transport() *protocol.Transport {
	return f.transport
}

func (f *Firmware) Registry() *Registry {
	return f.registry
}

func (f *Firmware) Dictionary() *Dictionary {
	return f.dict
}

// Receive processes received link bytes
func (f *Firmware) Receive(input protocol.InputBuffer) {
	f.transport.Receive(input)
}

// SetConstant adds a constant to the dictionary; used by targets for MCU details
func (f *Firmware) SetConstant(name string, value any) {
	f.dict.AddConstant(name, value)
	f.dict.Build()
}

// send frames a registered response
func (f *Firmware) send(name string, args func(output protocol.OutputBuffer)) {
	cmd, ok := f.registry.ByName(name)
	if !ok {
		panic("response not registered: " + name)
	}
	f.transport.SendCommand(cmd.ID, args)
}

// collectData buffers data-transfer bytes and sends them in chunks
func (f *Firmware) collectData(offset uint32, value uint8) {
	if f.chunkLen == 0 {
		f.chunkOff = offset
	}
	f.chunk[f.chunkLen] = value
	f.chunkLen++
	if f.chunkLen == DataChunkSize {
		f.flushData()
	}
}

// flushData sends any buffered data bytes
func (f *Firmware) flushData() {
	if f.chunkLen == 0 {
		return
	}
	data := f.chunk[:f.chunkLen]
	f.send("priam_data", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, f.chunkOff)
		protocol.EncodeVLQBytes(output, data)
	})
	f.chunkLen = 0
	if f.flush != nil {
		f.flush()
	}
}
