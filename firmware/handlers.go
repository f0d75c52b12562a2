package firmware

import (
	"context"
	"time"

	"priamsmart/core"
	"priamsmart/drive"
	"priamsmart/protocol"
)

// registerCommands registers every command and response.
// identify_response and identify must keep IDs 0 and 1.
func (f *Firmware) registerCommands() {
	r := f.registry
	r.RegisterResponse("identify_response", "offset=%u data=%.*s")
	r.Register("identify", "offset=%u count=%c", f.handleIdentify)

	r.Register("priam_state", "", f.handleState)
	r.Register("priam_reset", "pulse_ms=%u", f.handleReset)
	r.Register("priam_wait_ready", "pause_ms=%u max_tries=%u timeout_ms=%u", f.handleWaitReady)
	r.Register("priam_stats", "", f.handleStats)
	r.Register("priam_spin_up", "drive=%c wait=%c", f.handleSpinUp)
	r.Register("priam_spin_down", "drive=%c", f.handleSpinDown)
	r.Register("priam_read_params", "drive=%c", f.handleReadParams)
	r.Register("priam_seek", "drive=%c head=%c cylinder=%hu retry=%c", f.handleSeek)
	r.Register("priam_verify", "drive=%c", f.handleVerify)
	r.Register("priam_read", "drive=%c head=%c cylinder=%hu sector=%c count=%c retry=%c", f.handleRead)

	r.RegisterResponse("priam_state_response", "state=%c status=%c")
	r.RegisterResponse("priam_stats_response", "transactions=%u faults=%u data_bytes=%u resets=%u")
	r.RegisterResponse("priam_status", "status=%c fault=%c")
	r.RegisterResponse("priam_params", "status=%c fault=%c heads=%c cylinders=%hu sectors=%c sector_size=%hu")
	r.RegisterResponse("priam_cylinder", "status=%c fault=%c cylinder=%hu")
	r.RegisterResponse("priam_hcs", "status=%c fault=%c head=%c cylinder=%hu sector=%c")
	r.RegisterResponse("priam_data", "offset=%u data=%.*s")
}

// decodeArgs decodes one unsigned VLQ argument into each destination
func decodeArgs(data *[]byte, dst ...*uint32) error {
	for _, d := range dst {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}

func encodeStatus(output protocol.OutputBuffer, st drive.TransactionStatus) {
	protocol.EncodeVLQUint(output, uint32(st.Raw()))
	protocol.EncodeVLQUint(output, uint32(st.Fault()))
}

func (f *Firmware) handleIdentify(data *[]byte) error {
	var offset, count uint32
	if err := decodeArgs(data, &offset, &count); err != nil {
		return err
	}
	chunk := f.dict.Chunk(offset, uint8(count))
	f.send("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	return nil
}

// sendState reports the interface state and, when Ready, the status register
func (f *Firmware) sendState() {
	state := f.iface.State()
	var status core.InterfaceStatus
	if state == core.StateReady {
		if s, err := f.iface.ReadStatus(); err == nil {
			status = s
		}
	}
	f.send("priam_state_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(state))
		protocol.EncodeVLQUint(output, uint32(status.Raw()))
	})
}

func (f *Firmware) handleState(_ *[]byte) error {
	f.sendState()
	return nil
}

func (f *Firmware) handleReset(data *[]byte) error {
	var pulseMS uint32
	if err := decodeArgs(data, &pulseMS); err != nil {
		return err
	}
	pulse := time.Duration(pulseMS) * time.Millisecond
	if pulse == 0 {
		pulse = f.iface.Config().ResetPulse
	}
	if err := f.iface.PulseReset(pulse); err != nil {
		core.DebugPrintln("[FW] reset pulse failed: " + err.Error())
	}
	f.sendState()
	return nil
}

func (f *Firmware) handleWaitReady(data *[]byte) error {
	var pauseMS, maxTries, timeoutMS uint32
	if err := decodeArgs(data, &pauseMS, &maxTries, &timeoutMS); err != nil {
		return err
	}

	ctx := context.Background()
	if timeoutMS != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		defer cancel()
	}
	pause := time.Duration(pauseMS) * time.Millisecond
	if err := f.iface.WaitForDriveReadyContext(ctx, pause, uint(maxTries)); err != nil {
		core.DebugPrintln("[FW] wait ready abandoned: " + err.Error())
	}
	f.sendState()
	return nil
}

func (f *Firmware) handleStats(_ *[]byte) error {
	st := f.iface.Stats()
	var faults uint32
	for kind, n := range st.Faults {
		if core.Fault(kind) != core.FaultNone {
			faults += n
		}
	}
	f.send("priam_stats_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, st.Transactions)
		protocol.EncodeVLQUint(output, faults)
		protocol.EncodeVLQUint(output, st.DataBytes)
		protocol.EncodeVLQUint(output, st.ResetPulses)
	})
	return nil
}

func (f *Firmware) sendStatus(st drive.TransactionStatus) {
	if st.Fault() != core.FaultNone && core.IsDebugEnabled() {
		core.DumpTraceRing()
	}
	f.send("priam_status", func(output protocol.OutputBuffer) {
		encodeStatus(output, st)
	})
}

func (f *Firmware) handleSpinUp(data *[]byte) error {
	var driveNo, wait uint32
	if err := decodeArgs(data, &driveNo, &wait); err != nil {
		return err
	}
	if wait != 0 {
		f.sendStatus(f.drive.SpinUpWait(uint8(driveNo)))
	} else {
		f.sendStatus(f.drive.SpinUpReturn(uint8(driveNo)))
	}
	return nil
}

func (f *Firmware) handleSpinDown(data *[]byte) error {
	var driveNo uint32
	if err := decodeArgs(data, &driveNo); err != nil {
		return err
	}
	f.sendStatus(f.drive.SpinDown(uint8(driveNo)))
	return nil
}

func (f *Firmware) handleReadParams(data *[]byte) error {
	var driveNo uint32
	if err := decodeArgs(data, &driveNo); err != nil {
		return err
	}
	p := f.drive.ReadParams(uint8(driveNo))
	f.send("priam_params", func(output protocol.OutputBuffer) {
		encodeStatus(output, p.Status)
		protocol.EncodeVLQUint(output, uint32(p.Heads()))
		protocol.EncodeVLQUint(output, uint32(p.Cylinders()))
		protocol.EncodeVLQUint(output, uint32(p.SectorsPerTrack()))
		protocol.EncodeVLQUint(output, uint32(p.LogicalSectorSize()))
	})
	return nil
}

func (f *Firmware) handleSeek(data *[]byte) error {
	var driveNo, head, cylinder, retry uint32
	if err := decodeArgs(data, &driveNo, &head, &cylinder, &retry); err != nil {
		return err
	}
	res := f.drive.Seek(uint8(driveNo), uint8(head), uint16(cylinder), retry != 0)
	f.send("priam_cylinder", func(output protocol.OutputBuffer) {
		encodeStatus(output, res.Status)
		protocol.EncodeVLQUint(output, uint32(res.Cylinder()))
	})
	return nil
}

func (f *Firmware) handleVerify(data *[]byte) error {
	var driveNo uint32
	if err := decodeArgs(data, &driveNo); err != nil {
		return err
	}
	res := f.drive.VerifyDisk(uint8(driveNo))
	f.send("priam_hcs", func(output protocol.OutputBuffer) {
		encodeStatus(output, res.Status)
		protocol.EncodeVLQUint(output, uint32(res.Head()))
		protocol.EncodeVLQUint(output, uint32(res.Cylinder()))
		protocol.EncodeVLQUint(output, uint32(res.Sector()))
	})
	return nil
}

// handleRead streams the sector data as priam_data chunks, then the status
func (f *Firmware) handleRead(data *[]byte) error {
	var driveNo, head, cylinder, sector, count, retry uint32
	if err := decodeArgs(data, &driveNo, &head, &cylinder, &sector, &count, &retry); err != nil {
		return err
	}
	f.chunkLen = 0
	st := f.drive.ReadData(uint8(driveNo), uint8(head), uint16(cylinder), uint8(sector), uint8(count), retry != 0)
	f.flushData()
	f.sendStatus(st)
	return nil
}
