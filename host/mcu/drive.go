package mcu

import (
	"fmt"
	"time"

	"priamsmart/core"
	"priamsmart/drive"
	"priamsmart/host/config"
)

// DriveParams is the geometry reported by read-drive-parameters
type DriveParams struct {
	Heads           uint8
	Cylinders       uint16
	SectorsPerTrack uint8
	SectorSize      uint16
}

// Position is a head/cylinder/sector address
type Position struct {
	Head     uint8
	Cylinder uint16
	Sector   uint8
}

// Stats are the firmware interface counters
type Stats struct {
	Transactions uint32
	Faults       uint32
	DataBytes    uint32
	Resets       uint32
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func statusOf(resp Response) drive.TransactionStatus {
	return drive.StatusWithFault(uint8(resp.Get("status")), core.Fault(resp.Get("fault")))
}

func stateOf(resp Response) (core.State, core.InterfaceStatus) {
	return core.State(resp.Get("state")), core.InterfaceStatus(resp.Get("status"))
}

// State returns the interface state; the status register is only sampled when Ready
func (m *MCU) State() (core.State, core.InterfaceStatus, error) {
	resp, err := m.Call("priam_state", "priam_state_response")
	if err != nil {
		return 0, 0, err
	}
	state, status := stateOf(resp)
	return state, status, nil
}

// Reset pulses the interface reset line. Zero uses the firmware default.
func (m *MCU) Reset(pulse time.Duration) (core.State, error) {
	resp, err := m.Call("priam_reset", "priam_state_response", uint32(pulse.Milliseconds()))
	if err != nil {
		return 0, err
	}
	state, _ := stateOf(resp)
	return state, nil
}

// WaitReady runs the firmware's wait-for-drive-ready loop with policy w
func (m *MCU) WaitReady(w config.WaitReady) (core.State, error) {
	resp, err := m.Call("priam_wait_ready", "priam_state_response", w.PauseMS, w.MaxTries, w.TimeoutMS)
	if err != nil {
		return 0, err
	}
	state, _ := stateOf(resp)
	if state != core.StateReady {
		m.dlog.Warn("interface not ready after wait", "state", state.String())
	}
	return state, nil
}

func (m *MCU) SpinUp(driveNo uint8, wait bool) (drive.TransactionStatus, error) {
	resp, err := m.Call("priam_spin_up", "priam_status", uint32(driveNo), boolArg(wait))
	if err != nil {
		return drive.TransactionStatus{}, err
	}
	return statusOf(resp), nil
}

func (m *MCU) SpinDown(driveNo uint8) (drive.TransactionStatus, error) {
	resp, err := m.Call("priam_spin_down", "priam_status", uint32(driveNo))
	if err != nil {
		return drive.TransactionStatus{}, err
	}
	return statusOf(resp), nil
}

func (m *MCU) ReadParams(driveNo uint8) (DriveParams, drive.TransactionStatus, error) {
	resp, err := m.Call("priam_read_params", "priam_params", uint32(driveNo))
	if err != nil {
		return DriveParams{}, drive.TransactionStatus{}, err
	}
	p := DriveParams{
		Heads:           uint8(resp.Get("heads")),
		Cylinders:       uint16(resp.Get("cylinders")),
		SectorsPerTrack: uint8(resp.Get("sectors")),
		SectorSize:      uint16(resp.Get("sector_size")),
	}
	return p, statusOf(resp), nil
}

// Seek positions the heads and returns the cylinder the drive reports
func (m *MCU) Seek(driveNo, head uint8, cylinder uint16, withRetry bool) (uint16, drive.TransactionStatus, error) {
	resp, err := m.Call("priam_seek", "priam_cylinder",
		uint32(driveNo), uint32(head), uint32(cylinder), boolArg(withRetry))
	if err != nil {
		return 0, drive.TransactionStatus{}, err
	}
	return uint16(resp.Get("cylinder")), statusOf(resp), nil
}

// Verify runs verify-disk and returns the last address checked
func (m *MCU) Verify(driveNo uint8) (Position, drive.TransactionStatus, error) {
	resp, err := m.Call("priam_verify", "priam_hcs", uint32(driveNo))
	if err != nil {
		return Position{}, drive.TransactionStatus{}, err
	}
	pos := Position{
		Head:     uint8(resp.Get("head")),
		Cylinder: uint16(resp.Get("cylinder")),
		Sector:   uint8(resp.Get("sector")),
	}
	return pos, statusOf(resp), nil
}

// ReadData reads count sectors starting at pos. The data is whatever the
// interface transferred before completing, which may be short on error.
func (m *MCU) ReadData(driveNo uint8, pos Position, count uint8, withRetry bool) ([]byte, drive.TransactionStatus, error) {
	err := m.Send("priam_read", uint32(driveNo), uint32(pos.Head), uint32(pos.Cylinder),
		uint32(pos.Sector), uint32(count), boolArg(withRetry))
	if err != nil {
		return nil, drive.TransactionStatus{}, err
	}

	var data []byte
	resp, err := m.await("priam_status", func(r Response) error {
		if r.Name != "priam_data" {
			return nil
		}
		if off := r.Get("offset"); off != uint32(len(data)) {
			return fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedOffset, len(data), off)
		}
		data = append(data, r.Data...)
		return nil
	})
	if err != nil {
		return data, drive.TransactionStatus{}, err
	}
	m.dlog.Debug("read complete", "bytes", len(data), "status", statusOf(resp).Raw())
	return data, statusOf(resp), nil
}

// Stats returns the firmware counters
func (m *MCU) Stats() (Stats, error) {
	resp, err := m.Call("priam_stats", "priam_stats_response")
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Transactions: resp.Get("transactions"),
		Faults:       resp.Get("faults"),
		DataBytes:    resp.Get("data_bytes"),
		Resets:       resp.Get("resets"),
	}, nil
}
