package firmware_test

import (
	"strings"
	"testing"
	"time"

	"priamsmart/core"
	"priamsmart/firmware"
	"priamsmart/protocol"
	"priamsmart/simulator"
)

type response struct {
	name string
	args []uint32
	data []byte
}

type rig struct {
	fw    *firmware.Firmware
	iface *core.Interface
	ctrl  *simulator.Controller
	disk  *simulator.Disk
	out   *protocol.ScratchOutput
	sent  []byte
	seq   uint8
}

func newRig(t *testing.T, ready bool) *rig {
	t.Helper()

	clock := simulator.NewClock()
	cfg := core.DefaultConfig()
	cfg.CompletionTimeout = time.Second

	r := &rig{
		ctrl: simulator.NewController(cfg.Pins, clock),
		disk: simulator.NewDisk(),
		out:  protocol.NewScratchOutput(),
		seq:  protocol.MessageDest,
	}
	r.disk.Attach(r.ctrl)

	r.iface = core.NewInterface(r.ctrl, clock, cfg)
	if err := r.iface.Open(false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if ready {
		r.iface.WaitForDriveReady(time.Millisecond, 10)
	}

	r.fw = firmware.New(r.iface, r.out, func() {
		r.sent = append(r.sent, r.out.Result()...)
		r.out.Reset()
	})
	return r
}

// call sends one command block and returns the responses it produced
func (r *rig) call(t *testing.T, name string, args ...uint32) []response {
	t.Helper()

	cmd, ok := r.fw.Registry().ByName(name)
	if !ok {
		t.Fatalf("Command %s not registered", name)
	}
	payload := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(payload, uint32(cmd.ID))
	for _, a := range args {
		protocol.EncodeVLQUint(payload, a)
	}
	block, err := protocol.AppendFrame(nil, r.seq, payload.Result())
	if err != nil {
		t.Fatalf("AppendFrame failed: %v", err)
	}
	r.seq = ((r.seq + 1) & protocol.MessageSeqMask) | protocol.MessageDest

	r.sent = r.sent[:0]
	r.fw.Receive(protocol.NewSliceInputBuffer(block))
	r.sent = append(r.sent, r.out.Result()...)
	r.out.Reset()

	frames, n := protocol.SplitFrames(r.sent)
	if n != len(r.sent) {
		t.Fatalf("Trailing bytes in output: % X", r.sent[n:])
	}
	if len(frames) == 0 || len(frames[len(frames)-1].Payload) != 0 {
		t.Fatalf("Expected the block to end with an acknowledge")
	}
	if frames[len(frames)-1].Sequence != r.seq {
		t.Errorf("Expected ack sequence 0x%02X, got 0x%02X", r.seq, frames[len(frames)-1].Sequence)
	}

	var out []response
	for _, f := range frames[:len(frames)-1] {
		out = append(out, r.decode(t, f.Payload))
	}
	return out
}

// decode parses a response payload using its registered format
func (r *rig) decode(t *testing.T, payload []byte) response {
	t.Helper()

	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("Bad response ID: %v", err)
	}
	cmd, ok := r.fw.Registry().Lookup(uint16(id))
	if !ok {
		t.Fatalf("Unknown response ID %d", id)
	}

	resp := response{name: cmd.Name}
	for _, field := range strings.Fields(cmd.Format) {
		if strings.HasSuffix(field, "%.*s") {
			resp.data, err = protocol.DecodeVLQBytes(&payload)
		} else {
			var v uint32
			v, err = protocol.DecodeVLQUint(&payload)
			resp.args = append(resp.args, v)
		}
		if err != nil {
			t.Fatalf("Decoding %s field %s: %v", cmd.Name, field, err)
		}
	}
	if len(payload) != 0 {
		t.Errorf("%s left %d bytes undecoded", cmd.Name, len(payload))
	}
	return resp
}

func single(t *testing.T, resps []response, name string) response {
	t.Helper()
	if len(resps) != 1 || resps[0].name != name {
		t.Fatalf("Expected one %s, got %+v", name, resps)
	}
	return resps[0]
}

func TestIdentifyReassemblesDictionary(t *testing.T) {
	r := newRig(t, true)

	var dict []byte
	for {
		resp := single(t, r.call(t, "identify", uint32(len(dict)), 40), "identify_response")
		if resp.args[0] != uint32(len(dict)) {
			t.Fatalf("Expected offset %d, got %d", len(dict), resp.args[0])
		}
		if len(resp.data) == 0 {
			break
		}
		dict = append(dict, resp.data...)
	}
	if string(dict) != string(r.fw.Dictionary().Data()) {
		t.Errorf("Reassembled dictionary differs")
	}
	if !strings.Contains(string(dict), `"priam_seek drive=%c head=%c cylinder=%hu retry=%c"`) {
		t.Errorf("Dictionary lacks priam_seek: %s", dict)
	}
}

func TestStateReportsReady(t *testing.T) {
	r := newRig(t, true)

	resp := single(t, r.call(t, "priam_state"), "priam_state_response")
	if core.State(resp.args[0]) != core.StateReady {
		t.Errorf("Expected Ready, got %s", core.State(resp.args[0]))
	}
	if !core.InterfaceStatus(resp.args[1]).ReadyForCommand() {
		t.Errorf("Expected ready-for-command status, got %s", core.InterfaceStatus(resp.args[1]))
	}
}

func TestWaitReadyBringsInterfaceUp(t *testing.T) {
	r := newRig(t, false)

	resp := single(t, r.call(t, "priam_wait_ready", 1, 10, 0), "priam_state_response")
	if core.State(resp.args[0]) != core.StateReady {
		t.Errorf("Expected Ready, got %s", core.State(resp.args[0]))
	}
}

func TestSpinUpAndSeek(t *testing.T) {
	r := newRig(t, true)

	resp := single(t, r.call(t, "priam_spin_up", 0, 1), "priam_status")
	if resp.args[0] != uint32(simulator.StatusByte(0, 0, simulator.CodeOK)) || resp.args[1] != uint32(core.FaultNone) {
		t.Fatalf("Spin-up failed: status 0x%02X fault %d", resp.args[0], resp.args[1])
	}

	resp = single(t, r.call(t, "priam_seek", 0, 2, 300, 1), "priam_cylinder")
	if resp.args[1] != uint32(core.FaultNone) || resp.args[2] != 300 {
		t.Errorf("Unexpected seek response %v", resp.args)
	}
	if head, cyl := r.disk.Position(0); head != 2 || cyl != 300 {
		t.Errorf("Disk positioned at %d/%d", head, cyl)
	}
	if last := r.ctrl.Commands[len(r.ctrl.Commands)-1]; last != core.OpSeekWithRetry {
		t.Errorf("Expected seek with retry, got 0x%02X", last)
	}
}

func TestReadParamsAndVerify(t *testing.T) {
	r := newRig(t, true)
	r.call(t, "priam_spin_up", 0, 1)

	resp := single(t, r.call(t, "priam_read_params", 0), "priam_params")
	g := r.disk.Geometry
	want := []uint32{uint32(g.Heads), uint32(g.Cylinders), uint32(g.SectorsPerTrack), uint32(g.SectorSize)}
	for i, w := range want {
		if resp.args[2+i] != w {
			t.Errorf("Param %d: expected %d, got %d", i, w, resp.args[2+i])
		}
	}

	resp = single(t, r.call(t, "priam_verify", 0), "priam_hcs")
	if resp.args[1] != uint32(core.FaultNone) {
		t.Errorf("Verify faulted: %d", resp.args[1])
	}
}

func TestReadStreamsData(t *testing.T) {
	r := newRig(t, true)
	r.disk.Geometry.SectorSize = 24
	r.call(t, "priam_spin_up", 0, 1)

	resps := r.call(t, "priam_read", 0, 1, 10, 3, 2, 0)
	if len(resps) < 2 {
		t.Fatalf("Expected data and status, got %+v", resps)
	}
	status := resps[len(resps)-1]
	if status.name != "priam_status" || status.args[1] != uint32(core.FaultNone) {
		t.Fatalf("Unexpected final response %+v", status)
	}

	var data []byte
	for _, resp := range resps[:len(resps)-1] {
		if resp.name != "priam_data" {
			t.Fatalf("Expected priam_data, got %s", resp.name)
		}
		if resp.args[0] != uint32(len(data)) {
			t.Errorf("Expected offset %d, got %d", len(data), resp.args[0])
		}
		if len(resp.data) > firmware.DataChunkSize {
			t.Errorf("Chunk of %d bytes exceeds %d", len(resp.data), firmware.DataChunkSize)
		}
		data = append(data, resp.data...)
	}
	if len(data) != 48 {
		t.Fatalf("Expected 48 bytes, got %d", len(data))
	}
	for i, b := range data {
		want := simulator.Pattern(0, 1, 10, 3+uint8(i/24), i%24)
		if b != want {
			t.Fatalf("Byte %d: expected 0x%02X, got 0x%02X", i, want, b)
		}
	}
	if last := r.ctrl.Commands[len(r.ctrl.Commands)-1]; last != core.OpReadDataNoRetry {
		t.Errorf("Expected read without retry, got 0x%02X", last)
	}
}

func TestCommandWhileNotReady(t *testing.T) {
	r := newRig(t, false)

	resp := single(t, r.call(t, "priam_spin_down", 0), "priam_status")
	if core.Fault(resp.args[1]) != core.FaultNotReady {
		t.Errorf("Expected not-ready fault, got %s", core.Fault(resp.args[1]))
	}
}

func TestFaultDumpsTraceRing(t *testing.T) {
	var lines []string
	core.SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer core.SetDebugWriter(func(string) {})
	defer core.SetDebugEnabled(false)

	r := newRig(t, false)
	r.call(t, "priam_spin_down", 0)
	if len(lines) != 0 {
		t.Fatalf("Expected no output with debug disabled, got %v", lines)
	}

	core.SetDebugEnabled(true)
	r.call(t, "priam_spin_down", 0)

	var dumped, faulted bool
	for _, l := range lines {
		if l == "[TRACE] === Transaction Ring Dump ===" {
			dumped = true
		}
		if strings.HasPrefix(l, "[TRACE] op=") && strings.Contains(l, "fault=not_ready") {
			faulted = true
		}
	}
	if !dumped || !faulted {
		t.Errorf("Expected trace dump with the not-ready transaction, got %v", lines)
	}
}

func TestStatsCountsActivity(t *testing.T) {
	r := newRig(t, true)
	r.call(t, "priam_spin_up", 0, 1)
	r.call(t, "priam_seek", 0, 0, 5000&0x7FF, 1)
	r.call(t, "priam_reset", 1)

	resp := single(t, r.call(t, "priam_stats"), "priam_stats_response")
	if resp.args[0] != 2 {
		t.Errorf("Expected 2 transactions, got %d", resp.args[0])
	}
	if resp.args[3] != 1 {
		t.Errorf("Expected 1 reset pulse, got %d", resp.args[3])
	}
}

func TestUnknownCommandIsAcknowledged(t *testing.T) {
	r := newRig(t, true)

	payload := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(payload, 200)
	block, _ := protocol.AppendFrame(nil, protocol.MessageDest, payload.Result())
	r.fw.Receive(protocol.NewSliceInputBuffer(block))

	frames, _ := protocol.SplitFrames(r.out.Result())
	if len(frames) != 1 || len(frames[0].Payload) != 0 || frames[0].Sequence != 0x11 {
		t.Errorf("Expected a bare ack with sequence 0x11, got %+v", frames)
	}
}
