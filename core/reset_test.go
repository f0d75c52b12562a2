package core_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"priamsmart/core"
	"priamsmart/simulator"
)

func TestOpenTwice(t *testing.T) {
	clock := simulator.NewClock()
	cfg := core.DefaultConfig()
	iface := core.NewInterface(simulator.NewController(cfg.Pins, clock), clock, cfg)

	if err := iface.Open(false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := iface.Open(false); err != core.ErrAlreadyOpen {
		t.Errorf("Expected ErrAlreadyOpen, got %v", err)
	}
}

func TestResetTransitions(t *testing.T) {
	clock := simulator.NewClock()
	cfg := core.DefaultConfig()
	ctrl := simulator.NewController(cfg.Pins, clock)
	iface := core.NewInterface(ctrl, clock, cfg)

	if err := iface.Open(true); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if iface.CurrentState() != core.StateResetHold || !ctrl.InReset() {
		t.Fatalf("Expected reset hold, got %s", iface.CurrentState())
	}

	// Asserting again is refused
	if err := iface.AssertReset(); err != core.ErrInvalidState {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}

	// State polling does not leave reset hold
	if iface.State() != core.StateResetHold {
		t.Errorf("Expected reset hold to persist")
	}

	if err := iface.ReleaseFromReset(); err != nil {
		t.Fatalf("ReleaseFromReset failed: %v", err)
	}
	if iface.CurrentState() != core.StateWaitBusReady || ctrl.InReset() {
		t.Fatalf("Expected wait bus ready, got %s", iface.CurrentState())
	}
	if err := iface.ReleaseFromReset(); err != core.ErrInvalidState {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}

	iface.WaitForDriveReady(time.Millisecond, 0)
	if iface.CurrentState() != core.StateReady {
		t.Fatalf("Expected ready, got %s", iface.CurrentState())
	}

	// Ready can go straight back to reset hold
	if err := iface.AssertReset(); err != nil {
		t.Errorf("AssertReset from ready failed: %v", err)
	}
}

func TestPulseReset(t *testing.T) {
	clock := simulator.NewClock()
	cfg := core.DefaultConfig()
	ctrl := simulator.NewController(cfg.Pins, clock)
	iface := core.NewInterface(ctrl, clock, cfg)

	if err := iface.Open(false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	before := clock.Now()
	if err := iface.PulseReset(50 * time.Millisecond); err != nil {
		t.Fatalf("PulseReset failed: %v", err)
	}
	if clock.Now().Sub(before) < 50*time.Millisecond {
		t.Error("Reset held for less than the pulse length")
	}
	if ctrl.ResetAsserts != 1 || ctrl.ResetReleases != 1 {
		t.Errorf("Expected one assert and one release, got %d/%d", ctrl.ResetAsserts, ctrl.ResetReleases)
	}
	if iface.CurrentState() != core.StateWaitBusReady {
		t.Errorf("Expected wait bus ready, got %s", iface.CurrentState())
	}
	if iface.Stats().ResetPulses != 1 {
		t.Errorf("Expected 1 reset pulse in stats, got %d", iface.Stats().ResetPulses)
	}
}

// recordingDriver logs DBUSENA polls and reset assertions on a simulated
// controller. rewedge re-wedges the controller on that many reset releases.
type recordingDriver struct {
	*simulator.Controller
	pins    core.Pins
	events  []string
	record  bool
	rewedge int
}

func (d *recordingDriver) GetPin(pin core.GPIOPin) (bool, error) {
	if d.record && pin == d.pins.BusEnable {
		d.events = append(d.events, "poll")
	}
	return d.Controller.GetPin(pin)
}

func (d *recordingDriver) ConfigureOutput(pin core.GPIOPin) error {
	if d.record && pin == d.pins.Reset {
		d.events = append(d.events, "reset")
	}
	return d.Controller.ConfigureOutput(pin)
}

func (d *recordingDriver) ConfigureInput(pin core.GPIOPin) error {
	err := d.Controller.ConfigureInput(pin)
	if pin == d.pins.Reset && d.rewedge > 0 {
		d.rewedge--
		d.Wedge()
	}
	return err
}

func TestWaitForDriveReadyResets(t *testing.T) {
	tests := []struct {
		name    string
		rewedge int
		pulses  int
		want    []string
	}{
		{
			name:   "recovers after one reset",
			pulses: 1,
			want:   []string{"poll", "poll", "poll", "reset", "poll"},
		},
		{
			name:    "still wedged after first reset",
			rewedge: 1,
			pulses:  2,
			want:    []string{"poll", "poll", "poll", "reset", "poll", "poll", "poll", "reset", "poll"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := simulator.NewClock()
			cfg := core.DefaultConfig()
			ctrl := simulator.NewController(cfg.Pins, clock)
			ctrl.BootPolls = 0
			drv := &recordingDriver{Controller: ctrl, pins: cfg.Pins}
			iface := core.NewInterface(drv, clock, cfg)

			if err := iface.Open(false); err != nil {
				t.Fatalf("Open failed: %v", err)
			}

			// DBUSENA stays high until the controller sees a reset
			ctrl.Wedge()
			drv.rewedge = tt.rewedge
			drv.record = true
			iface.WaitForDriveReady(time.Millisecond, 3)

			if iface.CurrentState() != core.StateReady {
				t.Fatalf("Expected ready, got %s", iface.CurrentState())
			}
			if !slices.Equal(drv.events, tt.want) {
				t.Errorf("Expected events %v, got %v", tt.want, drv.events)
			}
			pulses := tt.pulses
			if ctrl.ResetAsserts != pulses || ctrl.ResetReleases != pulses {
				t.Errorf("Expected %d reset pulses, got %d asserts and %d releases",
					pulses, ctrl.ResetAsserts, ctrl.ResetReleases)
			}
			if iface.Stats().ResetPulses != uint32(pulses) {
				t.Errorf("Expected %d reset pulses in stats, got %d", pulses, iface.Stats().ResetPulses)
			}
		})
	}
}

func TestWaitForDriveReadyNoReset(t *testing.T) {
	clock := simulator.NewClock()
	cfg := core.DefaultConfig()
	ctrl := simulator.NewController(cfg.Pins, clock)
	ctrl.BootPolls = 20
	iface := core.NewInterface(ctrl, clock, cfg)

	if err := iface.Open(false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	iface.WaitForDriveReady(time.Millisecond, 0)
	if iface.CurrentState() != core.StateReady {
		t.Fatalf("Expected ready, got %s", iface.CurrentState())
	}
	if ctrl.ResetAsserts != 0 {
		t.Errorf("Expected no reset with unbounded tries, got %d", ctrl.ResetAsserts)
	}
}

func TestWaitForDriveReadyCancel(t *testing.T) {
	clock := simulator.NewClock()
	cfg := core.DefaultConfig()
	ctrl := simulator.NewController(cfg.Pins, clock)
	iface := core.NewInterface(ctrl, clock, cfg)

	if err := iface.Open(false); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ctrl.Wedge()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := iface.WaitForDriveReadyContext(ctx, time.Millisecond, 0); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
