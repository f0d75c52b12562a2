package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"device", cfg.Device, "/dev/ttyACM0"},
		{"baud", cfg.Baud, 250000},
		{"ack timeout", cfg.AckTimeoutDuration(), 2 * time.Second},
		{"response timeout", cfg.ResponseTimeoutDuration(), time.Second},
		{"command timeout", cfg.CommandTimeoutDuration(), time.Minute},
		{"identify chunk", cfg.IdentifyChunk, uint8(40)},
		{"pause", cfg.WaitReady.PauseMS, uint32(100)},
		{"max tries", cfg.WaitReady.MaxTries, uint32(50)},
		{"wait timeout", cfg.WaitReady.TimeoutMS, uint32(30000)},
		{"log level", cfg.Level(), slog.LevelWarn},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"device": "/dev/ttyACM3",
		"read_timeout_ms": 250,
		"wait_ready": {"max_tries": 5},
		"log_level": "DEBUG"
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Device != "/dev/ttyACM3" {
		t.Errorf("Expected device override, got %s", cfg.Device)
	}
	if sc := cfg.Serial(); sc.ReadTimeout != 250*time.Millisecond || sc.Baud != 250000 {
		t.Errorf("Unexpected serial config %+v", sc)
	}
	if cfg.WaitReady.MaxTries != 5 || cfg.WaitReady.PauseMS != 100 {
		t.Errorf("Unexpected wait-ready policy %+v", cfg.WaitReady)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.Level())
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"baud": "fast"}`)); err == nil {
		t.Error("Expected error for a non-numeric baud")
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil || cfg.Device != "/dev/ttyACM0" {
		t.Errorf("LoadFile(\"\") = %+v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "priam.json")
	if err := os.WriteFile(path, []byte(`{"baud": 115200}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Baud != 115200 {
		t.Errorf("Expected baud 115200, got %d", cfg.Baud)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
}
