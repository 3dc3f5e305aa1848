package model

import (
	"testing"
	"time"
)

func TestNewTimeResponse(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2024, 1, 15, 13, 30, 0, 0, loc)

	resp := NewTimeResponse(now, "Текущее время: 15.01.2024 13:30:00")

	if resp.UnixTime != now.Unix() {
		t.Errorf("UnixTime = %d, want %d", resp.UnixTime, now.Unix())
	}
	if resp.Timezone != "MSK" {
		t.Errorf("Timezone = %s, want MSK", resp.Timezone)
	}
	if resp.CurrentTime != now.Format(time.RFC3339Nano) {
		t.Errorf("CurrentTime = %s, want %s", resp.CurrentTime, now.Format(time.RFC3339Nano))
	}
	if resp.Localized != "Текущее время: 15.01.2024 13:30:00" {
		t.Errorf("Localized = %s, unexpected value", resp.Localized)
	}
}

func TestNewServiceInfo(t *testing.T) {
	info := NewServiceInfo()

	if info.Service != "mcptime" {
		t.Errorf("Service = %s, want mcptime", info.Service)
	}
	if info.Version == "" {
		t.Error("Version is empty")
	}

	for _, key := range []string{"time", "invocations", "health", "mcp", "metrics"} {
		if _, ok := info.Endpoints[key]; !ok {
			t.Errorf("Endpoints missing %q", key)
		}
	}
}
