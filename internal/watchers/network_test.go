package watchers

import (
	"fmt"
	"os/exec"
	"testing"
)

// ── parseNmcliActive ─────────────────────────────────────────────────────────

func TestParseNmcliActive_Empty(t *testing.T) {
	if got := parseNmcliActive(""); got != "" {
		t.Errorf("expected empty SSID, got %q", got)
	}
}

func TestParseNmcliActive_PicksActiveRow(t *testing.T) {
	input := `no:CafeWifi
yes:HomeWifi
no:Neighbour`
	if got := parseNmcliActive(input); got != "HomeWifi" {
		t.Errorf("SSID = %q, want HomeWifi", got)
	}
}

func TestParseNmcliActive_NoActiveRow(t *testing.T) {
	input := `no:CafeWifi
no:Neighbour`
	if got := parseNmcliActive(input); got != "" {
		t.Errorf("expected empty SSID, got %q", got)
	}
}

func TestParseNmcliActive_SSIDWithColon(t *testing.T) {
	// nmcli terse output separates fields on the first colon only.
	input := `yes:guest:floor2`
	if got := parseNmcliActive(input); got != "guest:floor2" {
		t.Errorf("SSID = %q, want guest:floor2", got)
	}
}

// ── currentSSID ──────────────────────────────────────────────────────────────

func TestCurrentSSID_Associated(t *testing.T) {
	base, _ := testBase(t)
	w := &NetworkWatcher{Base: base, last: ssidStart}
	w.runIwgetid = func() ([]byte, error) { return []byte("HomeWifi\n"), nil }

	if got := w.currentSSID(); got != "HomeWifi" {
		t.Errorf("ssid = %q", got)
	}
}

func TestCurrentSSID_NoAssociation(t *testing.T) {
	base, _ := testBase(t)
	w := &NetworkWatcher{Base: base, last: ssidStart}
	// iwgetid exits non-zero with no output when not associated.
	w.runIwgetid = func() ([]byte, error) { return nil, &exec.ExitError{} }

	if got := w.currentSSID(); got != ssidDisconnected {
		t.Errorf("ssid = %q, want %q", got, ssidDisconnected)
	}
}

func TestCurrentSSID_FallsBackToNmcli(t *testing.T) {
	base, _ := testBase(t)
	w := &NetworkWatcher{Base: base, last: ssidStart}
	w.runIwgetid = func() ([]byte, error) {
		return nil, fmt.Errorf("iwgetid: %w", exec.ErrNotFound)
	}
	w.runNmcli = func() ([]byte, error) { return []byte("yes:CafeWifi\n"), nil }

	if got := w.currentSSID(); got != "CafeWifi" {
		t.Errorf("ssid = %q, want CafeWifi", got)
	}
}

func TestCurrentSSID_NoMechanismAvailable(t *testing.T) {
	base, _ := testBase(t)
	w := &NetworkWatcher{Base: base, last: ssidStart}
	w.runIwgetid = func() ([]byte, error) {
		return nil, fmt.Errorf("iwgetid: %w", exec.ErrNotFound)
	}
	w.runNmcli = func() ([]byte, error) {
		return nil, fmt.Errorf("nmcli: %w", exec.ErrNotFound)
	}

	if got := w.currentSSID(); got != ssidUnknown {
		t.Errorf("ssid = %q, want %q", got, ssidUnknown)
	}
}

// ── transition detection ─────────────────────────────────────────────────────

func TestNetworkCheck_TransitionSequence(t *testing.T) {
	base, ch := testBase(t)
	w := &NetworkWatcher{Base: base, last: ssidStart}

	// HomeWifi, HomeWifi, (disconnected), CafeWifi → exactly 3 transitions.
	samples := []struct {
		out  []byte
		err  error
		want string // expected message, empty when no transition
	}{
		{[]byte("HomeWifi\n"), nil, "SSID → HomeWifi"},
		{[]byte("HomeWifi\n"), nil, ""},
		{nil, &exec.ExitError{}, "SSID → (disconnected)"},
		{[]byte("CafeWifi\n"), nil, "SSID → CafeWifi"},
	}
	i := 0
	w.runIwgetid = func() ([]byte, error) {
		s := samples[i]
		i++
		return s.out, s.err
	}

	for _, s := range samples {
		w.check()
		if s.want == "" {
			expectNoEvents(t, ch)
			continue
		}
		events := collectEvents(t, ch, 1)
		if events[0].Message != s.want {
			t.Errorf("message = %q, want %q", events[0].Message, s.want)
		}
	}
	expectNoEvents(t, ch)
}

func TestNetworkCheck_FirstObservationAlwaysFires(t *testing.T) {
	base, ch := testBase(t)
	w := &NetworkWatcher{Base: base, last: ssidStart}
	// Even a sentinel first value differs from "(start)" and must report.
	w.runIwgetid = func() ([]byte, error) { return nil, &exec.ExitError{} }

	w.check()

	events := collectEvents(t, ch, 1)
	if events[0].Message != "SSID → (disconnected)" {
		t.Errorf("message = %q", events[0].Message)
	}
}
