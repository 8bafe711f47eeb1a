package watchers

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

// Sentinel values standing in for "no real SSID observed".
const (
	ssidStart        = "(start)"        // before the first sample; guarantees the first value fires
	ssidDisconnected = "(disconnected)" // query worked, no association
	ssidUnknown      = "(unknown)"      // no query mechanism available
)

// NetworkWatcher polls for the wireless network association and reports every
// transition, including into and out of the sentinels. Transitions are
// bounded by the polling cadence, so no throttle key is used.
type NetworkWatcher struct {
	Base
	interval   time.Duration
	last       string
	runIwgetid func() ([]byte, error) // injectable for tests
	runNmcli   func() ([]byte, error)
}

func NewNetworkWatcher(cfg *config.Config, bus *eventbus.Bus, gate *throttle.Gate) *NetworkWatcher {
	w := &NetworkWatcher{
		Base:     Base{Cfg: cfg, Bus: bus, Gate: gate},
		interval: cfg.Interval(),
		last:     ssidStart,
	}
	w.runIwgetid = func() ([]byte, error) {
		return exec.Command("iwgetid", "--raw").Output()
	}
	w.runNmcli = func() ([]byte, error) {
		return exec.Command("nmcli", "-t", "-f", "ACTIVE,SSID", "dev", "wifi").Output()
	}
	return w
}

func (w *NetworkWatcher) Name() string { return "network" }
func (w *NetworkWatcher) Stop() error  { return nil }

func (w *NetworkWatcher) Start(ctx context.Context) error {
	slog.Info("starting network watcher", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *NetworkWatcher) check() {
	ssid := w.currentSSID()
	if ssid == w.last {
		return
	}
	w.publish(models.EventNetworkChanged, "network", "SSID → "+ssid, "")
	w.last = ssid
}

// currentSSID queries the active association, preferring iwgetid and falling
// back to NetworkManager when the wireless tools are not installed.
func (w *NetworkWatcher) currentSSID() string {
	out, err := w.runIwgetid()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		if ssid := strings.TrimSpace(string(out)); ssid != "" {
			return ssid
		}
		return ssidDisconnected
	case errors.As(err, &exitErr):
		// iwgetid exits non-zero when the interface has no association.
		return ssidDisconnected
	}

	// iwgetid is not installed; ask NetworkManager instead.
	out, err = w.runNmcli()
	if err != nil {
		return ssidUnknown
	}
	if ssid := parseNmcliActive(string(out)); ssid != "" {
		return ssid
	}
	return ssidDisconnected
}

// parseNmcliActive extracts the SSID of the active network from
// `nmcli -t -f ACTIVE,SSID dev wifi` output (lines like "yes:HomeWifi").
func parseNmcliActive(output string) string {
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
		if len(parts) == 2 && parts[0] == "yes" {
			return parts[1]
		}
	}
	return ""
}
