package watchers

import (
	"testing"
	"time"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/internal/eventbus"
	"github.com/awylder/deskwatch/internal/throttle"
	"github.com/awylder/deskwatch/pkg/models"
)

// testBase wires a Base to a bus that funnels every published event into the
// returned channel.
func testBase(t *testing.T) (Base, chan models.Event) {
	t.Helper()
	bus := eventbus.New()
	ch := make(chan models.Event, 64)
	bus.Subscribe(func(e models.Event) { ch <- e })

	cfg := config.DefaultConfig()
	cfg.Telegram = config.TelegramConfig{BotToken: "t", ChatID: "c"}
	return Base{Cfg: cfg, Bus: bus, Gate: throttle.NewGate()}, ch
}

// collectEvents receives exactly n events, failing the test on timeout.
// Bus dispatch is asynchronous, so arrival order within one tick is not
// guaranteed.
func collectEvents(t *testing.T, ch chan models.Event, n int) []models.Event {
	t.Helper()
	events := make([]models.Event, 0, n)
	for len(events) < n {
		select {
		case e := <-ch:
			events = append(events, e)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d/%d events", len(events), n)
		}
	}
	return events
}

// expectNoEvents asserts that nothing arrives within a short settle window.
func expectNoEvents(t *testing.T, ch chan models.Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func messagesOf(events []models.Event) map[string]bool {
	msgs := make(map[string]bool, len(events))
	for _, e := range events {
		msgs[e.Message] = true
	}
	return msgs
}
