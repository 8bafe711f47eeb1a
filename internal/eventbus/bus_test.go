package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/awylder/deskwatch/pkg/models"
)

func TestPublish_DeliversToSubscriber(t *testing.T) {
	bus := New()
	received := make(chan models.Event, 1)

	bus.Subscribe(func(e models.Event) {
		received <- e
	})

	want := models.Event{
		ID:       "ev-1",
		Type:     models.EventFocusChanged,
		Severity: models.SeverityInfo,
		Hostname: "desk",
		Message:  "Focus → Firefox",
		Source:   "focus",
	}
	bus.Publish(want)

	select {
	case got := <-received:
		if got.ID != want.ID || got.Type != want.Type || got.Severity != want.Severity ||
			got.Hostname != want.Hostname || got.Message != want.Message || got.Source != want.Source {
			t.Errorf("event mismatch:\ngot  %+v\nwant %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublish_AllSubscribersReceive(t *testing.T) {
	bus := New()
	var count atomic.Int32

	for i := 0; i < 3; i++ {
		bus.Subscribe(func(e models.Event) {
			count.Add(1)
		})
	}

	bus.Publish(models.Event{ID: "multi"})

	deadline := time.After(time.Second)
	for count.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d/3 subscribers received the event", count.Load())
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestPublish_SubscribersRunInRegistrationOrder(t *testing.T) {
	bus := New()
	order := make(chan string, 2)

	bus.Subscribe(func(e models.Event) { order <- "store" })
	bus.Subscribe(func(e models.Event) { order <- "notify" })

	bus.Publish(models.Event{ID: "ordered"})

	for _, want := range []string{"store", "notify"} {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("subscriber ran out of order: got %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for subscribers")
		}
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	bus := New()
	// Must be a no-op, not a panic.
	bus.Publish(models.Event{ID: "no-subs"})
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := New()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe(func(e models.Event) {})
			bus.Publish(models.Event{ID: "concurrent"})
		}()
	}

	wg.Wait()
}
