package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestAsyncEventBus_DeliversQueuedEvents(t *testing.T) {
	bus := NewAsyncEventBus(2)
	bus.Start()
	defer bus.Stop()

	var (
		mu    sync.Mutex
		names []string
	)
	if err := bus.Subscribe(EventArtifactCreated, func(data ArtifactEventData) {
		mu.Lock()
		names = append(names, data.Name)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	for _, name := range []string{"a.html", "b.html", "c.html"} {
		bus.PublishAsync(EventArtifactCreated, ArtifactEventData{Name: name})
	}
	bus.WaitAsync()

	mu.Lock()
	defer mu.Unlock()
	if len(names) != 3 {
		t.Fatalf("expected 3 deliveries, got %v", names)
	}
}

func TestAsyncEventBus_PublishIsInline(t *testing.T) {
	bus := NewAsyncEventBus(1)

	var got UploadEventData
	if err := bus.Subscribe(EventUploadRemoved, func(data UploadEventData) { got = data }); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	bus.Publish(EventUploadRemoved, UploadEventData{Path: "/tmp/x.jpg"})

	if got.Path != "/tmp/x.jpg" {
		t.Fatalf("expected inline delivery, got %+v", got)
	}
	if !bus.HasCallback(EventUploadRemoved) {
		t.Fatalf("expected callback registered")
	}
}

func TestAsyncEventBus_DropsAfterStop(t *testing.T) {
	bus := NewAsyncEventBus(1)
	bus.Start()
	bus.Stop()
	// second stop is safe
	bus.Stop()

	bus.PublishAsync(EventArtifactExpired, ArtifactEventData{Name: "late.html"})
	if bus.Dropped() != 1 {
		t.Fatalf("expected 1 dropped event, got %d", bus.Dropped())
	}
	bus.WaitAsync()
}

func TestAsyncEventBus_RecoversSubscriberPanic(t *testing.T) {
	bus := NewAsyncEventBus(1)
	var panics atomic.Int32
	bus.OnPanic(func(topic string, _ any) {
		if topic == EventCapabilityError {
			panics.Add(1)
		}
	})
	bus.Start()
	defer bus.Stop()

	if err := bus.Subscribe(EventCapabilityError, func(CapabilityEventData) { panic("boom") }); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	bus.PublishAsync(EventCapabilityError, CapabilityEventData{Component: "genai"})
	bus.WaitAsync()

	if panics.Load() != 1 {
		t.Fatalf("expected panic hook to fire once, got %d", panics.Load())
	}
}
