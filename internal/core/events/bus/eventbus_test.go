package bus

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type testObserver struct {
	mu             sync.Mutex
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.mu.Lock()
	o.publishCount++
	o.mu.Unlock()
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.mu.Lock()
	o.deliveredCount += handlers
	o.lastErr = err
	o.mu.Unlock()
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	_, err := b.Subscribe("env.reset", func(e Event) error {
		got = e
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("env.reset", "env-1", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got == nil || got.Data() != 123 || got.Source() != "env-1" {
		t.Fatalf("handler saw %#v", got)
	}
}

func TestPublishIgnoresOtherTypes(t *testing.T) {
	b := New()
	calls := 0
	_, _ = b.Subscribe("env.step", func(Event) error { calls++; return nil })
	_ = b.Publish(NewEvent("env.reset", "src", nil))
	if calls != 0 {
		t.Fatalf("handler called for foreign type")
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	if _, err := New().Subscribe("x", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, _ := b.Subscribe("x", func(Event) error { calls++; return nil })
	_ = b.Publish(NewEvent("x", "src", nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = sub.Cancel()
	_ = b.Publish(NewEvent("x", "src", nil))
	if calls != 1 || sub.IsActive() {
		t.Fatalf("calls=%d active=%v", calls, sub.IsActive())
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestPublishAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	_, err := b.Subscribe("x", func(e Event) error { return handlerErr })
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	select {
	case e := <-b.PublishAsync(NewEvent("x", "src", nil)):
		if !errors.Is(e, handlerErr) {
			t.Fatalf("expected handler error, got %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("async publish did not complete")
	}
}

func TestPublishBatchJoinsErrors(t *testing.T) {
	b := New()
	e1, e2 := errors.New("one"), errors.New("two")
	_, _ = b.Subscribe("a", func(Event) error { return e1 })
	_, _ = b.Subscribe("b", func(Event) error { return e2 })
	err := b.PublishBatch(NewEvent("a", "s", nil), NewEvent("b", "s", nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestFiltersDrop(t *testing.T) {
	b := New()
	calls := 0
	_, _ = b.Subscribe("x", func(Event) error { calls++; return nil })
	obs := &testObserver{}
	b.AddObserver(obs)
	reject := func(Event) bool { return false }
	if err := b.PublishWithFilters(NewEvent("x", "s", nil), reject); err != nil {
		t.Fatalf("filtered publish: %v", err)
	}
	if calls != 0 || b.GetMetrics().DroppedByFilters != 1 {
		t.Fatalf("calls=%d metrics=%+v", calls, b.GetMetrics())
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	if m := b.GetMetrics(); m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.GetMetrics()
	if m.Published != 1 || m.DeliveredHandlers != 1 || m.SubscribersActive != 1 {
		t.Fatalf("metrics should update with observer: %+v", m)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 {
		t.Fatalf("observer not called: %+v", obs)
	}

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	if obs.publishCount != 1 {
		t.Fatalf("removed observer still notified")
	}
}
