package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/glossary-backend/internal/domain"
	domainjobs "github.com/yungbote/glossary-backend/internal/domain/jobs"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func recvEvent(t *testing.T, ch <-chan types.Event, timeout time.Duration) types.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for event")
		}
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for run event")
	}
	return types.Event{}
}

func logEvent(runID uuid.UUID, msg string) types.Event {
	return types.Event{RunID: runID, Level: types.EventLevelInfo, Message: msg, Timestamp: time.Now().UTC()}
}

func TestHubFansOutIdenticalSequence(t *testing.T) {
	hub := NewHub(mustTestLogger(t), 16, nil)
	runID := uuid.New()

	a := hub.Subscribe(runID)
	b := hub.Subscribe(runID)

	hub.Broadcast(logEvent(runID, "one"))
	hub.Broadcast(logEvent(runID, "two"))
	hub.Broadcast(domainjobs.CompleteEvent(runID, types.RunStatusCompleted, "done"))
	hub.Close(runID)

	for name, ch := range map[string]<-chan types.Event{"a": a, "b": b} {
		var got []string
		for ev := range ch {
			got = append(got, ev.Message)
		}
		want := []string{"one", "two", "done"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("subscriber %s: want=%v got=%v", name, want, got)
		}
	}
}

func TestHubIsolatesRuns(t *testing.T) {
	hub := NewHub(mustTestLogger(t), 4, nil)
	runA, runB := uuid.New(), uuid.New()
	a := hub.Subscribe(runA)
	b := hub.Subscribe(runB)

	hub.Broadcast(logEvent(runA, "for-a"))
	if got := recvEvent(t, a, time.Second); got.Message != "for-a" {
		t.Fatalf("run A event: want=for-a got=%s", got.Message)
	}
	select {
	case ev := <-b:
		t.Fatalf("run B received foreign event %q", ev.Message)
	default:
	}
}

func TestHubDropsLogsButDeliversCompleteWhenFull(t *testing.T) {
	hub := NewHub(mustTestLogger(t), 3, nil)
	runID := uuid.New()
	ch := hub.Subscribe(runID)

	for i := 0; i < 10; i++ {
		hub.Broadcast(logEvent(runID, "log"))
	}
	if n := len(ch); n != 3 {
		t.Fatalf("buffered: want=3 got=%d", n)
	}

	hub.Broadcast(domainjobs.CompleteEvent(runID, types.RunStatusCancelled, "cancelled"))
	hub.Close(runID)

	var last types.Event
	count := 0
	for ev := range ch {
		last = ev
		count++
	}
	if count != 3 {
		t.Fatalf("delivered: want=3 got=%d", count)
	}
	if !last.Complete || last.Status != types.RunStatusCancelled {
		t.Fatalf("last event: want complete/cancelled got complete=%v status=%v", last.Complete, last.Status)
	}
}

func TestHubUnsubscribeAfterClose(t *testing.T) {
	hub := NewHub(mustTestLogger(t), 2, nil)
	runID := uuid.New()
	ch := hub.Subscribe(runID)
	other := hub.Subscribe(runID)

	hub.Unsubscribe(runID, other)
	if _, ok := <-other; ok {
		t.Fatalf("unsubscribed channel should be closed")
	}
	if got := hub.SubscriberCount(runID); got != 1 {
		t.Fatalf("SubscriberCount: want=1 got=%d", got)
	}

	hub.Close(runID)
	hub.Unsubscribe(runID, ch)
	hub.Unsubscribe(runID, ch)
	if got := hub.SubscriberCount(runID); got != 0 {
		t.Fatalf("SubscriberCount after close: want=0 got=%d", got)
	}
	// Broadcasting to a released run is a no-op.
	hub.Broadcast(logEvent(runID, "late"))
}

type recordingMirror struct {
	mu     sync.Mutex
	events []types.Event
}

func (m *recordingMirror) Publish(_ context.Context, ev types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func TestHubMirrorsEvents(t *testing.T) {
	mirror := &recordingMirror{}
	hub := NewHub(mustTestLogger(t), 2, mirror)
	runID := uuid.New()

	hub.Broadcast(logEvent(runID, "no subscribers"))
	hub.Broadcast(domainjobs.CompleteEvent(runID, types.RunStatusCompleted, "done"))

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	if len(mirror.events) != 2 {
		t.Fatalf("mirrored: want=2 got=%d", len(mirror.events))
	}
}

func TestStreamEventsWritesNamedEvents(t *testing.T) {
	hub := NewHub(mustTestLogger(t), 4, nil)
	runID := uuid.New()
	events := make(chan types.Event, 3)
	events <- logEvent(runID, "extracting")
	events <- domainjobs.CompleteEvent(runID, types.RunStatusCompleted, "done")
	events <- logEvent(runID, "never written")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/events", nil)
	hub.StreamEvents(rec, req, events, time.Minute)

	body := rec.Body.String()
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: want=text/event-stream got=%s", ct)
	}
	if !strings.Contains(body, "event: log\ndata: ") {
		t.Fatalf("missing log event in body: %q", body)
	}
	if !strings.Contains(body, "event: complete\ndata: ") {
		t.Fatalf("missing complete event in body: %q", body)
	}
	if strings.Contains(body, "never written") {
		t.Fatalf("stream continued past complete event")
	}
}

func TestStreamEventsKeepalive(t *testing.T) {
	hub := NewHub(mustTestLogger(t), 4, nil)
	events := make(chan types.Event)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	hub.StreamEvents(rec, req, events, 20*time.Millisecond)

	if !strings.Contains(rec.Body.String(), ": keepalive\n\n") {
		t.Fatalf("expected keepalive comment, got %q", rec.Body.String())
	}
}
