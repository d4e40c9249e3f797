package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/glossary-backend/internal/domain"
	"github.com/yungbote/glossary-backend/internal/platform/logger"
)

const DefaultBuffer = 100

// Mirror receives a copy of every broadcast event. Implementations must not block.
type Mirror interface {
	Publish(ctx context.Context, ev types.Event) error
}

// Hub fans run events out to every subscriber of that run. Each subscriber owns
// a bounded channel; log events are dropped for a full subscriber, the complete
// event evicts the oldest buffered event until it fits.
type Hub struct {
	mu     sync.Mutex
	log    *logger.Logger
	buffer int
	mirror Mirror
	subs   map[uuid.UUID]map[<-chan types.Event]chan types.Event
}

func NewHub(log *logger.Logger, buffer int, mirror Mirror) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		log:    log.With("component", "RunEventHub"),
		buffer: buffer,
		mirror: mirror,
		subs:   make(map[uuid.UUID]map[<-chan types.Event]chan types.Event),
	}
}

// Subscribe returns a channel receiving every event broadcast for runID from now on.
// The channel is closed after the run's complete event, or by Unsubscribe.
func (h *Hub) Subscribe(runID uuid.UUID) <-chan types.Event {
	ch := make(chan types.Event, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[runID]
	if !ok {
		set = make(map[<-chan types.Event]chan types.Event)
		h.subs[runID] = set
	}
	set[ch] = ch
	h.log.Debug("Run subscriber added", "run_id", runID, "subscribers", len(set))
	return ch
}

// Unsubscribe is a no-op when the channel was already released by Close.
func (h *Hub) Unsubscribe(runID uuid.UUID, ch <-chan types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[runID]
	if !ok {
		return
	}
	send, ok := set[ch]
	if !ok {
		return
	}
	delete(set, ch)
	close(send)
	if len(set) == 0 {
		delete(h.subs, runID)
	}
	h.log.Debug("Run subscriber removed", "run_id", runID)
}

func (h *Hub) Broadcast(ev types.Event) {
	h.mu.Lock()
	for _, ch := range h.subs[ev.RunID] {
		if ev.Complete {
			if dropped := deliverEvicting(ch, ev); dropped > 0 {
				h.log.Debug("Evicted buffered events for complete", "run_id", ev.RunID, "dropped", dropped)
			}
			continue
		}
		select {
		case ch <- ev:
		default:
			h.log.Debug("Dropping run event; subscriber buffer full", "run_id", ev.RunID)
		}
	}
	h.mu.Unlock()

	if h.mirror != nil {
		if err := h.mirror.Publish(context.Background(), ev); err != nil {
			h.log.Debug("Run event mirror skipped", "run_id", ev.RunID, "error", err)
		}
	}
}

// Close releases every subscriber of runID. Call after the complete event.
func (h *Hub) Close(runID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[runID] {
		close(ch)
	}
	delete(h.subs, runID)
}

func (h *Hub) SubscriberCount(runID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[runID])
}

// deliverEvicting discards the oldest buffered events until ev fits. The caller
// holds the hub lock, so no other producer can refill the buffer meanwhile.
func deliverEvicting(ch chan types.Event, ev types.Event) int {
	dropped := 0
	for {
		select {
		case ch <- ev:
			return dropped
		default:
		}
		select {
		case <-ch:
			dropped++
		default:
		}
	}
}
