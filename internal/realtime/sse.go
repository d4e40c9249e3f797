package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	types "github.com/yungbote/glossary-backend/internal/domain"
)

const (
	SSEEventLog      = "log"
	SSEEventComplete = "complete"

	DefaultKeepalive = 15 * time.Second
)

// StreamEvents writes events as server-sent events until the complete event is
// written, events is closed, or the client goes away. A keepalive comment is
// written whenever no event arrived for the keepalive interval.
func (h *Hub) StreamEvents(w http.ResponseWriter, r *http.Request, events <-chan types.Event, keepalive time.Duration) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}
	idle := time.NewTimer(keepalive)
	defer idle.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("SSE client context done", "err", ctx.Err())
			return
		case <-idle.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
			idle.Reset(keepalive)
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				h.log.Warn("Failed to write SSE event", "run_id", ev.RunID, "error", err)
				return
			}
			flusher.Flush()
			if ev.Complete {
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(keepalive)
		}
	}
}

func writeEvent(w http.ResponseWriter, ev types.Event) error {
	name := SSEEventLog
	if ev.Complete {
		name = SSEEventComplete
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, raw)
	return err
}
