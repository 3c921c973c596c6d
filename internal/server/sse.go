package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kuuzuki-ai/kuuzuki/internal/event"
)

// sseHeartbeat keeps idle connections alive through proxies.
const sseHeartbeat = 30 * time.Second

// streamEvents streams governance events (permission decisions, tool
// resolutions, alerts, circuit transitions) as server-sent events.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrCodeInvalidRequest, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan event.Event, 64)
	unsubscribe := event.SubscribeAll(func(ev event.Event) {
		select {
		case events <- ev:
		default: // drop rather than block a slow client
		}
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
