package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const eventKeepAlive = 15 * time.Second

// Events streams session snapshots as server-sent events. Every snapshot is
// an "state" event whose id is the session version.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	st, ok := a.session(w, r)
	if !ok {
		return
	}
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut long streams.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		a.Logger.Warn().Err(err).Msg("event stream: flushing unsupported")
		return
	}

	updates, cancel := st.Subscribe()
	defer cancel()
	keepAlive := time.NewTicker(eventKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-updates:
			if !open {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			payload, err := json.Marshal(viewOf(snap))
			if err != nil {
				a.Logger.Error().Err(err).Msg("event stream: encode snapshot")
				return
			}
			fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", snap.Version, payload)
			if err := rc.Flush(); err != nil {
				return
			}
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
