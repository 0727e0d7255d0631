package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const streamHeartbeat = 25 * time.Second

// Stream pushes the tenant's change events as server-sent events until the
// client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		writeError(w, http.StatusServiceUnavailable, "change stream is not available")
		return
	}
	tenantID := identityOf(r).TenantID
	events, err := h.stream.Stream(r.Context(), tenantID)
	if err != nil {
		h.logger.Warn("open change stream failed", zap.String("tenant_id", tenantID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "change stream is not available")
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	_ = rc.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("encode change event failed", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}
