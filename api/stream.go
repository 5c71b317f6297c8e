package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// handleDisplayStream sends the board as Server-Sent Events: one "snapshot" event,
// then a "patch" event per mutation. Patches already contained in the snapshot are
// skipped. A client that sees a gap in seq should reload the snapshot.
func (s *Server) handleDisplayStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// subscribe before the snapshot so nothing falls between them
	id, patches, cancel := s.board.Subscribe()
	defer cancel()
	elements, seq := s.board.Snapshot()

	logger := s.logger.With("subscriber", id)
	logger.Debug("display stream opened")
	defer logger.Debug("display stream closed")

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", seq, snapshotResponse{Seq: seq, Elements: elements}); err != nil {
		logger.Debug("display stream write failed", "err", err)
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case p, ok := <-patches:
			if !ok {
				return
			}
			if p.Seq <= seq {
				continue
			}
			if err := writeEvent(w, "patch", p.Seq, p); err != nil {
				logger.Debug("display stream write failed", "err", err)
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, event string, id uint64, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, body)
	return err
}
