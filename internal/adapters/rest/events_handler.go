package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/presenter"
)

const keepAliveInterval = 15 * time.Second

// StreamEvents - GET /pages/listings/{sessionID}/events
// Каждое изменение состояния страницы уходит клиенту событием "view".
// Поток завершается событием "closed", когда страницу закрыли.
func (h *PageHandlers) StreamEvents(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "StreamEvents"})

	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err, "Failed to get page")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"session_id": session.ID})
	handlerLogger.Info("New client subscribing to page events", nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// канал сразу отдает текущий снимок, поэтому первым событием приходит текущий вид
	updates, unsubscribe := session.Controller.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, open := <-updates:
			if !open {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				handlerLogger.Info("Page closed, ending event stream", nil)
				return
			}
			h.sessions.Touch(session.ID)

			if err := writeViewEvent(w, presenter.BuildView(snap, session.Options.PriceBuckets)); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// строки, начинающиеся с двоеточия, браузер считает комментариями
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
			h.sessions.Touch(session.ID)

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected", nil)
			return
		}
	}
}

func writeViewEvent(w http.ResponseWriter, view presenter.ResultsView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: view\ndata: %s\n\n", view.Version, data)
	return err
}
