package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

func wantsWatch(r *http.Request) bool {
	switch r.URL.Query().Get("watch") {
	case "1", "true":
		return true
	}
	return false
}

// streamSnapshots writes every value from ch as a server-sent "snapshot"
// event until the client goes away. ch must be bound to the request context.
func streamSnapshots[T any](w http.ResponseWriter, r *http.Request, ch <-chan T) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusNotImplemented, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(v)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
