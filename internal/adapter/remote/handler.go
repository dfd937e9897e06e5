package remote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"babyplate/internal/domain"
)

// NewHandler serves authority over HTTP. A nil verifier leaves the routes
// open.
func NewHandler(authority *Authority, verifier Verifier, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{authority: authority, logger: logger}

	r := mux.NewRouter()
	api := r.PathPrefix("/v1").Subrouter()
	if verifier != nil {
		api.Use(requireToken(verifier, logger))
	}
	api.HandleFunc("/plans", h.pull).Methods(http.MethodGet)
	api.HandleFunc("/plans", h.create).Methods(http.MethodPost)
	api.HandleFunc("/plans/{cloudID}", h.update).Methods(http.MethodPut)
	api.HandleFunc("/plans/{cloudID}", h.delete).Methods(http.MethodDelete)
	return r
}

type handler struct {
	authority *Authority
	logger    *zap.Logger
}

func (h *handler) pull(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, errorBody{Error: "invalid since"})
			return
		}
		since = &t
	}
	res, err := h.authority.Pull(r.Context(), since)
	h.reply(w, res, err)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var p domain.RemotePlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}
	p.CloudID = ""
	ack, err := h.authority.Push(r.Context(), p)
	h.reply(w, ack, err)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	var p domain.RemotePlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}
	p.CloudID = mux.Vars(r)["cloudID"]
	ack, err := h.authority.Push(r.Context(), p)
	h.reply(w, ack, err)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.URL.Query().Get("version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid version"})
		return
	}
	ack, err := h.authority.Delete(r.Context(), mux.Vars(r)["cloudID"], version)
	h.reply(w, ack, err)
}

func (h *handler) reply(w http.ResponseWriter, v any, err error) {
	var mismatch *domain.VersionMismatchError
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	case errors.As(err, &mismatch):
		remote := mismatch.Remote
		writeError(w, http.StatusConflict, errorBody{Error: err.Error(), Remote: &remote})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		h.logger.Error("authority request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func requireToken(v Verifier, logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
				return
			}
			if err := v.Verify(r.Context(), raw); err != nil {
				logger.Info("rejected token", zap.Error(err))
				writeError(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
