package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
	"github.com/heartmarshall/yomipv-lookup/pkg/ctxutil"
)

const maxBodyBytes = 1 << 20

// Acknowledgement bodies read by the mpv script.
const (
	ackOK      = "ok"
	ackHidden  = "hidden"
	ackClosing = "closing"
	ackReady   = "ready"
)

// relayService is the part of the relay the listener drives.
type relayService interface {
	Lookup(req domain.LookupRequest)
	Hide()
	Shutdown()
}

// RelayHandler serves the control listener the mpv script talks to.
// Every request is acknowledged with a fixed plain-text body; malformed
// input is swallowed.
type RelayHandler struct {
	svc relayService
	log *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc relayService, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{svc: svc, log: logger.With("handler", "relay")}
}

// Routes returns the listener's routes.
func (h *RelayHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /shutdown", h.Shutdown)
	mux.HandleFunc("POST /hide", h.Hide)
	mux.HandleFunc("POST /{$}", h.Lookup)
	mux.HandleFunc("POST /", h.Ignore)
	mux.HandleFunc("/", h.Ready)
	return mux
}

// Lookup dispatches a lookup when the body is JSON with a term.
func (h *RelayHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.ignored(r, "read body", err)
		writeText(w, ackOK)
		return
	}

	var req domain.LookupRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.ignored(r, "decode body", err)
		writeText(w, ackOK)
		return
	}
	if err := req.Validate(); err != nil {
		h.ignored(r, "validate body", err)
		writeText(w, ackOK)
		return
	}

	writeText(w, ackOK)
	h.svc.Lookup(req)
}

// Hide hides the popup.
func (h *RelayHandler) Hide(w http.ResponseWriter, _ *http.Request) {
	writeText(w, ackHidden)
	h.svc.Hide()
}

// Shutdown acknowledges, flushes the response and asks the relay to
// terminate after its grace delay.
func (h *RelayHandler) Shutdown(w http.ResponseWriter, _ *http.Request) {
	writeText(w, ackClosing)
	_ = http.NewResponseController(w).Flush()
	h.svc.Shutdown()
}

// Ignore acknowledges a POST to an unknown path without acting on it.
func (h *RelayHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("unknown command", slog.String("path", r.URL.Path))
	writeText(w, ackOK)
}

// Ready answers readiness probes.
func (h *RelayHandler) Ready(w http.ResponseWriter, _ *http.Request) {
	writeText(w, ackReady)
}

func (h *RelayHandler) ignored(r *http.Request, op string, err error) {
	h.log.Debug("malformed lookup request ignored",
		slog.String("op", op),
		slog.String("error", err.Error()),
		slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
	)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
