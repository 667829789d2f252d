// Package httptransport is the thin HTTP layer. It decodes the body,
// delegates to the scoring service, and writes the response envelope;
// business logic stays out of this package.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scoring/internal/platform/middleware"
	"scoring/internal/scoring"
)

// reasonPhrases are the error strings clients see; payload details for
// failed requests stay in the logs.
var reasonPhrases = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusUnprocessableEntity: "Invalid Request",
	http.StatusInternalServerError: "Internal Server Error",
}

// Handler wires the method-dispatch service to HTTP.
type Handler struct {
	svc    *scoring.Service
	logger *slog.Logger
}

func NewHandler(svc *scoring.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// NewRouter wires all endpoints: the two method routes, a liveness ping,
// and the metrics endpoint. Unknown paths get the 404 envelope.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))

	r.Get("/", h.handlePing)
	r.Post("/score", h.handleMethod(scoring.MethodScore))
	r.Post("/interests", h.handleMethod(scoring.MethodInterests))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, nil, http.StatusNotFound)
	})
	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// handleMethod decodes the JSON body and runs one named method. The request
// context map accumulates per-request diagnostics and is logged alongside
// the outcome.
func (h *Handler) handleMethod(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetRequestID(ctx)

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.logger.WarnContext(ctx, "malformed request body",
				"request_id", requestID,
				"method", method,
				"error", err.Error(),
			)
			writeEnvelope(w, nil, http.StatusBadRequest)
			return
		}

		reqCtx := map[string]any{"request_id": requestID}
		response, code := h.svc.Handle(ctx, method, body, reqCtx)

		h.logger.InfoContext(ctx, "method handled",
			"request_id", requestID,
			"method", method,
			"code", code,
			"context", reqCtx,
		)
		writeEnvelope(w, response, code)
	}
}

// writeEnvelope writes the response envelope: {"response": ..., "code": N}
// on success, {"error": reason, "code": N} otherwise.
func writeEnvelope(w http.ResponseWriter, response any, code int) {
	payload := map[string]any{"code": code}
	if reason, failed := reasonPhrases[code]; failed {
		payload["error"] = reason
	} else {
		payload["response"] = response
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
