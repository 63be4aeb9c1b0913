package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

// Per-client rate limiting.
const (
	rateLimitRequests = 120
	rateLimitBurst    = 30
	rateLimitWindow   = time.Minute

	// Limiters idle this long are dropped on the next sweep.
	limiterIdleTTL = 10 * time.Minute
)

const (
	transportHTTP = "http"

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	maxBodyBytes = 64 << 20

	logFieldOperation = "operation"
	logFieldClient    = "client"
)

// Handler serves the operation table under /v1/.
type Handler struct {
	svc    Service
	logger *zerolog.Logger
	mux    *http.ServeMux

	limiters   map[string]*clientLimiter
	limitersMu sync.Mutex
	lastSweep  time.Time
	now        func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the HTTP handler. The health operation is served by the
// observability server and is not routed here.
func NewHandler(svc Service, logger *zerolog.Logger) *Handler {
	h := &Handler{
		svc:      svc,
		logger:   logger,
		mux:      http.NewServeMux(),
		limiters: make(map[string]*clientLimiter),
		now:      time.Now,
	}

	for op, r := range operations {
		if op == OpHealth {
			continue
		}

		h.mux.HandleFunc(r.method+" "+r.path, h.serveOperation(op))
	}

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client := clientIP(r)
	if !h.allowRequest(client) {
		h.logger.Warn().Str(logFieldClient, client).Msg("rate limit exceeded")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})

		return
	}

	h.mux.ServeHTTP(w, r)
}

func (h *Handler) serveOperation(op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var args json.RawMessage

		if r.Method == http.MethodPost {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				h.fail(w, op, http.StatusBadRequest, err)
				return
			}

			args = body
		}

		result, err := Dispatch(r.Context(), h.svc, op, args)
		if err != nil {
			h.fail(w, op, statusFor(err), err)
			return
		}

		observability.OperationRequests.WithLabelValues(transportHTTP, string(op), "ok").Inc()
		writeJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) fail(w http.ResponseWriter, op Operation, code int, err error) {
	observability.OperationRequests.WithLabelValues(transportHTTP, string(op), "error").Inc()
	h.logger.Warn().Err(err).Str(logFieldOperation, string(op)).Msg("operation failed")
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func (h *Handler) allowRequest(client string) bool {
	now := h.now()

	h.limitersMu.Lock()

	if now.Sub(h.lastSweep) >= limiterIdleTTL {
		h.sweepLimiters(now)
	}

	cl, ok := h.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitRequests), rateLimitBurst)}
		h.limiters[client] = cl
	}

	cl.lastSeen = now

	h.limitersMu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// sweepLimiters drops limiters idle for limiterIdleTTL. Callers hold limitersMu.
func (h *Handler) sweepLimiters(now time.Time) {
	for client, cl := range h.limiters {
		if now.Sub(cl.lastSeen) >= limiterIdleTTL {
			delete(h.limiters, client)
		}
	}

	h.lastSweep = now
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scorerrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, scorerrors.ErrUnknownOperation):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
