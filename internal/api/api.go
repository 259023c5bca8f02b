// Package api exposes the request's flash bags over HTTP. It must be mounted
// behind httpflash.Middleware.
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/whisper/phlash/internal/flash"
	"github.com/whisper/phlash/internal/httpflash"
	"github.com/whisper/phlash/internal/metrics"
	"github.com/whisper/phlash/internal/protocol"
)

// maxBodyBytes caps flash request bodies.
const maxBodyBytes = 16 << 10

// Limiter throttles flash writes per session.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	RetryAfter(ctx context.Context, identifier string) time.Duration
}

// Handler serves GET and POST on the flash collection.
type Handler struct {
	limiter Limiter
}

// NewHandler creates a Handler. A nil limiter disables rate limiting.
func NewHandler(limiter Limiter) *Handler {
	return &Handler{limiter: limiter}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, ok := httpflash.FromContext(r.Context())
	if !ok {
		log.Printf("[api] %s %s served without flash middleware", r.Method, r.URL.Path)
		writeError(w, http.StatusInternalServerError, protocol.CodeInternal, "flash store unavailable")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, f)
	case http.MethodPost:
		h.flash(w, r, f)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, protocol.CodeInvalidRequest, "method not allowed")
	}
}

func (h *Handler) list(w http.ResponseWriter, f flash.Flasher) {
	writeJSON(w, http.StatusOK, protocol.TypeMessages, protocol.MessagesMsg{
		Messages: f.All(),
	})
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, f *flash.Store) {
	ctx := r.Context()
	sid := httpflash.SessionID(ctx)

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, sid)
		if err != nil {
			log.Printf("[api] rate limit check session=%s: %v", sid, err)
		}
		if !allowed {
			metrics.RateLimited.Inc()
			retry := int(h.limiter.RetryAfter(ctx, sid).Round(time.Second).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeJSON(w, http.StatusTooManyRequests, protocol.TypeRateLimited, protocol.RateLimitedMsg{
				RetryAfter: retry,
			})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		if errors.As(err, new(*http.MaxBytesError)) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, protocol.CodeInvalidRequest, err.Error())
		return
	}
	req, err := protocol.ParseFlashRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.CodeInvalidRequest, err.Error())
		return
	}
	value, err := req.Decoded()
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.CodeInvalidRequest, err.Error())
		return
	}

	if req.Append {
		f.Push(req.Bag, req.Key, value)
	} else {
		f.Flash(req.Bag, req.Key, value)
	}
	metrics.FlashedMessages.WithLabelValues(req.Bag.String()).Inc()

	log.Printf("[api] flash session=%s bag=%s key=%q append=%v", sid, req.Bag, req.Key, req.Append)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, msgType string, payload any) {
	out, err := protocol.NewResponse(msgType, payload)
	if err != nil {
		log.Printf("[api] encode %s response: %v", msgType, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(out)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, protocol.TypeError, protocol.ErrorMsg{Code: code, Message: message})
}
