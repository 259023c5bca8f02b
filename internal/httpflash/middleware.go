// Package httpflash binds a flash store to every HTTP request. The middleware
// resolves the visitor's session from a cookie, builds a flash.Store over the
// session data (rotating its bags), runs the handler, then saves the session.
package httpflash

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/whisper/phlash/internal/flash"
	"github.com/whisper/phlash/internal/metrics"
	"github.com/whisper/phlash/internal/session"
)

// Config holds the session cookie settings.
type Config struct {
	CookieName  string        // name of the session ID cookie
	CookiePath  string        // cookie path scope
	Secure      bool          // send the cookie over HTTPS only
	MaxAge      time.Duration // cookie lifetime; should match the store TTL
	SaveTimeout time.Duration // deadline for saving the session after the handler
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:  "flash_session",
		CookiePath:  "/",
		Secure:      false,
		MaxAge:      session.DefaultTTL,
		SaveTimeout: 3 * time.Second,
	}
}

type contextKey int

const (
	flashKey contextKey = iota
	sessionIDKey
)

// Middleware wraps handlers with per-request flash stores.
type Middleware struct {
	store  session.Store
	config Config
}

// New creates a Middleware persisting sessions in store.
func New(store session.Store, config Config) *Middleware {
	return &Middleware{store: store, config: config}
}

// Handler returns next wrapped so that FromContext works inside it.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, data, err := m.load(ctx, r)
		if err != nil {
			log.Printf("[httpflash] load session=%s: %v", id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		f, err := flash.New(data)
		if err != nil {
			// data is never nil here, so this cannot happen.
			log.Printf("[httpflash] bind flash session=%s: %v", id, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		metrics.Rotations.Inc()
		metrics.PromotedMessages.Add(float64(f.Len()))

		http.SetCookie(w, m.cookie(id))

		ctx = context.WithValue(ctx, flashKey, f)
		ctx = context.WithValue(ctx, sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))

		// The response may already be on the wire; a failed save can only be
		// logged.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.SaveTimeout)
		defer cancel()
		if err := m.store.Save(saveCtx, id, data); err != nil {
			log.Printf("[httpflash] save session=%s: %v", id, err)
		}
	})
}

// load returns the session named by the request cookie, or a fresh empty one
// if the cookie is missing, malformed, or refers to an expired session.
func (m *Middleware) load(ctx context.Context, r *http.Request) (string, map[string]any, error) {
	c, err := r.Cookie(m.config.CookieName)
	if err != nil || !session.ValidID(c.Value) {
		return session.NewID(), map[string]any{}, nil
	}

	data, err := m.store.Load(ctx, c.Value)
	if errors.Is(err, session.ErrNotFound) {
		return session.NewID(), map[string]any{}, nil
	}
	if err != nil {
		return c.Value, nil, err
	}
	return c.Value, data, nil
}

func (m *Middleware) cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     m.config.CookieName,
		Value:    id,
		Path:     m.config.CookiePath,
		MaxAge:   int(m.config.MaxAge.Seconds()),
		Secure:   m.config.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromContext returns the flash store bound to the request.
func FromContext(ctx context.Context) (*flash.Store, bool) {
	f, ok := ctx.Value(flashKey).(*flash.Store)
	return f, ok
}

// SessionID returns the session ID of the request.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
