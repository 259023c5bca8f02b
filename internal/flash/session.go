package flash

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoSession is returned by New when no session map was passed and no
// ambient session could be resolved.
var ErrNoSession = errors.New("flash: no session available")

// SessionFunc resolves the session map of the active request.
type SessionFunc func() (map[string]any, error)

// The default session accessor is process-wide state. It is consulted on every
// New call that omits the session map, so it must return the map of whichever
// session is active at that moment. Hosts that serve requests concurrently
// should pass the map explicitly or use WithSession instead.
var (
	defaultMu      sync.RWMutex
	defaultSession SessionFunc
)

// SetDefaultSession installs the process-wide session accessor used by New
// when called with a nil map. Passing nil removes it.
func SetDefaultSession(fn SessionFunc) {
	defaultMu.Lock()
	defaultSession = fn
	defaultMu.Unlock()
}

// Option configures a Store at construction.
type Option func(*options)

type options struct {
	session SessionFunc
}

// WithSession sets the accessor used to resolve the session map when New is
// called with a nil map. It takes precedence over SetDefaultSession.
func WithSession(fn SessionFunc) Option {
	return func(o *options) {
		o.session = fn
	}
}

func (o *options) resolve() (map[string]any, error) {
	fn := o.session
	if fn == nil {
		defaultMu.RLock()
		fn = defaultSession
		defaultMu.RUnlock()
	}
	if fn == nil {
		return nil, ErrNoSession
	}
	data, err := fn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: accessor returned a nil map", ErrNoSession)
	}
	return data, nil
}
