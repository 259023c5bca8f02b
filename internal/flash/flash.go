package flash

import "maps"

// RootKey is the session key under which the flash bags are stored.
const RootKey = "Phlash"

// Flasher is the request-facing side of a flash store.
type Flasher interface {
	FlashNow(key string, value any)
	FlashLater(key string, value any)
	Get(key string) any
	All() map[string]any
	Has(key string) bool
}

// Store is a flash message store bound to one session map. It holds a live
// reference into that map, so every write is visible to the session
// immediately and nothing needs to be copied back.
//
// A Store is not safe for concurrent use. Exactly one Store should be active
// per session map at a time.
type Store struct {
	ns map[string]any
}

var _ Flasher = (*Store)(nil)

// New binds a Store to session and rotates its bags: the "later" bag of the
// previous Store becomes "now", and "later" starts out empty. Any previous
// "now" bag is dropped.
//
// The namespace under RootKey and the bags inside it must be
// map[string]any, which is what JSON-decoded sessions hold. Any other type,
// including other map types such as map[string]string, is discarded with a
// warning.
//
// A nil session means the ambient session is used, resolved through
// WithSession or SetDefaultSession. ErrNoSession is returned if that fails;
// no other error is possible.
func New(session map[string]any, opts ...Option) (*Store, error) {
	if session == nil {
		o := &options{}
		for _, apply := range opts {
			apply(o)
		}
		var err error
		if session, err = o.resolve(); err != nil {
			return nil, err
		}
	}

	ns, ok := session[RootKey].(map[string]any)
	if !ok {
		if v := session[RootKey]; v != nil {
			warnf("discarding %T stored under %q", v, RootKey)
		}
		ns = make(map[string]any)
		session[RootKey] = ns
	}

	now, ok := ns[laterKey].(map[string]any)
	if !ok {
		if v := ns[laterKey]; v != nil {
			warnf("discarding %T stored in the %s bag", v, Later)
		}
		now = make(map[string]any)
	}
	ns[nowKey] = now
	ns[laterKey] = make(map[string]any)

	return &Store{ns: ns}, nil
}

// bag returns the live map for b, repairing it if something other than a map
// was put in its place since construction.
func (s *Store) bag(b Bag) map[string]any {
	m, ok := s.ns[b.String()].(map[string]any)
	if !ok {
		m = make(map[string]any)
		s.ns[b.String()] = m
	}
	return m
}

// Flash stores value under key in bag b, replacing any previous value.
func (s *Store) Flash(b Bag, key string, value any) {
	if !b.valid() {
		warnf("ignoring flash of %q into %s", key, b)
		return
	}
	s.bag(b)[key] = value
}

// FlashNow stores value for the current request.
func (s *Store) FlashNow(key string, value any) {
	s.Flash(Now, key, value)
}

// FlashLater stores value for the next request.
func (s *Store) FlashLater(key string, value any) {
	s.Flash(Later, key, value)
}

// Push appends message to the list under key in bag b. A missing key or a
// value that is not a list starts a new list.
func (s *Store) Push(b Bag, key string, message any) {
	if !b.valid() {
		warnf("ignoring push of %q into %s", key, b)
		return
	}
	m := s.bag(b)
	list, _ := m[key].([]any)
	m[key] = append(list, message)
}

// Get returns the value stored under key for the current request, or nil if
// there is none. A stored nil looks the same as a missing key; use Has or
// Lookup to tell them apart.
func (s *Store) Get(key string) any {
	return s.bag(Now)[key]
}

// Lookup returns the value stored under key for the current request and
// whether the key is present.
func (s *Store) Lookup(key string) (any, bool) {
	v, ok := s.bag(Now)[key]
	return v, ok
}

// Has reports whether key is present for the current request.
func (s *Store) Has(key string) bool {
	_, ok := s.bag(Now)[key]
	return ok
}

// Messages returns the list under key for the current request, or nil if the
// key is missing or does not hold a list.
func (s *Store) Messages(key string) []any {
	list, _ := s.bag(Now)[key].([]any)
	return list
}

// All returns a copy of everything visible to the current request. The copy
// is shallow: nested maps and slices are shared with the session.
func (s *Store) All() map[string]any {
	return maps.Clone(s.bag(Now))
}

// Len returns the number of keys visible to the current request.
func (s *Store) Len() int {
	return len(s.bag(Now))
}
