package signalr

import (
	"strings"
	"sync"
)

// router maps push method names to handlers. Method names are matched
// case-insensitively because the server is free to change their casing.
type router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func newRouter() *router {
	return &router{handlers: make(map[string]Handler)}
}

func (r *router) set(method string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(method)
	if handler == nil {
		delete(r.handlers, key)
		return
	}
	r.handlers[key] = handler
}

// route delivers msg and reports whether a handler took it.
func (r *router) route(msg hubMessage) bool {
	r.mu.RLock()
	handler := r.handlers[strings.ToLower(msg.Method)]
	r.mu.RUnlock()

	if handler == nil {
		return false
	}
	handler(msg.Arguments)
	return true
}
