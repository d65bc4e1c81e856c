// internal/websocket/router.go
package websocket

import (
	"encoding/json"
	"fmt"
	"sort"

	"flipbook/internal/canvas"
	"flipbook/internal/session"
)

// Handler serves one RPC method
type Handler func(params json.RawMessage) (interface{}, error)

// Router maps RPC method names to session operations
type Router struct {
	handlers map[string]Handler
}

// NewRouter registers the session methods
func NewRouter(sess *session.Session) *Router {
	r := &Router{handlers: make(map[string]Handler)}

	r.Handle("dispatch", func(params json.RawMessage) (interface{}, error) {
		action, err := canvas.DecodeAction(params)
		if err != nil {
			return nil, err
		}
		state, err := sess.Dispatch(action)
		if err != nil {
			return nil, err
		}
		return sess.Summarize(state), nil
	})

	r.Handle("state", func(json.RawMessage) (interface{}, error) {
		return sess.Snapshot(), nil
	})

	r.Handle("save", func(params json.RawMessage) (interface{}, error) {
		var p SaveParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, fmt.Errorf("decode save params: %w", err)
			}
		}
		return sess.Save(p.Description)
	})

	r.Handle("checkpoints", func(json.RawMessage) (interface{}, error) {
		return sess.Checkpoints()
	})

	return r
}

// Handle registers or replaces a method
func (r *Router) Handle(method string, h Handler) {
	r.handlers[method] = h
}

// Methods returns the registered method names, sorted
func (r *Router) Methods() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs method with the raw JSON params
func (r *Router) Call(method string, params json.RawMessage) (interface{}, error) {
	h, ok := r.handlers[method]
	if !ok {
		return nil, fmt.Errorf("method not found: %s", method)
	}
	return h(params)
}
