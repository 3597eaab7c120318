// Package gatewaytest provides an in-memory gateway.Gateway that records
// every call, for store and service tests.
package gatewaytest

import (
	"context"
	"encoding/json"
	"sync"
)

// Call is one recorded invocation. Params holds the JSON-decoded params
// object, so numbers are float64 and []byte values are base64 strings.
type Call struct {
	Command string
	Params  map[string]any
}

// HandlerFunc answers a command. The returned value is JSON-encoded into the
// caller's out argument.
type HandlerFunc func(params map[string]any) (any, error)

type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]HandlerFunc
}

func New() *Recorder {
	return &Recorder{handlers: map[string]HandlerFunc{}}
}

// On registers the handler for command. Unregistered commands succeed with
// a null result.
func (r *Recorder) On(command string, h HandlerFunc) *Recorder {
	r.mu.Lock()
	r.handlers[command] = h
	r.mu.Unlock()
	return r
}

// Return is shorthand for a handler that always returns result, err.
func (r *Recorder) Return(command string, result any, err error) *Recorder {
	return r.On(command, func(map[string]any) (any, error) { return result, err })
}

func (r *Recorder) Call(ctx context.Context, command string, params any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	decoded := map[string]any{}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(b, &decoded); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.calls = append(r.calls, Call{Command: command, Params: decoded})
	h := r.handlers[command]
	r.mu.Unlock()

	if h == nil {
		return nil
	}
	result, err := h(decoded)
	if err != nil {
		return err
	}
	if out == nil || result == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Calls returns a copy of all recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf returns recorded calls for one command, in order.
func (r *Recorder) CallsOf(command string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Command == command {
			out = append(out, c)
		}
	}
	return out
}

// Commands returns the recorded command names in call order.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.Command)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
