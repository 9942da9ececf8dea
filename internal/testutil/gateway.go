package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dafibh/domo/domo-client/internal/gateway"
)

// GatewayCall is one recorded call to MockGateway
type GatewayCall struct {
	Method string
	Path   string
	Body   any
}

// DecodeBody re-encodes the recorded body into out
func (c GatewayCall) DecodeBody(out any) error {
	data, err := json.Marshal(c.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// GatewayResponse is a scripted reply
type GatewayResponse struct {
	Body []byte
	Err  error
}

// MockGateway is a mock implementation of gateway.Gateway.
// Replies come from the queue first, then HandleFn, then an empty JSON object.
type MockGateway struct {
	mu       sync.Mutex
	calls    []GatewayCall
	queue    []GatewayResponse
	HandleFn func(ctx context.Context, method, path string, body any) ([]byte, error)
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

var _ gateway.Gateway = (*MockGateway)(nil)

// Enqueue scripts the reply of the next unanswered call
func (m *MockGateway) Enqueue(body []byte, err error) *MockGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, GatewayResponse{Body: body, Err: err})
	return m
}

// EnqueueJSON scripts a successful reply encoding v
func (m *MockGateway) EnqueueJSON(v any) *MockGateway {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return m.Enqueue(data, nil)
}

// Call records the call and returns the scripted reply
func (m *MockGateway) Call(ctx context.Context, method, path string, body any) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GatewayCall{Method: method, Path: path, Body: body})
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return resp.Body, resp.Err
	}
	handle := m.HandleFn
	m.mu.Unlock()

	if handle != nil {
		return handle(ctx, method, path, body)
	}
	return []byte(`{}`), nil
}

// Calls returns a copy of the recorded calls
func (m *MockGateway) Calls() []GatewayCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GatewayCall(nil), m.calls...)
}

// CallCount returns the number of calls made
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call
func (m *MockGateway) LastCall() (GatewayCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return GatewayCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// HTTPError builds a rejection with a JSON {"error": reason} body
func HTTPError(status int, reason string) error {
	var body []byte
	if reason != "" {
		body, _ = json.Marshal(map[string]string{"error": reason})
	}
	return &gateway.HTTPError{Status: status, Body: body}
}

// NetworkError builds a transport failure
func NetworkError(timeout bool) error {
	return &gateway.NetworkError{Op: "GET", Path: "/", Timeout: timeout, Err: context.DeadlineExceeded}
}

// NoticeRecorder collects mutation notices
type NoticeRecorder[T any] struct {
	mu      sync.Mutex
	notices []T
}

// Notify records n
func (r *NoticeRecorder[T]) Notify(n T) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// All returns the recorded notices
func (r *NoticeRecorder[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.notices...)
}
