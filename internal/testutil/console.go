package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ConsoleCall is one request received by a FakeConsole
type ConsoleCall struct {
	Method string
	Path   string
	Query  string
	Body   []byte
	Header http.Header
}

// ConsoleResponse is a canned response for a FakeConsole path
type ConsoleResponse struct {
	Status int
	Body   any // string bodies are written verbatim, anything else as JSON
}

// FakeConsole is an httptest server standing in for the console API.
// Unregistered paths answer 404.
type FakeConsole struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    []ConsoleCall
}

// NewFakeConsole starts a FakeConsole that is closed when the test ends
func NewFakeConsole(t *testing.T) *FakeConsole {
	t.Helper()
	f := &FakeConsole{handlers: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake
func (f *FakeConsole) URL() string {
	return f.Server.URL
}

// Handle registers a handler for an exact path
func (f *FakeConsole) Handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

// HandleJSON always answers path with the given status and body
func (f *FakeConsole) HandleJSON(path string, status int, body any) {
	f.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, status, body)
	})
}

// HandleSequence answers path with each response in turn, repeating the last
func (f *FakeConsole) HandleSequence(path string, responses ...ConsoleResponse) {
	var mu sync.Mutex
	next := 0
	f.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[next]
		if next < len(responses)-1 {
			next++
		}
		mu.Unlock()
		writeBody(w, resp.Status, resp.Body)
	})
}

// Calls returns the requests received for path, or every request when path is empty
func (f *FakeConsole) Calls(path string) []ConsoleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ConsoleCall
	for _, c := range f.calls {
		if path == "" || c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how many requests were received for path
func (f *FakeConsole) CallCount(path string) int {
	return len(f.Calls(path))
}

// Paths returns the request paths in the order they were received
func (f *FakeConsole) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Path
	}
	return out
}

func (f *FakeConsole) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, ConsoleCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   body,
		Header: r.Header.Clone(),
	})
	h, ok := f.handlers[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		writeBody(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h(w, r)
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch b := body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

// DecodeBody unmarshals a recorded request body
func (c ConsoleCall) DecodeBody(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(c.Body, &out); err != nil {
		t.Fatalf("decode %s body: %v", c.Path, err)
	}
	return out
}
