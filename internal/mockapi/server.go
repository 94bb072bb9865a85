// Package mockapi serves a local stand-in for the transaction enrichment
// endpoint. Responses can be scripted per transaction to reproduce rate
// limiting, server errors and dropped connections.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// Call records a request made to the mock endpoint.
type Call struct {
	TransactionID string
	Authorization string
	Payload       map[string]any
}

// Step is one scripted reply. A zero Status with an empty Body yields the
// canned success document.
type Step struct {
	Status int    `yaml:"status"`
	Body   string `yaml:"body"`
	// Drop closes the connection without writing a response.
	Drop bool `yaml:"drop"`
}

// Server implements the enrichment API surface.
type Server struct {
	mu    sync.Mutex
	calls []Call

	expectedAuthorization string

	// scripts holds the pending steps per transaction_id; the fallback
	// script applies to transactions without their own.
	scripts  map[string][]Step
	fallback []Step
}

func New() *Server {
	return &Server{scripts: make(map[string][]Step)}
}

// RequireToken enforces that requests carry "Authorization: Token <token>".
// If token is empty, authorization is not enforced.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if token == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Token " + token
}

// Script queues steps for transactionID. Each call consumes one step; once
// the queue is empty the canned success response is served.
func (s *Server) Script(transactionID string, steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[transactionID] = append(s.scripts[transactionID], steps...)
}

// ScriptDefault queues steps consumed by calls for any transaction without
// its own script.
func (s *Server) ScriptDefault(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = append(s.fallback, steps...)
}

// Apply installs a scenario's token and scripts.
func (s *Server) Apply(sc *Scenario) {
	if sc == nil {
		return
	}
	if sc.Token != "" {
		s.RequireToken(sc.Token)
	}
	for id, steps := range sc.Transactions {
		s.Script(id, steps...)
	}
	if len(sc.Default) > 0 {
		s.ScriptDefault(sc.Default...)
	}
}

// Handler returns an http.Handler that serves the mock API on every path.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleEnrich)
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor counts calls made for transactionID.
func (s *Server) CallsFor(transactionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.TransactionID == transactionID {
			n++
		}
	}
	return n
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()
	if expected != "" && r.Header.Get("Authorization") != expected {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	id, _ := payload["transaction_id"].(string)
	if strings.TrimSpace(id) == "" {
		http.Error(w, "transaction_id is required", http.StatusBadRequest)
		return
	}

	step, scripted := s.record(Call{
		TransactionID: id,
		Authorization: r.Header.Get("Authorization"),
		Payload:       payload,
	})

	if step.Drop {
		dropConnection(w)
		return
	}
	if scripted && (step.Status != 0 || step.Body != "") {
		status := step.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(step.Body))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(CannedResponse(payload))
}

// record stores the call and pops the next scripted step for it.
func (s *Server) record(c Call) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)

	if steps, ok := s.scripts[c.TransactionID]; ok && len(steps) > 0 {
		s.scripts[c.TransactionID] = steps[1:]
		return steps[0], true
	}
	if len(s.fallback) > 0 {
		step := s.fallback[0]
		s.fallback = s.fallback[1:]
		return step, true
	}
	return Step{}, false
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "connection drop unsupported", http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}
