package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// State is a pipeline request's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StatePublishing
	StateExtracting
	StateNormalizing
	StateWriting
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateValidating:  "validating",
	StatePublishing:  "publishing",
	StateExtracting:  "extracting",
	StateNormalizing: "normalizing",
	StateWriting:     "writing",
	StateCompleted:   "completed",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions may occur.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// next encodes the single legal forward transition out of each state.
// StateFailed is additionally reachable from every non-terminal state.
var next = map[State]State{
	StateIdle:        StateValidating,
	StateValidating:  StatePublishing,
	StatePublishing:  StateExtracting,
	StateExtracting:  StateNormalizing,
	StateNormalizing: StateWriting,
	StateWriting:     StateCompleted,
}

func allowedTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[from] == to
}

// ErrConcurrentRequest rejects a photo event whose sender already has a
// non-terminal request in flight.
var ErrConcurrentRequest = errors.New("a previous photo from this sender is still being processed")

// request is the per-event context, created on photo receipt and dropped once
// a terminal state has been reached and the sender notified.
type request struct {
	senderID  string
	requestID string
	state     State
	attempts  map[State]int
}

// tracker keys in-flight requests by sender and is the pipeline's primary
// concurrency guard; the store is never locked.
type tracker struct {
	mu     sync.Mutex
	active map[string]*request
}

func newTracker() *tracker {
	return &tracker{active: make(map[string]*request)}
}

// admit registers a new request for senderID, rejecting it if one is already
// in flight.
func (t *tracker) admit(senderID, requestID string) (*request, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.active[senderID]; ok && !cur.state.Terminal() {
		return nil, ErrConcurrentRequest
	}

	req := &request{
		senderID:  senderID,
		requestID: requestID,
		state:     StateIdle,
		attempts:  make(map[State]int),
	}
	t.active[senderID] = req
	return req, nil
}

// advance moves req to the given state, enforcing transition validity.
func (t *tracker) advance(req *request, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !allowedTransition(req.state, to) {
		return fmt.Errorf("invalid transition for %s: %s -> %s", req.requestID, req.state, to)
	}
	req.state = to
	return nil
}

// release removes the sender's entry, returning the sender to idle.
func (t *tracker) release(senderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, senderID)
}

// inFlight reports whether the sender has a non-terminal request.
func (t *tracker) inFlight(senderID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.active[senderID]
	return ok && !cur.state.Terminal()
}
