package pipeline

import "testing"

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{name: "idle to validating", from: StateIdle, to: StateValidating, want: true},
		{name: "validating to publishing", from: StateValidating, to: StatePublishing, want: true},
		{name: "publishing to extracting", from: StatePublishing, to: StateExtracting, want: true},
		{name: "extracting to normalizing", from: StateExtracting, to: StateNormalizing, want: true},
		{name: "normalizing to writing", from: StateNormalizing, to: StateWriting, want: true},
		{name: "writing to completed", from: StateWriting, to: StateCompleted, want: true},
		{name: "failed from any non-terminal", from: StateExtracting, to: StateFailed, want: true},
		{name: "no skipping stages", from: StateValidating, to: StateExtracting, want: false},
		{name: "no going backwards", from: StateWriting, to: StateValidating, want: false},
		{name: "completed is terminal", from: StateCompleted, to: StateFailed, want: false},
		{name: "failed is terminal", from: StateFailed, to: StateValidating, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := allowedTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("allowedTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTrackerAdmission(t *testing.T) {
	tr := newTracker()

	req, err := tr.admit("sender-1", "req-1")
	if err != nil {
		t.Fatalf("admit() error: %v", err)
	}
	if err := tr.advance(req, StateValidating); err != nil {
		t.Fatal(err)
	}

	if _, err := tr.admit("sender-1", "req-2"); err != ErrConcurrentRequest {
		t.Errorf("second admit = %v, want ErrConcurrentRequest", err)
	}

	// A different sender is unaffected.
	if _, err := tr.admit("sender-2", "req-3"); err != nil {
		t.Errorf("other sender rejected: %v", err)
	}

	// Release returns the sender to idle.
	tr.release("sender-1")
	if _, err := tr.admit("sender-1", "req-4"); err != nil {
		t.Errorf("admit after release = %v, want accepted", err)
	}
}

func TestTrackerAdvanceRejectsInvalid(t *testing.T) {
	tr := newTracker()
	req, _ := tr.admit("sender-1", "req-1")

	if err := tr.advance(req, StateWriting); err == nil {
		t.Error("expected error for idle -> writing")
	}
	if req.state != StateIdle {
		t.Errorf("state mutated by rejected transition: %s", req.state)
	}
}

func TestMaxAttempts(t *testing.T) {
	if got := maxAttempts(StatePublishing); got != 2 {
		t.Errorf("publishing attempts = %d, want 2", got)
	}
	if got := maxAttempts(StateWriting); got != 2 {
		t.Errorf("writing attempts = %d, want 2", got)
	}
	if got := maxAttempts(StateExtracting); got != 1 {
		t.Errorf("extracting attempts = %d, want 1 (no retry)", got)
	}
}
