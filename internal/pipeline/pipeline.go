package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajuraforce/photo-product-analyzer/internal/catalog"
	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
	"github.com/ajuraforce/photo-product-analyzer/internal/validate"
)

// Event is one inbound photo from the transport collaborator.
type Event struct {
	SenderID string
	Image    []byte
	Format   string
}

// Publisher is the static hosting capability.
type Publisher interface {
	Publish(ctx context.Context, requestID string, data []byte, format string) (string, error)
}

// Extractor is the vision model capability.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (string, error)
}

// Normalizer validates raw model output into record fields.
type Normalizer interface {
	Normalize(raw string) (*normalize.Fields, error)
}

// Notifier is the outbound side of the transport collaborator.
type Notifier interface {
	Notify(senderID, text string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(senderID, text string)

func (f NotifierFunc) Notify(senderID, text string) { f(senderID, text) }

// Result reports the terminal outcome of one submission.
type Result struct {
	RequestID string
	RowID     string
	State     State
	Record    *catalog.Record
	Err       error
}

// Orchestrator drives a photo event through validation, publishing,
// extraction, normalization and the catalog append, tracking per-sender state
// so a sender can only have one request in flight.
type Orchestrator struct {
	limits     validate.Limits
	publisher  Publisher
	extractor  Extractor
	normalizer Normalizer
	writer     catalog.Writer
	notifier   Notifier
	requests   *tracker

	now   func() time.Time
	newID func(time.Time) string
}

// New assembles an orchestrator from its collaborators. A nil notifier keeps
// outcomes available through Result only.
func New(limits validate.Limits, publisher Publisher, extractor Extractor, normalizer Normalizer, writer catalog.Writer, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		limits:     limits,
		publisher:  publisher,
		extractor:  extractor,
		normalizer: normalizer,
		writer:     writer,
		notifier:   notifier,
		requests:   newTracker(),
		now:        time.Now,
		newID:      newRequestID,
	}
}

// newRequestID generates the idempotency key for a catalog row.
func newRequestID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("PROD_%s_%s", now.Format("20060102_150405"), suffix)
}

// Submit runs one photo event to a terminal state and notifies the sender of
// the outcome. It blocks until the pipeline finishes and is safe to call from
// concurrent transport goroutines.
func (o *Orchestrator) Submit(ctx context.Context, ev Event) Result {
	requestID := o.newID(o.now())

	req, err := o.requests.admit(ev.SenderID, requestID)
	if err != nil {
		slog.Info("Submission rejected", "sender_id", ev.SenderID, "request_id", requestID, "reason", err)
		o.notify(ev.SenderID, FailureMessage(err))
		return Result{RequestID: requestID, State: StateFailed, Err: err}
	}
	defer o.requests.release(ev.SenderID)

	slog.Info("Pipeline started", "sender_id", ev.SenderID, "request_id", requestID, "bytes", len(ev.Image))

	// Validating: no network cost is spent before this passes.
	if err := o.advance(req, StateValidating); err != nil {
		return o.fail(req, err)
	}
	if err := validate.Check(ev.Image, ev.Format, o.limits); err != nil {
		return o.fail(req, err)
	}

	// Publishing: the raw bytes are handed off here; only the URL survives.
	if err := o.advance(req, StatePublishing); err != nil {
		return o.fail(req, err)
	}
	imageURL, err := o.runStage(ctx, req, StatePublishing, func() (string, error) {
		return o.publisher.Publish(ctx, requestID, ev.Image, ev.Format)
	})
	if err != nil {
		return o.fail(req, err)
	}

	if err := o.advance(req, StateExtracting); err != nil {
		return o.fail(req, err)
	}
	raw, err := o.extractor.Extract(ctx, imageURL)
	if err != nil {
		return o.fail(req, err)
	}

	if err := o.advance(req, StateNormalizing); err != nil {
		return o.fail(req, err)
	}
	fields, err := o.normalizer.Normalize(raw)
	if err != nil {
		return o.fail(req, err)
	}

	// A sender gone mid-pipeline discards the work; nothing reaches the store
	// from a cancelled request.
	if err := ctx.Err(); err != nil {
		_ = o.requests.advance(req, StateFailed)
		slog.Info("Pipeline cancelled, result discarded", "sender_id", ev.SenderID, "request_id", requestID)
		return Result{RequestID: requestID, State: StateFailed, Err: err}
	}

	rec := catalog.Record{
		ProductType: fields.ProductType,
		Color:       fields.Color,
		Brand:       fields.Brand,
		Description: fields.Description,
		ImageURL:    imageURL,
		RequestID:   requestID,
		Timestamp:   o.now(),
	}

	if err := o.advance(req, StateWriting); err != nil {
		return o.fail(req, err)
	}
	rowID, err := o.runStage(ctx, req, StateWriting, func() (string, error) {
		return o.writer.Append(ctx, rec)
	})
	if err != nil {
		return o.fail(req, err)
	}

	if err := o.advance(req, StateCompleted); err != nil {
		return o.fail(req, err)
	}

	slog.Info("Pipeline completed", "sender_id", ev.SenderID, "request_id", requestID, "row_id", rowID)
	o.notify(ev.SenderID, successMessage(rec, rowID))
	return Result{RequestID: requestID, RowID: rowID, State: StateCompleted, Record: &rec}
}

// InFlight reports whether the sender currently has a request being processed.
func (o *Orchestrator) InFlight(senderID string) bool {
	return o.requests.inFlight(senderID)
}

// runStage executes one external call, consulting the retry budget table for
// the stage. Attempts are recorded on the request context.
func (o *Orchestrator) runStage(ctx context.Context, req *request, stage State, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts(stage); attempt++ {
		req.attempts[stage] = attempt

		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == maxAttempts(stage) {
			break
		}
		slog.Warn("Stage failed, retrying",
			"request_id", req.requestID,
			"stage", stage.String(),
			"attempt", attempt,
			"error", err)
	}
	return "", lastErr
}

func (o *Orchestrator) fail(req *request, err error) Result {
	_ = o.requests.advance(req, StateFailed)
	slog.Error("Pipeline failed",
		"sender_id", req.senderID,
		"request_id", req.requestID,
		"error", err)
	o.notify(req.senderID, FailureMessage(err))
	return Result{RequestID: req.requestID, State: StateFailed, Err: err}
}

func (o *Orchestrator) advance(req *request, to State) error {
	return o.requests.advance(req, to)
}

func (o *Orchestrator) notify(senderID, text string) {
	if o.notifier != nil {
		o.notifier.Notify(senderID, text)
	}
}
