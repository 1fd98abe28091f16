package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagelens/pagelens/internal/audit/capture"
	"github.com/pagelens/pagelens/internal/audit/domain"
	"github.com/pagelens/pagelens/internal/audit/storage"
)

// Capturer loads a URL and returns its snapshot plus extracted content.
type Capturer interface {
	Capture(ctx context.Context, url string) (*capture.Result, error)
}

// Evaluator turns a captured page into a verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, snapshot []byte, content domain.PageContent) (*domain.Verdict, error)
}

// Orchestrator owns the audit state machine: it accepts submissions,
// creates the record, and drives each audit through capture and
// evaluation in a detached goroutine. Each audit runs exactly once;
// there is no cancellation, retry, or re-queue.
type Orchestrator struct {
	store    storage.Store
	capturer Capturer
	eval     Evaluator
	logger   *slog.Logger
	running  sync.WaitGroup
}

// New creates an Orchestrator.
func New(store storage.Store, capturer Capturer, eval Evaluator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		capturer: capturer,
		eval:     eval,
		logger:   logger,
	}
}

// Submit validates the URL, creates the pending record, and returns its
// id as soon as the record exists. The audit itself runs detached from
// the caller; its only externally observable effect is the terminal
// status reached via polling.
func (o *Orchestrator) Submit(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", domain.ErrURLRequired
	}

	audit := &domain.Audit{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.Create(ctx, audit); err != nil {
		return "", err
	}

	o.logger.Info("Audit submitted",
		slog.String("audit_id", audit.ID),
		slog.String("url", audit.URL),
	)

	o.running.Add(1)
	go o.run(audit.ID, audit.URL)

	return audit.ID, nil
}

// run drives one audit to a terminal status. Every failure is caught
// here and persisted as failed; nothing propagates to the submitter.
func (o *Orchestrator) run(id, url string) {
	defer o.running.Done()

	// Detached from the submitting request on purpose: the HTTP caller
	// never waits on capture or evaluation.
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, id, fmt.Errorf("audit run panicked: %v", r))
		}
	}()

	if err := o.store.MarkProcessing(ctx, id); err != nil {
		o.fail(ctx, id, err)
		return
	}

	captured, err := o.capturer.Capture(ctx, url)
	if err != nil {
		o.fail(ctx, id, err)
		return
	}

	verdict, err := o.eval.Evaluate(ctx, captured.Snapshot, captured.Content)
	if err != nil {
		o.fail(ctx, id, err)
		return
	}

	if err := o.store.MarkCompleted(ctx, id, verdict); err != nil {
		o.fail(ctx, id, err)
		return
	}

	o.logger.Info("Audit completed",
		slog.String("audit_id", id),
		slog.String("url", url),
		slog.Int("score", verdict.OverallScore),
	)
}

func (o *Orchestrator) fail(ctx context.Context, id string, cause error) {
	o.logger.Error("Audit failed",
		slog.String("audit_id", id),
		slog.String("error", cause.Error()),
	)

	if err := o.store.MarkFailed(ctx, id, cause.Error()); err != nil {
		// Nothing left to do but log; the poller will keep seeing the
		// last persisted status.
		o.logger.Error("Failed to persist failed status",
			slog.String("audit_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// Drain waits for in-flight audits to reach a terminal status, bounded
// by ctx. Used during graceful shutdown.
func (o *Orchestrator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
