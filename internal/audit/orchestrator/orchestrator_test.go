package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/audit/capture"
	"github.com/pagelens/pagelens/internal/audit/domain"
	"github.com/pagelens/pagelens/internal/audit/evaluator"
	"github.com/pagelens/pagelens/internal/audit/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCapturer struct {
	result *capture.Result
	err    error
	delay  time.Duration
	panics bool
}

func (s *stubCapturer) Capture(ctx context.Context, url string) (*capture.Result, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panics {
		panic("browser exploded")
	}
	return s.result, s.err
}

type stubEvaluator struct {
	verdict *domain.Verdict
	err     error
}

func (s *stubEvaluator) Evaluate(ctx context.Context, snapshot []byte, content domain.PageContent) (*domain.Verdict, error) {
	return s.verdict, s.err
}

func captured() *capture.Result {
	return &capture.Result{
		Snapshot: []byte("jpeg-bytes"),
		Content:  domain.PageContent{Title: "Example Domain"},
	}
}

func waitTerminal(t *testing.T, store storage.Store, id string) *domain.Audit {
	t.Helper()
	var audit *domain.Audit
	require.Eventually(t, func() bool {
		got, err := store.Get(context.Background(), id)
		if err != nil || !domain.IsTerminal(got.Status) {
			return false
		}
		audit = got
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return audit
}

func TestSubmit_EmptyURLCreatesNoAudit(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := New(store, &stubCapturer{result: captured()}, &stubEvaluator{verdict: evaluator.DemoVerdict()}, discardLogger())

	for _, url := range []string{"", "   "} {
		_, err := orch.Submit(context.Background(), url)
		assert.ErrorIs(t, err, domain.ErrURLRequired)
	}

	audits, err := store.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, audits)
}

func TestSubmit_ReturnsBeforeWorkFinishes(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := New(store,
		&stubCapturer{result: captured(), delay: 300 * time.Millisecond},
		&stubEvaluator{verdict: evaluator.DemoVerdict()},
		discardLogger(),
	)

	start := time.Now()
	id, err := orch.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	// An immediate poll must never observe a terminal status.
	audit, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, []string{domain.StatusPending, domain.StatusProcessing}, audit.Status)
}

func TestRun_CompletesWithVerdict(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := New(store, &stubCapturer{result: captured()}, &stubEvaluator{verdict: evaluator.DemoVerdict()}, discardLogger())

	id, err := orch.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)

	audit := waitTerminal(t, store, id)
	assert.Equal(t, domain.StatusCompleted, audit.Status)
	require.NotNil(t, audit.Result)
	require.NotNil(t, audit.Score)
	assert.Equal(t, audit.Result.OverallScore, *audit.Score)
	assert.Equal(t, 59, *audit.Score)
	assert.Empty(t, audit.Error)
	assert.Len(t, audit.Result.CategoryBreakdown, 5)
}

func TestRun_CaptureFailureMarksFailed(t *testing.T) {
	store := storage.NewMemoryStore()
	captureErr := &domain.CaptureError{URL: "https://example.com", Timeout: true, Err: context.DeadlineExceeded}
	orch := New(store, &stubCapturer{err: captureErr}, &stubEvaluator{verdict: evaluator.DemoVerdict()}, discardLogger())

	id, err := orch.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)

	audit := waitTerminal(t, store, id)
	assert.Equal(t, domain.StatusFailed, audit.Status)
	assert.Contains(t, audit.Error, "capture timed out")
	assert.Nil(t, audit.Result)
	assert.Nil(t, audit.Score)
}

func TestRun_EvaluationFailureMarksFailed(t *testing.T) {
	store := storage.NewMemoryStore()
	evalErr := &domain.EvaluationError{Reason: "parse verdict json"}
	orch := New(store, &stubCapturer{result: captured()}, &stubEvaluator{err: evalErr}, discardLogger())

	id, err := orch.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)

	audit := waitTerminal(t, store, id)
	assert.Equal(t, domain.StatusFailed, audit.Status)
	assert.Contains(t, audit.Error, "parse verdict json")
}

func TestRun_PanicIsCaught(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := New(store, &stubCapturer{panics: true}, &stubEvaluator{verdict: evaluator.DemoVerdict()}, discardLogger())

	id, err := orch.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)

	audit := waitTerminal(t, store, id)
	assert.Equal(t, domain.StatusFailed, audit.Status)
	assert.Contains(t, audit.Error, "browser exploded")
}

func TestRun_TerminalStatusNeverChanges(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := New(store, &stubCapturer{result: captured()}, &stubEvaluator{verdict: evaluator.DemoVerdict()}, discardLogger())

	id, err := orch.Submit(context.Background(), "https://example.com")
	require.NoError(t, err)
	waitTerminal(t, store, id)

	for i := 0; i < 3; i++ {
		audit, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, audit.Status)
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRun_AuditsCompleteIndependently(t *testing.T) {
	store := storage.NewMemoryStore()
	orch := New(store, &stubCapturer{result: captured(), delay: 20 * time.Millisecond}, &stubEvaluator{verdict: evaluator.DemoVerdict()}, discardLogger())

	ids := make([]string, 4)
	for i := range ids {
		id, err := orch.Submit(context.Background(), "https://example.com")
		require.NoError(t, err)
		ids[i] = id
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, orch.Drain(ctx))

	for _, id := range ids {
		audit, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, audit.Status)
	}
}
