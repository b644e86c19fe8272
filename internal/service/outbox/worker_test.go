package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/metrics"
)

func newTestWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, opts ...Option) (*Worker, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	opts = append([]Option{WithMetrics(metrics.NewOutboxMetricsWithRegisterer(reg)), WithRetryBaseDelay(0)}, opts...)
	return NewWorker(repo, publisher, opts...), reg
}

func orderEvent(id, orderID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: "order",
		AggregateID:   orderID,
		EventType:     domain.EventOrderStatusChanged,
		Payload:       []byte(`{"status":"paid"}`),
	}
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-1", "order-1")}}
	publisher := &stubPublisher{}

	worker, _ := newTestWorker(repo, publisher, WithMaxAttempts(3))
	if sent := worker.ProcessOnce(context.Background()); sent != 1 {
		t.Fatalf("expected 1 sent message, got %d", sent)
	}

	if len(repo.sentIDs) != 1 || repo.sentIDs[0] != "msg-1" {
		t.Fatalf("unexpected sent marks: %v", repo.sentIDs)
	}
	if len(repo.failedIDs) != 0 {
		t.Fatalf("expected no failed marks, got %v", repo.failedIDs)
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-2", "order-2")}}
	publisher := &stubPublisher{err: errors.New("broker down")}
	dlq := &stubPublisher{}

	worker, _ := newTestWorker(repo, publisher, WithDLQPublisher(dlq), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if len(repo.sentIDs) != 0 || len(repo.failedIDs) != 1 || repo.failedIDs[0] != "msg-2" {
		t.Fatalf("unexpected marks: sent=%v failed=%v", repo.sentIDs, repo.failedIDs)
	}
	if got := dlq.calls(); got != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", got)
	}

	var payload dlqPayload
	if err := json.Unmarshal(dlq.last.Payload, &payload); err != nil {
		t.Fatalf("decode dlq payload: %v", err)
	}
	if payload.OutboxID != "msg-2" || payload.PublishError == "" || string(payload.Payload) != `{"status":"paid"}` {
		t.Fatalf("unexpected dlq payload: %+v", payload)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-3", "order-3")}}
	publisher := &stubPublisher{sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil}}

	worker, reg := newTestWorker(repo, publisher, WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if len(repo.sentIDs) != 1 || len(repo.failedIDs) != 0 {
		t.Fatalf("unexpected marks: sent=%v failed=%v", repo.sentIDs, repo.failedIDs)
	}
	if n := testutil.CollectAndCount(reg, "printshop_outbox_publish_attempts_total"); n != 2 {
		t.Fatalf("expected sent and retry_error series, got %d", n)
	}
}

func TestWorker_BacklogMetrics(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubOutboxRepo{
		pending:   []domain.OutboxMessage{orderEvent("msg-4", "order-4")},
		keepAfter: true,
		oldest:    now.Add(-90 * time.Second),
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewOutboxMetricsWithRegisterer(reg)
	worker := NewWorker(repo, &stubPublisher{err: errors.New("down")}, WithMetrics(m), WithMaxAttempts(1), WithRetryBaseDelay(0))
	worker.now = func() time.Time { return now }
	worker.ProcessOnce(context.Background())

	expected := `
# HELP printshop_outbox_oldest_pending_age_seconds Age in seconds of the oldest pending outbox record.
# TYPE printshop_outbox_oldest_pending_age_seconds gauge
printshop_outbox_oldest_pending_age_seconds 90
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "printshop_outbox_oldest_pending_age_seconds"); err != nil {
		t.Fatalf("unexpected backlog metric: %v", err)
	}
}

func TestWorker_RetryBackoffCapped(t *testing.T) {
	worker, _ := newTestWorker(&stubOutboxRepo{}, &stubPublisher{}, WithRetryBaseDelay(time.Second))
	if got := worker.retryBackoff(1); got != time.Second {
		t.Fatalf("unexpected first delay: %v", got)
	}
	if got := worker.retryBackoff(3); got != 4*time.Second {
		t.Fatalf("unexpected third delay: %v", got)
	}
	if got := worker.retryBackoff(40); got != 30*time.Second {
		t.Fatalf("delay must be capped, got %v", got)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	worker, _ := newTestWorker(&stubOutboxRepo{}, &stubPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_RunDisabledWithoutPublisher(t *testing.T) {
	worker, _ := newTestWorker(&stubOutboxRepo{}, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker without publisher must return immediately")
	}
}

type stubOutboxRepo struct {
	mu        sync.Mutex
	pending   []domain.OutboxMessage
	keepAfter bool
	oldest    time.Time
	sentIDs   []string
	failedIDs []string
}

func (s *stubOutboxRepo) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	return msg, nil
}

func (s *stubOutboxRepo) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats(context.Context) (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keepAfter {
		return domain.OutboxStats{}, nil
	}
	return domain.OutboxStats{PendingCount: len(s.pending), OldestPendingAt: s.oldest}, nil
}

func (s *stubOutboxRepo) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	last           domain.OutboxMessage
}

func (s *stubPublisher) Publish(msg domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	s.last = msg
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

var _ domain.OutboxRepository = (*stubOutboxRepo)(nil)
var _ domain.OutboxPublisher = (*stubPublisher)(nil)
