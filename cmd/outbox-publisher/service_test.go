package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/db/models"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/metrics"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			orderEvent(t, "event-one", 0),
			orderEvent(t, "event-two", 0),
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service, m := newTestService(t, repo, pub, &fakeRegistry{resolved: orderResolved()}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("unexpected failed rows: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
	if got := counterValue(t, m, "outbox_published_total"); got != 1 {
		t.Fatalf("expected one published metric, got %v", got)
	}
}

func TestPublishAttachesAttributes(t *testing.T) {
	event := orderEvent(t, "attrs", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service, _ := newTestService(t, repo, pub, &fakeRegistry{resolved: orderResolved()}, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	attrs := pub.messages[0].Attributes
	if attrs["event_type"] != string(enums.EventOrderCreated) {
		t.Fatalf("unexpected event_type attribute %q", attrs["event_type"])
	}
	if attrs["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %q", attrs["aggregate_id"])
	}
	if attrs["event_id"] != event.ID.String() {
		t.Fatalf("unexpected event_id attribute %q", attrs["event_id"])
	}
}

func TestNonRetryableResolveMarksDead(t *testing.T) {
	event := orderEvent(t, "bad", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	service, m := newTestService(t, repo, &fakePublisher{}, reg, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.dead) != 1 || repo.dead[0] != event.ID {
		t.Fatalf("expected row marked dead, got %v", repo.dead)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("dead row should not be marked failed")
	}
	if got := counterValue(t, m, "outbox_dead_total"); got != 1 {
		t.Fatalf("expected dead metric, got %v", got)
	}
}

func TestMissingPublisherMarksDead(t *testing.T) {
	event := orderEvent(t, "no-topic", 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	service, _ := newTestService(t, repo, nil, &fakeRegistry{resolved: orderResolved()}, nil)
	service.publisherFactory = func(string) publisher { return nil }

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.dead) != 1 {
		t.Fatalf("expected row marked dead, got %v", repo.dead)
	}
}

func TestMaxAttemptsMarksDead(t *testing.T) {
	event := orderEvent(t, "max-attempts", 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	service, _ := newTestService(t, repo, pub, &fakeRegistry{resolved: orderResolved()}, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.dead) != 1 || repo.dead[0] != event.ID {
		t.Fatalf("expected row marked dead, got %v", repo.dead)
	}
	if repo.deadMax != 2 {
		t.Fatalf("expected max attempts forwarded, got %d", repo.deadMax)
	}
}

func TestEmptyBatchReportsIdle(t *testing.T) {
	service, _ := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil)
	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("empty batch should not report processed")
	}
}

func TestFetchErrorSurfaces(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	service, _ := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{}, nil)
	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	service, _ := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := service.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestRunFailsWhenDependencyDown(t *testing.T) {
	service, _ := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, nil)
	service.pubsub = &fakePinger{err: errors.New("unreachable")}
	if err := service.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness failure")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("unexpected backoff %v", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected capped backoff, got %v", got)
	}
	if got := withJitter(0); got != 0 {
		t.Fatalf("expected zero jitter for zero duration, got %v", got)
	}
	if got := withJitter(time.Second); got < time.Second || got >= time.Second+jitterWindow {
		t.Fatalf("jitter out of window: %v", got)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error for missing logger")
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, reg registryResolver, override *config.OutboxConfig) (*Service, *prometheus.Registry) {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 10,
		MaxAttempts:    5,
	}
	if override != nil {
		outboxCfg = *override
	}
	promReg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Config:           outboxCfg,
		Logger:           logger.Nop(),
		DB:               &fakePinger{},
		PubSub:           &fakePinger{},
		Repository:       repo,
		Registry:         reg,
		PublisherFactory: func(string) publisher { return pub },
		Metrics:          metrics.NewOutboxMetrics(promReg),
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service, promReg
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func orderEvent(tb testing.TB, eventID string, attempts int) models.OutboxEvent {
	tb.Helper()
	env := outbox.Envelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Now(),
	}
}

func orderResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			Topic:         "orders-topic",
		},
		Payload: &payloads.OrderCreatedEvent{},
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
	dead      []uuid.UUID
	deadMax   int
}

func (f *fakeRepo) FetchUnpublished(context.Context, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkDead(_ context.Context, id uuid.UUID, maxAttempts int, _ error) error {
	f.dead = append(f.dead, id)
	f.deadMax = maxAttempts
	return nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error {
	return f.err
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope.EventID = event.ID.String()
	resolved.Envelope.OccurredAt = time.Now()
	return &resolved, f.err
}

func TestClassifyOutcome(t *testing.T) {
	transient := errors.New("deadline exceeded")
	cases := []struct {
		name     string
		err      error
		attempts int
		want     outcome
	}{
		{"published", nil, 1, outcomePublished},
		{"retry", transient, 1, outcomeRetry},
		{"exhausted", transient, 3, outcomeDead},
		{"non retryable", registry.NewNonRetryableError(transient), 1, outcomeDead},
	}
	for _, tc := range cases {
		if got := classify(tc.err, tc.attempts, 3); got != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, got)
		}
	}
}
