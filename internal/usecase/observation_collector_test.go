package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SlipScope/internal/domain/models"
)

// fakeStream fails its first read and serves one trade after reconnecting.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
}

func (f *fakeStream) Connect(ctx context.Context) error   { return nil }
func (f *fakeStream) Subscribe(ctx context.Context) error { return nil }
func (f *fakeStream) Close() error                        { return nil }
func (f *fakeStream) IsConnected() bool                   { return true }

func (f *fakeStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return nil
}

func (f *fakeStream) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	f.mu.Lock()
	f.reads++
	n := f.reads
	f.mu.Unlock()

	obCh := make(chan *models.Observation, 1)
	errCh := make(chan error, 1)
	if n == 1 {
		errCh <- errors.New("connection reset")
		close(errCh)
		close(obCh)
		return obCh, errCh
	}
	tr := models.NewTrade("AAPL", time.Now().UTC(), 101, 2)
	obCh <- &tr
	return obCh, errCh
}

func (f *fakeStream) readCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// recordingStorage is a goroutine-safe in-memory Storage.
type recordingStorage struct {
	mu  sync.Mutex
	obs []*models.Observation
}

func (s *recordingStorage) Init(ctx context.Context) error { return nil }
func (s *recordingStorage) Store(ctx context.Context, o *models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs = append(s.obs, o)
	return nil
}
func (s *recordingStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs = append(s.obs, obs...)
	return nil
}
func (s *recordingStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.obs, nil
}
func (s *recordingStorage) Latest(ctx context.Context, symbol string, n int) ([]*models.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.obs, nil
}
func (s *recordingStorage) Health(ctx context.Context) error { return nil }
func (s *recordingStorage) Close() error                     { return nil }

func (s *recordingStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.obs)
}

type countingMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func (m *countingMetrics) RecordMessageSent(backend, symbol string)     {}
func (m *countingMetrics) RecordLastPrice(symbol string, price float64) {}
func (m *countingMetrics) RecordLatency(op string, seconds float64)     {}
func (m *countingMetrics) RecordFeature(name string, defined bool)      {}
func (m *countingMetrics) RecordSolve(outcome string)                   {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func TestObservationCollectorResumesAfterStreamError(t *testing.T) {
	stream := &fakeStream{}
	store := &recordingStorage{}
	metrics := &countingMetrics{errs: map[string]int{}}
	proc := NewObservationProcessor(nil, store, metrics, "clickhouse", 10, time.Second)
	col := NewObservationCollector(stream, proc, metrics, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := col.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for store.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("observation from reconnected stream never processed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := stream.readCalls(); got < 2 {
		t.Fatalf("expected a fresh read after reconnect, got %d reads", got)
	}
}
