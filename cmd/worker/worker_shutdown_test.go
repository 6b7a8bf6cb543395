package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"example.com/blogposts/internal/models"
	"example.com/blogposts/internal/store"
	"github.com/segmentio/kafka-go"
)

// TestWorker_GracefulShutdown ensures that the worker:
// 1. Processes every queued event.
// 2. Records them in the audit trail.
// 3. Shuts down gracefully when the context is canceled.
func TestWorker_GracefulShutdown(t *testing.T) {
	memStore := store.NewMemory()

	var msgs []kafka.Message
	for _, typ := range []models.EventType{models.PostCreated, models.PostUpdated, models.PostDeleted} {
		msgs = append(msgs, eventMessage(t, models.NewPostEvent(typ, "p-100", nil)))
	}

	// Mock Kafka reader with the queued events
	mockKafka := &MockKafkaReader{Messages: msgs}

	// Context with timeout to simulate graceful shutdown signal
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	worker := New(memStore, mockKafka, 2, 4)

	go func() {
		worker.Run(ctx) // Worker processes messages until ctx.Done()
		close(done)
	}()

	select {
	case <-done:
		if n := len(memStore.Events()); n != len(msgs) {
			t.Fatalf("expected %d recorded events, got %d", len(msgs), n)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("worker did not shutdown gracefully in time")
	}

	if err := worker.Close(); err != nil {
		t.Fatalf("worker Close() error: %v", err)
	}

	if !mockKafka.IsClosed() {
		t.Fatal("expected Kafka reader to be closed")
	}
}

// TestWorker_BacksOffOnReadErrors checks that a failing reader does not stop
// the worker before its context ends.
func TestWorker_BacksOffOnReadErrors(t *testing.T) {
	mockKafka := &MockKafkaReader{ShouldFail: true}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	New(store.NewMemory(), mockKafka, 1, 1).Run(ctx)

	if time.Since(start) < 40*time.Millisecond {
		t.Fatal("worker returned before its context was done")
	}
	if mockKafka.Reads() < 2 {
		t.Fatalf("expected repeated read attempts, got %d", mockKafka.Reads())
	}
}

// MockKafkaReader simulates a Kafka reader for testing purposes
type MockKafkaReader struct {
	Messages   []kafka.Message // Queue of messages to return
	ShouldFail bool            // If true, ReadMessage will fail

	mu     sync.Mutex
	closed bool
	reads  int
}

// ReadMessage returns the next message in the queue or simulates a failure/context cancel
func (m *MockKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	m.reads++
	if m.ShouldFail {
		m.mu.Unlock()
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(m.Messages) > 0 {
		msg := m.Messages[0]
		m.Messages = m.Messages[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-time.After(5 * time.Millisecond): // simulate idle wait
		return kafka.Message{}, nil
	}
}

func (m *MockKafkaReader) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Close marks the mock Kafka reader as closed
func (m *MockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockKafkaReader) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
