package appkafka

import (
	"context"
	"errors"
	"sync"

	"example.com/blogposts/internal/store"
	"github.com/segmentio/kafka-go"
)

// MockKafka records written messages and, when Store is set, immediately
// appends the decoded events to it as the audit worker would.
type MockKafka struct {
	Store           *store.MemoryStore
	WrittenMessages []kafka.Message // stores messages written via WriteMessages
	ReadMessages    []kafka.Message // queue of messages to be read via ReadMessage
	ShouldFail      bool            // flag to simulate failures during write or read operations

	mu sync.Mutex
}

func (m *MockKafka) WriteMessages(messages ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldFail {
		return errors.New("mock kafka write failed")
	}

	for _, msg := range messages {
		if m.Store != nil {
			ev, err := DecodeEvent(msg)
			if err != nil {
				return err
			}
			_ = m.Store.AppendEvent(context.Background(), ev)
		}
		m.WrittenMessages = append(m.WrittenMessages, msg)
	}
	return nil
}

// Written returns a copy of the messages written so far.
func (m *MockKafka) Written() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.WrittenMessages...)
}

// Reset forgets the written messages.
func (m *MockKafka) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WrittenMessages = nil
}

// ReadMessage pops the next queued message. An empty queue blocks until ctx
// is done, like a reader waiting on an idle topic.
func (m *MockKafka) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if m.ShouldFail {
		m.mu.Unlock()
		return kafka.Message{}, errors.New("mock kafka read failed")
	}
	if len(m.ReadMessages) > 0 {
		msg := m.ReadMessages[0]
		m.ReadMessages = m.ReadMessages[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

// Close is a no-op.
func (m *MockKafka) Close() error { return nil }

// MockKafkaFail always fails.
type MockKafkaFail struct{}

func (m *MockKafkaFail) WriteMessages(messages ...kafka.Message) error {
	return errors.New("mock kafka write failed")
}

func (m *MockKafkaFail) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return kafka.Message{}, errors.New("mock kafka read failed")
}

func (m *MockKafkaFail) Close() error { return nil }
