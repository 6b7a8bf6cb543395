package worker

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	appkafka "example.com/blogposts/internal/broker"
	"example.com/blogposts/internal/logger"
	"example.com/blogposts/internal/store"
	"github.com/segmentio/kafka-go"
)

var logg = logger.New()

// Worker consumes post events from Kafka and appends them to the store's
// audit trail concurrently.
type Worker struct {
	store        store.StoreInterface
	reader       appkafka.KafkaReader
	workerCount  int
	jobQueueSize int
}

// New creates a new concurrent Worker using pre-initialized dependencies.
func New(store store.StoreInterface, reader appkafka.KafkaReader, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		store:        store,
		reader:       reader,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run reads until ctx is cancelled, then lets the workers drain what is
// already queued.
func (w *Worker) Run(ctx context.Context) {
	if w.workerCount <= 0 {
		w.workerCount = 1
	}
	if w.jobQueueSize <= 0 {
		w.jobQueueSize = 10
	}

	logg.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan kafka.Message, w.jobQueueSize)
	var wg sync.WaitGroup

	// Queued events are still written after shutdown starts.
	drainCtx := context.WithoutCancel(ctx)
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(drainCtx, jobs)
		}()
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	logg.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into a job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- kafka.Message) {
	var retry int
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
			logg.Error("worker", "Kafka read error, backing off", err)
			if !waitWithContext(ctx, backoff) {
				return
			}
			retry++
			continue
		}
		retry = 0

		if len(msg.Value) == 0 {
			continue
		}

		if !enqueue(ctx, jobs, msg) {
			return
		}
	}
}

// enqueue blocks until the message is queued or ctx is done.
func enqueue(ctx context.Context, jobs chan<- kafka.Message, msg kafka.Message) bool {
	select {
	case jobs <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-time.After(100 * time.Millisecond):
		logg.Info("worker", "Queue full, waiting to enqueue Kafka message")
	}
	select {
	case jobs <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Worker) processLoop(ctx context.Context, jobs <-chan kafka.Message) {
	for msg := range jobs {
		if err := w.handle(ctx, msg); err != nil {
			logg.Error("worker", "Failed to record post event", err)
		}
	}
}

// handle decodes one message and appends it to the audit trail.
func (w *Worker) handle(ctx context.Context, msg kafka.Message) error {
	ev, err := appkafka.DecodeEvent(msg)
	if err != nil {
		return err
	}
	if err := w.store.AppendEvent(ctx, ev); err != nil {
		return fmt.Errorf("append %s for post %s: %w", ev.Type, ev.PostID, err)
	}
	logg.Debug("worker", "Recorded "+string(ev.Type)+" for post id="+ev.PostID)
	return nil
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down the Kafka reader and the store.
func (w *Worker) Close() error {
	logg.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		logg.Error("worker", "Error closing Kafka reader", err)
		return err
	}

	logg.Info("worker", "Closing store")
	w.store.Close()
	return nil
}
