package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"example.com/blogposts/internal/harness"
	"example.com/blogposts/internal/models"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Produces synthetic post events to measure how fast the audit worker drains
// the topic.
func main() {
	var (
		total      int
		batchSize  int
		numWorkers int
		brokers    string
		topic      string
	)
	flag.IntVar(&total, "n", 100000, "total number of events to send")
	flag.IntVar(&batchSize, "batch", 100, "batch size for sending events")
	flag.IntVar(&numWorkers, "workers", 4, "number of parallel goroutines")
	flag.StringVar(&brokers, "brokers", "localhost:29092", "comma separated Kafka brokers")
	flag.StringVar(&topic, "topic", "post-events", "post events topic")
	flag.Parse()

	// Kafka writer with asynchronous sending enabled
	w := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
	}
	defer w.Close()

	start := time.Now()

	var successCount uint64
	var failCount uint64

	// Channel for feeding message indexes to worker goroutines
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	// --- Start worker goroutines ---
	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			faker := gofakeit.New(seed)
			batch := make([]kafka.Message, 0, batchSize)

			flush := func() {
				if len(batch) == 0 {
					return
				}
				if err := w.WriteMessages(context.Background(), batch...); err != nil {
					atomic.AddUint64(&failCount, uint64(len(batch)))
					fmt.Printf("write error: %v\n", err)
				} else {
					atomic.AddUint64(&successCount, uint64(len(batch)))
				}
				batch = batch[:0] // clear the batch
			}

			for range jobs {
				msg, err := syntheticEvent(faker)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					fmt.Printf("marshal error: %v\n", err)
					continue
				}

				batch = append(batch, msg)
				if len(batch) >= batchSize {
					flush()
				}
			}

			// Send any remaining messages after finishing loop
			flush()
		}(int64(wID) + start.UnixNano())
	}

	// Feed jobs channel with indexes
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	// Wait for all worker goroutines to finish
	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total events: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}

// syntheticEvent builds a post_created event shaped like the server's.
func syntheticEvent(faker *gofakeit.Faker) (kafka.Message, error) {
	post := harness.GeneratePost(faker)
	post.ID = uuid.NewString()
	post.Created = models.NormalizeTime(post.Created)

	ev := models.NewPostEvent(models.PostCreated, post.ID, &post)
	v, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(ev.PostID),
		Value:   v,
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
	}, nil
}
