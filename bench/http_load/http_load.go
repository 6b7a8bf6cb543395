package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"example.com/blogposts/internal/harness"
	"example.com/blogposts/internal/models"
	"github.com/brianvoe/gofakeit/v6"
)

func main() {
	// --- Command-line flags ---
	var server string
	var duration int
	var concurrency int
	var csvFile string
	var trimPercent float64
	var readRatio int

	flag.StringVar(&server, "server", "http://localhost:8080", "server base URL")
	flag.IntVar(&duration, "duration", 30, "duration in seconds")
	flag.IntVar(&concurrency, "c", 50, "number of concurrent goroutines")
	flag.StringVar(&csvFile, "csv", "latencies.csv", "CSV file to save latencies")
	flag.Float64Var(&trimPercent, "trim", 1.0, "percent of latency to trim from top and bottom for trimmed mean")
	flag.IntVar(&readRatio, "reads", 0, "GET /posts requests issued per write")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	// --- Prepare concurrency test ---
	stopTime := time.Now().Add(time.Duration(duration) * time.Second)
	var wg sync.WaitGroup

	// Atomic counters for thread-safe tracking
	var requests int64
	var successes int64
	var errors4xx int64
	var errors5xx int64

	latencySlices := make([][]float64, concurrency) // each goroutine records latencies

	// --- Start concurrent goroutines for load test ---
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			faker := gofakeit.New(int64(idx) + time.Now().UnixNano())
			var localLatencies []float64
			var lastID string

			// Create, then update the created post, interleaved with reads
			for n := 0; time.Now().Before(stopTime); n++ {
				req := nextRequest(server, faker, n, readRatio, lastID)

				start := time.Now()
				resp, err := client.Do(req)
				lat := time.Since(start).Seconds() * 1000 // latency in ms
				localLatencies = append(localLatencies, lat)
				atomic.AddInt64(&requests, 1)

				if err != nil {
					fmt.Printf("Request error: %v\n", err)
					continue
				}

				// Count success/failure by status code
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&successes, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&errors4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&errors5xx, 1)
				}

				if resp.StatusCode == http.StatusCreated {
					var view models.PostView
					if err := json.NewDecoder(resp.Body).Decode(&view); err == nil {
						lastID = view.ID
					}
				} else if resp.StatusCode >= 400 {
					bodyBytes, _ := io.ReadAll(resp.Body)
					fmt.Printf("Status %d: %s\n", resp.StatusCode, string(bodyBytes))
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}

			latencySlices[idx] = localLatencies
		}(i)
	}

	wg.Wait()

	// --- Merge all latencies ---
	var allLatencies []float64
	for _, slice := range latencySlices {
		allLatencies = append(allLatencies, slice...)
	}
	sort.Float64s(allLatencies)

	// --- Compute statistics ---
	trimmedMeanVal := trimmedMean(allLatencies, trimPercent)
	p50 := percentile(allLatencies, 50)
	p90 := percentile(allLatencies, 90)
	p99 := percentile(allLatencies, 99)

	fmt.Printf("Requests: %d  Successes: %d  4xx: %d  5xx: %d\n", requests, successes, errors4xx, errors5xx)
	fmt.Printf("Latency (ms): trimmed_mean=%.2f p50=%.2f p90=%.2f p99=%.2f\n", trimmedMeanVal, p50, p90, p99)

	// --- Save latencies to CSV ---
	f, err := os.Create(csvFile)
	if err != nil {
		fmt.Printf("Failed to create CSV file: %v\n", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"latency_ms"})
	for _, d := range allLatencies {
		w.Write([]string{fmt.Sprintf("%.3f", d)})
	}
	fmt.Printf("Saved latencies to %s\n", csvFile)
}

// nextRequest picks the n-th request of one goroutine: reads first, then a
// create, or an update when a post from this goroutine already exists.
func nextRequest(server string, faker *gofakeit.Faker, n, readRatio int, lastID string) *http.Request {
	step := n % (readRatio + 1)
	if step < readRatio {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server+"/posts", nil)
		return req
	}

	if lastID != "" && (n/(readRatio+1))%2 == 1 {
		title := faker.Word()
		b, _ := json.Marshal(models.PostUpdate{Title: &title})
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPut, server+"/posts/"+lastID, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	b, _ := json.Marshal(harness.GenerateNewPost(faker))
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, server+"/posts", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// trimmedMean calculates mean latency after trimming top/bottom trimPercent values
func trimmedMean(data []float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = (len(data) - 1) / 2
	}
	trimmed := data[trim : len(data)-trim]
	var sum float64
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed))
}

// percentile calculates the p-th percentile from sorted data
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	k := (p / 100.0) * float64(len(data)-1)
	f := int(k)
	c := f + 1
	if c >= len(data) {
		return data[len(data)-1]
	}
	return data[f]*(float64(c)-k) + data[c]*(k-float64(f))
}
