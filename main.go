package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"example.com/blogposts/cmd/server"
	"example.com/blogposts/cmd/worker"
	appkafka "example.com/blogposts/internal/broker"
	"example.com/blogposts/internal/harness"
	config "example.com/blogposts/internal/init"
	"example.com/blogposts/internal/logger"
	"example.com/blogposts/internal/store"
	"github.com/brianvoe/gofakeit/v6"
)

func main() {
	// Initialize application configuration
	cfg := config.Init()
	mode := cfg.Mode

	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the configured document store
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := store.Open(openCtx, cfg.Store())
	cancel()
	if err != nil {
		log.Fatalf("%s store connection failed: %v", cfg.StoreDriver, err)
	}
	defer st.Close()

	// Configure Kafka client parameters
	kafkaCfg := appkafka.KafkaConfig{
		Brokers:      strings.Split(cfg.KafkaBroker, ","),
		Topic:        cfg.KafkaTopic,
		GroupID:      cfg.KafkaGroupID,
		WriteTimeout: cfg.KafkaWriteTO,
		ReadTimeout:  cfg.KafkaReadTO,
	}

	// Run application depending on selected mode
	switch mode {
	case "server":
		// Post events are optional; without a writer the server only talks to the store
		var kafkaWriter appkafka.KafkaWriter
		if cfg.EventsEnabled {
			w, err := appkafka.NewKafkaWriter(kafkaCfg)
			if err != nil {
				log.Fatalf("Kafka writer init failed: %v", err)
			}
			defer w.Close()
			kafkaWriter = w
		}
		server.Run(ctx, st, kafkaWriter, cfg.ServerAddr)
	case "worker":
		// Start the worker that records post events from Kafka
		kafkaReader := appkafka.NewKafkaReader(kafkaCfg)
		defer kafkaReader.Close()
		w := worker.New(st, kafkaReader, 0, 0)
		w.Run(ctx)
	case "seed":
		f := gofakeit.New(time.Now().UnixNano())
		posts, err := harness.Seed(ctx, st, f, cfg.SeedCount)
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Printf("Seeded %d posts", len(posts))
	default:
		log.Fatalf("unknown mode: %s", mode)
	}

	log.Println("Shutdown completed")
}
