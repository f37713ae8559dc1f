package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"faceattend/internal/audit"
	"faceattend/internal/config"
	"faceattend/internal/queue"
	"faceattend/internal/store"
)

// Worker consumes audit messages published by the API and persists them.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "faceattend:audit")
	}

	repo := audit.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for audit events...")
	for msg := range messages {
		if msg.Type != audit.MessageType {
			continue
		}

		evt, err := audit.Decode(msg.Body)
		if err != nil {
			log.Printf("decode audit event failed: %v", err)
			continue
		}

		if err := repo.Insert(ctx, evt); err != nil {
			log.Printf("persist audit event %s failed: %v", evt.ID, err)
			continue
		}
		log.Printf("audit event %s persisted (%s/%s)", evt.ID, evt.Endpoint, evt.Decision)
	}

	log.Println("worker stopped")
}
