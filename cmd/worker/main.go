package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"classtrack/internal/attendance"
	"classtrack/internal/config"
	"classtrack/internal/logging"
	"classtrack/internal/observability"
	"classtrack/internal/queue"
	"classtrack/internal/store"
	"classtrack/internal/tally"
)

// The worker consumes applied-record messages and keeps the live
// per-class tallies the dashboard reads.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "classtrack-worker")
	if err != nil {
		lg.Sugar.Warnw("sentry init failed", "err", err)
	}
	defer flush()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Sugar.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("db connect failed", "err", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	repo := attendance.NewRepository(db.Client)
	counts := tally.New(redisClient.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		lg.Sugar.Fatalw("queue consume init failed", "err", err)
	}

	lg.Sugar.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != queue.TypeRecordApplied {
			continue
		}

		var payload queue.RecordApplied
		if err := json.Unmarshal(msg.Body, &payload); err != nil {
			lg.Sugar.Warnw("bad message body", "err", err)
			continue
		}

		rec, err := repo.GetByID(ctx, payload.RecordID)
		if err != nil {
			observability.CaptureErr(err)
			lg.Sugar.Warnw("fetch record failed", "record_id", payload.RecordID, "err", err)
			continue
		}
		if rec == nil {
			lg.Sugar.Warnw("record vanished", "record_id", payload.RecordID)
			continue
		}

		if err := counts.Incr(ctx, rec.ClassID, rec.Date, rec.Status); err != nil {
			lg.Sugar.Warnw("tally update failed", "record_id", rec.ID, "err", err)
			continue
		}
		lg.Sugar.Debugw("tally updated", "class_id", rec.ClassID, "status", rec.Status)
	}

	lg.Sugar.Info("worker stopped")
}
