package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-companion-be/internal/bootstrap"
	"ai-companion-be/internal/config"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/tracer"
	"ai-companion-be/pkg/database"
)

func main() {
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer()

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to database: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	defer container.Logger.Sync()

	if container.NatsSubscriber == nil {
		log.Fatal("[FATAL] NATS subscriber unavailable, nothing to consume")
	}

	err = container.NatsSubscriber.Subscribe(cfg.Pipeline.TurnSubject, "companion-worker",
		func(ctx context.Context, subject string, data []byte) error {
			var req dto.TurnRequest
			if err := json.Unmarshal(data, &req); err != nil {
				// A malformed message will never parse; drop it instead of
				// redelivering forever.
				container.Logger.Error("worker", "dropping malformed turn request", map[string]interface{}{
					"subject": subject, "error": err.Error(),
				})
				return nil
			}

			resp, err := container.PipelineService.ProcessTurn(ctx, &req)
			if err != nil {
				container.Logger.Error("worker", "turn processing failed", map[string]interface{}{
					"session_id": req.SessionId, "error": err.Error(),
				})
				return err
			}

			if req.ReplySubject != "" {
				raw, err := json.Marshal(resp)
				if err == nil {
					if err := container.NatsSubscriber.Respond(req.ReplySubject, raw); err != nil {
						container.Logger.Warn("worker", "reply publish failed", map[string]interface{}{
							"session_id": req.SessionId, "error": err.Error(),
						})
					}
				}
			}
			return nil
		})
	if err != nil {
		log.Fatalf("[FATAL] Failed to subscribe to %s: %v", cfg.Pipeline.TurnSubject, err)
	}

	log.Printf("Worker started, consuming %s", cfg.Pipeline.TurnSubject)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")

	container.NatsSubscriber.Close()
	if container.NatsPublisher != nil {
		container.NatsPublisher.Close()
	}
	container.Cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(ctx); err != nil {
		log.Printf("Warn: tracer shutdown: %v", err)
	}

	log.Println("Worker stopped.")
}
