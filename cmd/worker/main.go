package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"festpass/internal/attendee"
	"festpass/internal/cloudinary"
	"festpass/internal/config"
	"festpass/internal/distribution"
	"festpass/internal/mailer"
	"festpass/internal/queue"
	"festpass/internal/realtime"
	"festpass/internal/store"
)

// Worker consumes batch send jobs and drives the delivery pipeline
// sequentially, keeping SMTP throughput bounded.
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

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "festpass:sendjobs")
	}

	repo := attendee.NewRepository(db.Client)
	notifier := realtime.NewNotifier(redisClient.Client)

	var uploader distribution.Uploader
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdn := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		uploader = distribution.CloudinaryUploader{Client: cdn}
	} else {
		log.Println("WARNING: Cloudinary not configured; batch sends will fail at upload")
	}

	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	distSvc := distribution.NewService(repo, uploader, mail, notifier,
		cfg.CredentialSecret, cfg.JWTIssuer, cfg.CredentialTTL, cfg.SendBatchCap)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for batch jobs...")
	for msg := range messages {
		if msg.Type != "send_batch" {
			continue
		}

		kindStr, opEmail, ok := strings.Cut(string(msg.Body), "|")
		if !ok {
			log.Printf("malformed batch job %q", msg.Body)
			continue
		}
		kind, err := attendee.ParseKind(kindStr)
		if err != nil {
			log.Printf("batch job with bad kind: %v", err)
			continue
		}

		org, _, err := repo.GetOrganizer(ctx, opEmail)
		if err != nil || org == nil {
			log.Printf("batch job from unknown organizer %q, skipping", opEmail)
			continue
		}

		log.Printf("processing batch send for %s (requested by %s)", kind, org.Email)
		sent, err := distSvc.SendAll(ctx, *org, kind)
		if err != nil {
			log.Printf("batch send for %s failed: %v", kind, err)
			continue
		}
		log.Printf("batch send for %s done: %d sent", kind, sent)

		time.Sleep(10 * time.Millisecond) // Small delay between jobs
	}

	log.Println("worker stopped")
}
