package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ssm"
	_ "github.com/lib/pq"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/config"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/handler"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/mailer"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/messaging"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/repository"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/service"
)

const (
	processedRetention = 7 * 24 * time.Hour
	pruneInterval      = 6 * time.Hour
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the config file (.json or .hcl)")
	paramStore := flag.Bool("param-store", false, "overlay secrets from the AWS SSM parameter store")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *paramStore)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("connected to database")

	rmq, err := messaging.NewRabbitMQ(
		cfg.RabbitMQ.Host,
		cfg.RabbitMQ.Port,
		cfg.RabbitMQ.User,
		cfg.RabbitMQ.Password,
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	var m mailer.Mailer
	switch cfg.Mail.Driver {
	case config.MailerSES:
		sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(cfg.Mail.Region)}))
		m = mailer.NewSESMailer(ses.New(sess), cfg.Mail.Sender)
	default:
		m = mailer.NewLogMailer(logger)
	}
	logger.Info("mailer ready", "driver", cfg.Mail.Driver, "admin", cfg.Mail.AdminEmail)

	processedRepo := repository.NewProcessedMessageRepository(db)
	notifier := service.NewNotificationService(m, cfg.Mail.AdminEmail, logger)

	consumer := messaging.NewReportCreatedConsumer(rmq, processedRepo, notifier, logger)
	consumer.Start()
	defer consumer.Stop()

	go pruneProcessed(ctx, processedRepo, logger)

	r := handler.NewRouter(handler.NewHealthHandler(rmq, processedRepo, logger))

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("notification service starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func pruneProcessed(ctx context.Context, repo *repository.ProcessedMessageRepository, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteOlderThan(ctx, processedRetention)
			if err != nil {
				logger.Error("prune processed messages", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("pruned processed messages", "count", n)
			}
		}
	}
}

// loadConfig reads the config file and, when asked, overlays the tagged
// secrets from SSM using the ambient AWS credentials and region.
func loadConfig(path string, paramStore bool) (*config.Config, error) {
	if !paramStore {
		return config.LoadConfig(path)
	}

	sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return config.LoadConfigWithParams(ctx, path, ssm.New(sess))
}
