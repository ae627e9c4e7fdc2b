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
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/ssm"
	_ "github.com/lib/pq"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/config"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/handler"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/messaging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/repository"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/service"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/storage"
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

	// Connect to RabbitMQ
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
	logger.Info("connected to RabbitMQ")

	var sess *session.Session
	awsSession := func(region string) *session.Session {
		if sess == nil {
			sess = session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))
		}
		return sess
	}

	// Object storage
	var (
		presigner     storage.Presigner
		uploadHandler *handler.UploadHandler
	)
	switch cfg.Storage.Mode {
	case config.StorageS3:
		presigner = storage.NewS3Presigner(s3.New(awsSession(cfg.Storage.Region)), cfg.Storage.Bucket)
		logger.Info("using S3 uploads", "bucket", cfg.Storage.Bucket)
	default:
		local := storage.NewLocalStore(cfg.Storage.LocalRoot, []byte(cfg.Storage.Secret), cfg.Storage.PublicBaseURL)
		presigner = local
		uploadHandler = handler.NewUploadHandler(local, logger)
		logger.Info("using local uploads", "root", cfg.Storage.LocalRoot)
	}

	// Report store
	var (
		store        service.ReportStore
		adminHandler *handler.AdminHandler
	)
	switch cfg.Store.Driver {
	case config.DriverDynamoDB:
		db := dynamodb.New(awsSession(cfg.DynamoDB.Region))
		store = repository.NewDynamoReportRepository(db, cfg.DynamoDB.Table, rmq, logger)
		logger.Info("using DynamoDB report store", "table", cfg.DynamoDB.Table)
	default:
		db := openPostgres(cfg.Database, logger)
		defer db.Close()

		outboxRepo := repository.NewOutboxRepository(db)
		store = repository.NewReportRepository(db, outboxRepo)

		outboxWorker := messaging.NewOutboxWorker(outboxRepo, rmq, logger)
		outboxWorker.Start()
		defer outboxWorker.Stop()
		adminHandler = handler.NewAdminHandler(outboxWorker)
	}

	reportService := service.NewReportService(store)
	uploadService := service.NewUploadService(presigner)
	reportHandler := handler.NewReportHandler(reportService, uploadService, logger)

	r := handler.NewRouter(reportHandler, uploadHandler, adminHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("report service starting", "addr", addr, "storage", cfg.Storage.Mode, "store", cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openPostgres(cfg config.DatabaseConfig, logger *slog.Logger) *sql.DB {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("connected to database", "host", cfg.Host, "dbname", cfg.DBName)
	return db
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
