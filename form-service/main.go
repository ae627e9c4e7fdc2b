package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/config"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/client"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/controller"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/handler"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/quote"
	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the config file (.json or .hcl)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.API.BaseURL == "" {
		log.Fatalf("api.base_url is required")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Banner quotes rotate on their own timer
	quotes := quote.NewRotator(quote.WasteQuotes, time.Duration(cfg.Server.QuoteIntervalSeconds)*time.Second)
	quotes.Start(ctx)

	apiClient := client.NewAPIClient(cfg.API.BaseURL, &http.Client{})
	formController := controller.NewFormController(apiClient, logger)
	formHandler := handler.NewFormHandler(formController, quotes, logger)

	r := handler.NewRouter(formHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("form service starting", "addr", addr, "api", cfg.API.BaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
