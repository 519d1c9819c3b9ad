package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"review-sentiment/internal/config"
	"review-sentiment/internal/dashboard"
	"review-sentiment/internal/middleware"
	"review-sentiment/internal/repository"
	"review-sentiment/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting review dashboard...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	repo := repository.NewReviewRepository(cfg.Database.Path, logger)
	ingestor := service.NewIngestor(repo, cfg.Database.Schema, logger)
	predictor := service.NewPredictor(cfg.Model.Path, logger)

	cache := dashboard.NewCache(repo, predictor, logger)
	handler := dashboard.NewHandler(cache, ingestor, repo, dashboard.Options{
		MaxUploadBytes: int64(cfg.Dashboard.MaxUploadMB) << 20,
		TableLimit:     cfg.Dashboard.TableLimit,
		UploadTTL:      time.Duration(cfg.Dashboard.UploadTTLMinutes) * time.Minute,
	}, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Observe(logger))
	router.MaxMultipartMemory = int64(cfg.Dashboard.MaxUploadMB) << 20

	handler.RegisterRoutes(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Dashboard is running",
		zap.String("address", serverAddr),
		zap.String("db_path", cfg.Database.Path),
		zap.String("model_path", cfg.Model.Path))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
