package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"physiotrack/practice-app/internal/api"
	"physiotrack/practice-app/internal/config"
	"physiotrack/practice-app/internal/repository/mongo"
	"physiotrack/practice-app/internal/service"
	"physiotrack/practice-app/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting practice server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}
	practiceLoc := cfg.Practice.Location()
	logger.Info("configuration loaded", zap.String("timezone", practiceLoc.String()))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	// Runs in the background; the unique ledger indexes must exist before
	// completions arrive, and a fresh deployment has them within seconds.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureTreatmentPlanIndexes(ctx, appDB.Collection("treatment_plans"))
		mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("assignments"))
		mongo.EnsureCompletionIndexes(ctx, appDB.Collection("completions"))
		mongo.EnsureTreatmentSessionIndexes(ctx, appDB.Collection("treatment_sessions"))
		mongo.EnsureDiaryIndexes(ctx, appDB.Collection("diary_entries"))
		logger.Info("index creation process completed")
	}()

	// --- Initialize Storage ---
	mediaStorage, err := storage.NewS3Storage(cfg.Media, logger)
	if err != nil {
		logger.Fatal("failed to initialize media storage", zap.Error(err))
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	planRepo := mongo.NewMongoTreatmentPlanRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	completionRepo := mongo.NewMongoCompletionRepository(appDB)
	sessionRepo := mongo.NewMongoTreatmentSessionRepository(appDB)
	diaryRepo := mongo.NewMongoDiaryRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	exerciseService := service.NewExerciseService(exerciseRepo, mediaStorage)
	therapistService := service.NewTherapistService(
		userRepo, planRepo, exerciseRepo, assignmentRepo, completionRepo, sessionRepo,
		logger, practiceLoc, nil,
	)
	patientService := service.NewPatientService(
		assignmentRepo, completionRepo, exerciseRepo, diaryRepo,
		logger, practiceLoc, nil,
	)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, exerciseService, therapistService, patientService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
