package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"octofit/tracker-api/internal/api"
	"octofit/tracker-api/internal/config"
	"octofit/tracker-api/internal/logging"
	"octofit/tracker-api/internal/metrics"
	"octofit/tracker-api/internal/repository/mongo"
	"octofit/tracker-api/internal/service"
	"octofit/tracker-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// @title OctoFit Tracker API
// @version 1.0
// @description Profiles, teams, exercise catalog, workout plans and scored activities.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.FormatJSON,
	})
	log.Infoln("starting OctoFit tracker API ...")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %s", err)
	}
	defer func() {
		log.Infoln("disconnecting MongoDB ...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %s", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.WithField("database", cfg.Database.Name).Info("database connection established")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), time.Minute)
	mongo.EnsureIndexes(indexCtx, appDB)
	cancelIndexes()

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		storageCtx, cancelStorage := context.WithTimeout(context.Background(), 30*time.Second)
		fileStorage, err = storage.NewS3Storage(storageCtx, cfg.S3)
		cancelStorage()
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %s", err)
		}
	} else {
		log.Warnln("s3.bucket_name not set, picture and image uploads are disabled")
	}

	// --- Metrics ---
	var (
		metricsManager *metrics.Manager
		gatherer       prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsManager = metrics.NewManager(cfg.Metrics.Namespace, "api", reg)
		gatherer = reg
	} else {
		// services always record; the values are just never exposed
		metricsManager = metrics.NewManager(cfg.Metrics.Namespace, "api", prometheus.NewRegistry())
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseTypeRepo := mongo.NewMongoExerciseTypeRepository(appDB)
	activityRepo := mongo.NewMongoActivityRepository(appDB)
	teamRepo := mongo.NewMongoTeamRepository(appDB)
	membershipRepo := mongo.NewMongoMembershipRepository(appDB)
	planRepo := mongo.NewMongoWorkoutPlanRepository(appDB)

	// --- Initialize Services ---
	services := api.Services{
		Auth:          service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		Users:         service.NewUserService(userRepo, teamRepo, membershipRepo, activityRepo, planRepo, fileStorage),
		Teams:         service.NewTeamService(teamRepo, membershipRepo, activityRepo, userRepo, metricsManager),
		ExerciseTypes: service.NewExerciseTypeService(exerciseTypeRepo, activityRepo, planRepo, fileStorage),
		WorkoutPlans:  service.NewWorkoutPlanService(planRepo, exerciseTypeRepo),
		Activities:    service.NewActivityService(activityRepo, exerciseTypeRepo, metricsManager),
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(log.StandardLogger().Writer()))
	api.SetupRoutes(router, services, metricsManager, gatherer)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infoln("shutting down server ...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %s", err)
	}

	log.Infoln("server exiting")
}
