// Package main runs the trip planner HTTP server with WebSocket rooms and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pitstop-trips/backend/config"
	"github.com/pitstop-trips/backend/internal/auth"
	"github.com/pitstop-trips/backend/internal/confirmed"
	"github.com/pitstop-trips/backend/internal/expenses"
	"github.com/pitstop-trips/backend/internal/friends"
	"github.com/pitstop-trips/backend/internal/invites"
	"github.com/pitstop-trips/backend/internal/middleware"
	"github.com/pitstop-trips/backend/internal/music"
	"github.com/pitstop-trips/backend/internal/notifications"
	"github.com/pitstop-trips/backend/internal/proposals"
	"github.com/pitstop-trips/backend/internal/realtime"
	"github.com/pitstop-trips/backend/internal/routing"
	"github.com/pitstop-trips/backend/internal/sweeper"
	"github.com/pitstop-trips/backend/internal/trips"
	"github.com/pitstop-trips/backend/internal/users"
	"github.com/pitstop-trips/backend/internal/votes"
	"github.com/pitstop-trips/backend/internal/worker"
	"github.com/pitstop-trips/backend/pkg/database"
	"github.com/pitstop-trips/backend/pkg/queue"
	"github.com/pitstop-trips/backend/pkg/redis"
	"github.com/pitstop-trips/backend/pkg/response"
	"github.com/pitstop-trips/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Profile pictures are optional; without S3 the upload route answers 503.
	var pictures users.PictureStore
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ProfileBucket:        cfg.AWS.ProfileBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			pictures = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Users and social graph
	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(userRepo, jwtService, pictures, logger)
	friendHandler := friends.NewHandler(friends.NewRepository(pool), logger)

	// Trips
	tripRepo := trips.NewRepository(pool)
	tripHandler := trips.NewHandler(tripRepo, logger)
	inviteHandler := invites.NewHandler(invites.NewRepository(pool), logger)
	expenseHandler := expenses.NewHandler(expenses.NewRepository(pool), logger)

	// Proposals, votes and confirmations
	proposalRepo := proposals.NewRepository(pool, cfg.Voting.ProposalTTL)
	proposalHandler := proposals.NewHandler(proposalRepo, logger)
	confirmedHandler := confirmed.NewHandler(confirmed.NewRepository(pool), logger)
	engine := votes.NewEngine(
		votes.NewPostgresStore(pool, proposalRepo),
		logger,
		votes.NewRoomListener(hub),
		votes.NewQueueListener(jobQueue, logger),
	)
	voteHandler := votes.NewHandler(engine, votes.NewReadModel(pool), logger)

	// Notifications
	notificationRepo := notifications.NewRepository(pool)
	notificationHandler := notifications.NewHandler(notificationRepo, logger)
	notificationProcessor := worker.NewNotificationProcessor(notificationRepo, jobQueue, logger)

	// Third-party proxies
	routingHandler := routing.NewHandler(
		routing.NewClient(cfg.Google.MapsAPIKey, cfg.Google.RoutesURL, cfg.Google.PlacesURL, cfg.External.Timeout),
		logger,
	)
	musicHandler := music.NewHandler(
		music.NewTokenSource(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.TokenURL, cfg.External.Timeout, rdb, logger),
		logger,
	)

	jwtValidate := func(token string) (int64, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins()))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// A bearer token is optional; when present, user-scoped writes must match it.
	api := router.Group("/api")
	api.Use(middleware.OptionalJWT(jwtService))
	{
		api.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

		// Users
		api.POST("/users", userHandler.Save)
		api.GET("/users/search", userHandler.Search)
		api.GET("/users/firebase/:uid", userHandler.GetByFirebaseUID)
		api.GET("/users/sql/:id", userHandler.GetByID)
		api.POST("/users/:id/profile-pic", userHandler.UploadProfilePic)

		// Friends
		api.GET("/friends", friendHandler.List)
		api.GET("/friends/requests", friendHandler.Pending)
		api.POST("/friends/:id", friendHandler.Request)
		api.POST("/friends/:id/accept", friendHandler.Accept)
		api.DELETE("/friends/:id", friendHandler.Remove)

		// Trips
		api.GET("/trips", tripHandler.List)
		api.GET("/trips/creator", tripHandler.ListByCreator)
		api.GET("/trips/user/:id", tripHandler.ListByUser)
		api.POST("/trips", tripHandler.Create)
		api.GET("/trips/:id", tripHandler.Get)
		api.DELETE("/trips/:id", tripHandler.Delete)
		api.GET("/trips/:id/participants", tripHandler.Participants)
		api.POST("/trips/:id/participants", tripHandler.AddParticipant)

		// Trip invites
		api.POST("/trip-invites", inviteHandler.Send)
		api.GET("/trip-invites/pending/:userId", inviteHandler.Pending)
		api.POST("/trip-invites/:inviteId/respond", inviteHandler.Respond)

		// Proposals
		api.GET("/trip-proposals/:tripId/proposed-songs", proposalHandler.ListSongs)
		api.GET("/trip-proposals/:tripId/proposed-stops", proposalHandler.ListStops)
		api.POST("/trip-proposals/propose-song", proposalHandler.ProposeSong)
		api.POST("/trip-proposals/propose-stop", proposalHandler.ProposeStop)

		// Confirmed
		api.GET("/confirmed/songs/trip/:tripId", confirmedHandler.ListSongs)
		api.GET("/confirmed/stops/trip/:tripId", confirmedHandler.ListStops)

		// Votes
		api.POST("/votes", voteHandler.Submit)
		api.GET("/votes/counts/:tripId", voteHandler.Counts)
		api.GET("/votes/trip/:tripId/user/:userId", voteHandler.UserVotes)

		// Expenses
		api.POST("/expenses", expenseHandler.Add)
		api.GET("/expenses/trip/:tripId", expenseHandler.ListByTrip)
		api.PUT("/expenses/:expenseId", expenseHandler.Update)
		api.DELETE("/expenses/:expenseId", expenseHandler.Delete)

		// Google and Spotify proxies
		api.POST("/routes/create", routingHandler.CreateRoute)
		api.POST("/stops/search", routingHandler.SearchStops)
		api.GET("/spotify/token", musicHandler.Token)

		// Notifications
		api.GET("/notifications/user/:userId", notificationHandler.ListByUser)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	// WebSocket (token in query; no Authorization header required)
	ws := realtime.ServeWs(hub, logger, jwtValidate, tripRepo.IsParticipant)
	router.GET("/ws", ws)
	router.GET("/api/ws", ws)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background jobs (notification fan-out, proposal expiry)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go notificationProcessor.Run(workerCtx)
	if cfg.Voting.SweeperEnabled {
		sw := sweeper.New(proposalRepo, cfg.Voting.ProposalTTL, cfg.Voting.SweepInterval, logger)
		go sw.Run(workerCtx)
		logger.Info("expiry sweeper started", zap.Duration("interval", cfg.Voting.SweepInterval))
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.Strings("cors_origins", cfg.Server.AllowedOrigins()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
