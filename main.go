package main

import (
	"context"
	"log"
	"time"

	"trivia-service/internal/config"
	"trivia-service/internal/db"
	"trivia-service/internal/event"
	"trivia-service/internal/handlers"
	"trivia-service/internal/mailer"
	"trivia-service/internal/middleware"
	"trivia-service/internal/models"
	"trivia-service/internal/repository"
	"trivia-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db.InitMongo(cfg.MongoURI)
	defer db.Disconnect()
	database := db.Client.Database(cfg.MongoDatabase)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	// Redis is optional: verification codes and the answer rate
	// limiter degrade without it.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		var err error
		redisClient, err = db.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		log.Println("Redis not configured, skipping email verification and rate limiting")
	}

	// RabbitMQ event publisher
	var publisher *event.Publisher
	if cfg.RabbitURI != "" && cfg.RabbitExchange != "" {
		var err error
		publisher, err = event.NewPublisher(cfg.RabbitURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Repositories
	userRepo := repository.NewUserRepository(database)
	triviaRepo := repository.NewTriviaRepository(database)
	questionRepo := repository.NewQuestionRepository(database)
	resultRepo := repository.NewResultRepository(database)

	// Services
	jwtManager := middleware.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	authService := service.NewAuthService(userRepo, redisClient, mail, jwtManager)
	triviaService := service.NewTriviaService(triviaRepo, questionRepo, resultRepo)
	sessionService := service.NewSessionService(resultRepo, triviaRepo, questionRepo)
	leaderboardService := service.NewLeaderboardService(resultRepo, userRepo, triviaRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	triviaHandler := handlers.NewTriviaHandler(triviaService, sessionService, leaderboardService)
	resultHandler := handlers.NewResultHandler(leaderboardService, sessionService)

	authRequired := middleware.AuthRequired(jwtManager, userRepo)
	authOptional := middleware.AuthOptional(jwtManager, userRepo)
	answerLimit := middleware.AnswerRateLimit(redisClient, cfg.AnswerRateLimit, time.Duration(cfg.AnswerRateWindow)*time.Second)
	authorsOnly := middleware.RequireRole(models.RoleAdmin, models.RoleFacilitator)

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.GET("/profile", authRequired, authHandler.Profile)
		auth.PUT("/profile", authRequired, authHandler.UpdateProfile)
		auth.PUT("/change-password", authRequired, authHandler.ChangePassword)
	}

	// catalog reads are public; everything that writes or names a
	// caller requires auth
	trivia := r.Group("/api/trivia")
	{
		trivia.GET("/", triviaHandler.List)
		trivia.GET("/:id", authOptional, triviaHandler.Get)
		trivia.GET("/mine", authRequired, authorsOnly, triviaHandler.Mine)
		trivia.GET("/join/:code", authRequired, triviaHandler.JoinByCode)
		trivia.POST("/", authRequired, authorsOnly, func(c *gin.Context) {
			triviaHandler.Create(c)
			if publisher != nil && c.Writer.Status() < 300 {
				publisher.Publish("trivia.trivia.created", gin.H{"timestamp": time.Now()})
			}
		})
		trivia.POST("/:id/questions", authRequired, triviaHandler.AddQuestion)
		trivia.PATCH("/:id/toggle", authRequired, triviaHandler.ToggleActive)
		trivia.DELETE("/:id", authRequired, func(c *gin.Context) {
			triviaHandler.Delete(c)
			if publisher != nil && c.Writer.Status() < 300 {
				publisher.Publish("trivia.trivia.deleted", gin.H{"id": c.Param("id"), "timestamp": time.Now()})
			}
		})

		trivia.POST("/:id/start", authRequired, triviaHandler.StartAttempt)
		trivia.POST("/:id/answer", authRequired, answerLimit, triviaHandler.SubmitAnswer)
		trivia.POST("/:id/complete", authRequired, func(c *gin.Context) {
			triviaHandler.CompleteAttempt(c)
			if publisher != nil && c.Writer.Status() < 300 {
				publisher.Publish("trivia.attempt.completed", gin.H{"trivia_id": c.Param("id"), "timestamp": time.Now()})
			}
		})
		trivia.GET("/:id/results/download", authRequired, triviaHandler.DownloadResults)
	}

	results := r.Group("/api/results")
	{
		results.GET("/leaderboard", resultHandler.GlobalLeaderboard)
		results.GET("/leaderboard/:triviaId", resultHandler.TriviaLeaderboard)
		results.GET("/my-stats", authRequired, resultHandler.MyStats)
		results.GET("/user-stats/:userId", authRequired, resultHandler.UserStats)
		results.GET("/my-results", authRequired, resultHandler.MyResults)
		results.GET("/trivia/:triviaId", authRequired, resultHandler.TriviaReport)
		results.GET("/:resultId/detail", authRequired, resultHandler.ResultDetail)
		results.POST("/submit", authRequired, answerLimit, func(c *gin.Context) {
			resultHandler.Submit(c)
			if publisher != nil && c.Writer.Status() < 300 {
				publisher.Publish("trivia.attempt.submitted", gin.H{"timestamp": time.Now()})
			}
		})
	}

	log.Printf("trivia-service listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
