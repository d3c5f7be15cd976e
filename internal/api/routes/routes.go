package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"poll-service/internal/api/handlers"
	"poll-service/internal/api/middleware"
	"poll-service/internal/config"
	"poll-service/internal/repositories/postgres"
	"poll-service/internal/services"
	"poll-service/internal/websocket"
)

type Router struct {
	engine         *gin.Engine
	wsHandler      *handlers.WSHandler
	pollHandler    *handlers.PollHandler
	voteHandler    *handlers.VoteHandler
	commentHandler *handlers.CommentHandler
	userHandler    *handlers.UserHandler
	authHandler    *handlers.AuthHandler
	rateLimitMW    *middleware.RateLimitMiddleware
	authMW         *middleware.AuthMiddleware
}

func NewRouter(
	hub *websocket.Hub,
	redisService *services.RedisService,
	db *gorm.DB,
	producer services.VoteEventPublisher,
	images services.OptionImageStore,
	cfg *config.Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	pollRepo := postgres.NewPollRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	commentRepo := postgres.NewCommentRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	pollService := services.NewPollService(pollRepo, images)
	voteService := services.NewVoteService(pollRepo, voteRepo, producer, redisService, cfg.Vote.IPHashSalt)
	tallyService := services.NewTallyService(pollRepo, redisService, cfg.Vote.TallyCacheTTL)
	commentService := services.NewCommentService(commentRepo, pollRepo)

	return &Router{
		engine:         engine,
		wsHandler:      handlers.NewWSHandler(hub),
		pollHandler:    handlers.NewPollHandler(pollService),
		voteHandler:    handlers.NewVoteHandler(voteService, tallyService),
		commentHandler: handlers.NewCommentHandler(commentService),
		userHandler:    handlers.NewUserHandler(userService),
		authHandler:    handlers.NewAuthHandler(userService),
		rateLimitMW:    middleware.NewRateLimitMiddleware(redisService),
		authMW:         middleware.NewAuthMiddleware(cfg.JWT.Secret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint; guests may connect, a token adds identity
	api.GET("/ws",
		r.authMW.OptionalAuth(),
		r.rateLimitMW.WebSocketRateLimit(5, time.Minute), // 5 connections per minute
		r.wsHandler.HandleWebSocket,
	)

	// Public poll reads and voting. OptionalAuth attaches the caller's
	// identity when a token is present; anonymous voting stays possible on
	// polls that allow it.
	public := api.Group("/polls")
	public.Use(r.authMW.OptionalAuth())
	{
		public.GET("", r.pollHandler.ListPolls)
		public.GET("/:id", r.pollHandler.GetPoll)
		public.GET("/:id/results", r.voteHandler.GetResults)
		public.GET("/:id/comments", r.commentHandler.ListComments)
		public.GET("/:id/vote", r.voteHandler.GetMyBallot)
		public.POST("/:id/vote",
			r.rateLimitMW.RateLimitIP(30, time.Minute), // 30 ballots per minute per IP
			r.voteHandler.CastVote,
		)
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		// User routes
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute)) // 100 requests per minute
		{
			users.GET("/profile", r.userHandler.GetProfile)
			users.PUT("/profile", r.userHandler.UpdateProfile)
			users.GET("/search", r.userHandler.SearchUsers)
		}

		// Poll management routes
		polls := auth.Group("/polls")
		polls.Use(r.rateLimitMW.RateLimit(100, time.Minute)) // 100 requests per minute
		{
			polls.POST("", r.pollHandler.CreatePoll)
			polls.PUT("/:id", r.pollHandler.UpdatePoll)
			polls.POST("/:id/close", r.pollHandler.ClosePoll)
			polls.DELETE("/:id", r.pollHandler.DeletePoll)
			polls.POST("/:id/options/:optionId/image", r.pollHandler.UploadOptionImage)
			polls.POST("/:id/comments", r.commentHandler.CreateComment)
		}

		// Comment routes
		comments := auth.Group("/comments")
		comments.Use(r.rateLimitMW.RateLimit(100, time.Minute)) // 100 requests per minute
		{
			comments.PUT("/:id", r.commentHandler.UpdateComment)
			comments.DELETE("/:id", r.commentHandler.DeleteComment)
		}
	}

	// Public routes (no authentication required)
	authRoutes := api.Group("/auth")
	authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute)) // 50 requests per minute per IP
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
