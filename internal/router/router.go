// Package router wires repositories, services and handlers into a gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/Baaaki/yamdb/internal/apperror"
	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/handler"
	"github.com/Baaaki/yamdb/internal/mailer"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const APIPrefix = "/api/v1"

type Options struct {
	DB       *gorm.DB
	Mailer   mailer.Mailer
	MailFrom string

	JWTSecret string
	JWTExpiry time.Duration

	// AuthLimiter throttles the signup and token endpoints. Nil disables it.
	AuthLimiter middleware.Limiter

	CORSAllowedOrigins []string
	Production         bool
}

// New builds the HTTP engine.
func New(opts Options) *gin.Engine {
	// Initialize repositories
	userRepo := repository.NewUserRepository(opts.DB)
	categoryRepo := repository.NewCategoryRepository(opts.DB)
	genreRepo := repository.NewGenreRepository(opts.DB)
	titleRepo := repository.NewTitleRepository(opts.DB)
	reviewRepo := repository.NewReviewRepository(opts.DB)
	commentRepo := repository.NewCommentRepository(opts.DB)

	// Initialize services
	authService := service.NewAuthService(userRepo, opts.Mailer, opts.MailFrom, opts.JWTSecret, opts.JWTExpiry)
	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(categoryRepo, genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo, service.NewRatingAggregator(reviewRepo))
	reviewService := service.NewReviewService(reviewRepo, titleRepo)
	commentService := service.NewCommentService(commentRepo, reviewRepo, titleRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	titleHandler := handler.NewTitleHandler(titleService)
	reviewHandler := handler.NewReviewHandler(reviewService, commentService)
	healthHandler := handler.NewHealthHandler(opts.DB)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{
			Error:   string(apperror.KindMethodNotAllowed),
			Message: apperror.MethodNotAllowed(c.Request.Method).Message,
		})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   string(apperror.KindNotFound),
			Message: "resource not found",
		})
	})

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		gin.Recovery(),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(opts.Production),
	)
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler.Health)

	api := router.Group(APIPrefix)
	api.Use(middleware.AuthMiddleware(opts.JWTSecret, userRepo))

	// Public auth endpoints, throttled per client IP
	auth := api.Group("/auth")
	if opts.AuthLimiter != nil {
		auth.Use(middleware.RateLimit(opts.AuthLimiter))
	}
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	api.GET("/categories", catalogHandler.ListCategories)
	api.POST("/categories", catalogHandler.CreateCategory)
	api.DELETE("/categories/:slug", catalogHandler.DeleteCategory)

	api.GET("/genres", catalogHandler.ListGenres)
	api.POST("/genres", catalogHandler.CreateGenre)
	api.DELETE("/genres/:slug", catalogHandler.DeleteGenre)

	titles := api.Group("/titles")
	{
		titles.GET("", titleHandler.List)
		titles.POST("", titleHandler.Create)
		titles.GET("/:title_id", titleHandler.Get)
		titles.PATCH("/:title_id", titleHandler.Update)
		titles.DELETE("/:title_id", titleHandler.Delete)

		reviews := titles.Group("/:title_id/reviews")
		reviews.GET("", reviewHandler.ListReviews)
		reviews.POST("", reviewHandler.CreateReview)
		reviews.GET("/:review_id", reviewHandler.GetReview)
		reviews.PATCH("/:review_id", reviewHandler.UpdateReview)
		reviews.DELETE("/:review_id", reviewHandler.DeleteReview)

		comments := reviews.Group("/:review_id/comments")
		comments.GET("", reviewHandler.ListComments)
		comments.POST("", reviewHandler.CreateComment)
		comments.GET("/:comment_id", reviewHandler.GetComment)
		comments.PATCH("/:comment_id", reviewHandler.UpdateComment)
		comments.DELETE("/:comment_id", reviewHandler.DeleteComment)
	}

	users := api.Group("/users")
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)

		// Static segment wins over :username
		users.GET("/me", userHandler.Me)
		users.PATCH("/me", userHandler.UpdateMe)
		users.POST("/me", userHandler.MeNotAllowed)
		users.DELETE("/me", userHandler.MeNotAllowed)

		users.GET("/:username", userHandler.Get)
		users.PATCH("/:username", userHandler.Update)
		users.DELETE("/:username", userHandler.Delete)
	}

	return router
}
