package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nawel-dev/nawel/internal/handlers"
	"github.com/nawel-dev/nawel/internal/middleware"
	"github.com/nawel-dev/nawel/internal/services"
)

func NewRouter(db *gorm.DB, log *logrus.Logger, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.Recovery(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authSvc := services.NewAuthService(db, log)
	giftSvc := services.NewGiftService(db, log)
	reservationSvc := services.NewReservationService(db, log)
	userSvc := services.NewUserService(db, log)

	authHandler := handlers.NewAuthHandler(authSvc, log)
	giftHandler := handlers.NewGiftHandler(giftSvc, reservationSvc, log)
	userHandler := handlers.NewUserHandler(userSvc, log)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.GET("/validate-reset-token", authHandler.ValidateResetToken)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
			auth.PUT("/password", middleware.AuthMiddleware(), authHandler.ChangePassword)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("/family", userHandler.FamilyMembers)
		}

		gifts := api.Group("/gifts", middleware.AuthMiddleware())
		{
			gifts.GET("/years", giftHandler.Years)
			gifts.GET("/my-list", giftHandler.MyList)
			gifts.GET("/user/:user_id", giftHandler.UserList)
			gifts.POST("", giftHandler.Create)
			gifts.PUT("/:gift_id", giftHandler.Update)
			gifts.DELETE("/:gift_id", giftHandler.Delete)
			gifts.POST("/:gift_id/reserve", giftHandler.Reserve)
			gifts.DELETE("/:gift_id/reserve", giftHandler.Unreserve)
			gifts.POST("/import-from-year/:year", giftHandler.ImportFromYear)
			gifts.GET("/manage-child/:child_id", giftHandler.ChildList)
			gifts.POST("/manage-child/:child_id", giftHandler.ChildCreate)
		}
	}

	return r
}
