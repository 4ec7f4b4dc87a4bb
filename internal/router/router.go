package router

import (
	"time"

	"coursepass/config"
	"coursepass/internal/handler"
	"coursepass/internal/middleware"
	"coursepass/internal/repository"
	"coursepass/internal/service"
	"coursepass/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	trialRepo := repository.NewTrialRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo)
	authSvc := service.NewAuthService(cfg, userRepo, resetRepo, notifSvc)
	memberSvc := service.NewMembershipService(membershipRepo, paymentRepo, userRepo, trialRepo, courseRepo, notifSvc)

	// Gateway providers
	paypalProvider := payment.NewPayPalProvider(cfg.PayPal.BusinessEmail, cfg.PayPal.Sandbox)
	stripeProvider := payment.NewStripeProvider(cfg.Stripe.SecretKey)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, authSvc, memberSvc, userRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	accountHandler := handler.NewAccountHandler(authSvc, memberSvc, userRepo, paymentRepo, notificationRepo)
	courseHandler := handler.NewCourseHandler(courseRepo, memberSvc, userRepo)
	paypalHandler := handler.NewPayPalHandler(cfg, paypalProvider, paymentRepo, memberSvc, userRepo, notifSvc)
	stripeHandler := handler.NewStripeHandler(cfg, stripeProvider, paymentRepo, memberSvc, userRepo, notifSvc)
	adminHandler := handler.NewAdminHandler(membershipRepo, paymentRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/register/trial", authHandler.RegisterTrial)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/availability", authHandler.Availability)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		api.GET("/plans", handler.Plans)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", accountHandler.Me)
			me.GET("/membership", accountHandler.Membership)
			me.GET("/payments", accountHandler.Payments)
			me.PATCH("/email", accountHandler.UpdateEmail)
			me.PATCH("/password", accountHandler.UpdatePassword)
			me.GET("/notifications", accountHandler.Notifications)
			me.PUT("/notifications/:id/read", accountHandler.MarkNotificationRead)
		}

		courses := api.Group("/courses")
		courses.Use(authMw)
		{
			courses.GET("", courseHandler.List)
			courses.GET("/:id", courseHandler.Get)
		}

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("/paypal/checkout", paypalHandler.Checkout)
			payments.POST("/stripe/checkout-session", stripeHandler.CreateCheckoutSession)
			payments.POST("/stripe/payment-intent", stripeHandler.CreatePaymentIntent)
			payments.POST("/stripe/confirm", stripeHandler.ConfirmPayment)
		}
		api.POST("/webhooks/paypal/ipn", paypalHandler.HandleIPN)
		api.POST("/webhooks/stripe", stripeHandler.HandleWebhook)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/members", adminHandler.Members)
			admin.GET("/payments", adminHandler.Payments)
		}
	}

	return r
}
