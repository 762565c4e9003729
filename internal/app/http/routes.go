package routes

import (
	"net/http"

	adminapi "oahelper-api/internal/api/admin"
	authapi "oahelper-api/internal/api/auth"
	moderationapi "oahelper-api/internal/api/moderation"
	oacoinsapi "oahelper-api/internal/api/oacoins"
	premiumapi "oahelper-api/internal/api/premium"
	solutionsapi "oahelper-api/internal/api/solutions"
	usersapi "oahelper-api/internal/api/users"
	"oahelper-api/internal/app/http/middleware"
	"oahelper-api/internal/domain/session"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/platform/metrics"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth       *authapi.Handler
	Users      *usersapi.Handler
	OACoins    *oacoinsapi.Handler
	Premium    *premiumapi.Handler
	Solutions  *solutionsapi.Handler
	Moderation *moderationapi.Handler
	Admin      *adminapi.Handler
}

type Options struct {
	APIKey         string
	AllowedOrigins []string
	Development    bool
	Sessions       *session.Issuer
	// CodeLimiter throttles the routes that send a code by email. Nil disables it.
	CodeLimiter middleware.Limiter
	Metrics     *metrics.Metrics
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics.Handler())
	}

	api := r.Group("/api")
	api.Use(
		middleware.Gatekeeper(opts.APIKey, opts.AllowedOrigins, opts.Development),
		middleware.SanitizeAndCleanInputMiddleware(),
	)

	authed := middleware.AuthMiddleware(opts.Sessions)
	adminOnly := []gin.HandlerFunc{authed, middleware.RequireRole(users.RoleAdmin)}

	auth := api.Group("/auth")
	auth.POST("/signup", middleware.RateLimit(opts.CodeLimiter, "signup"), h.Auth.Signup)
	auth.POST("/verify-code", h.Auth.VerifyCode)
	auth.POST("/resend-code", middleware.RateLimit(opts.CodeLimiter, "resend"), h.Auth.ResendCode)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/forgot-password", middleware.RateLimit(opts.CodeLimiter, "forgot"), h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)
	auth.POST("/check-email", h.Auth.CheckEmail)

	me := api.Group("/users")
	me.GET("/me", authed, h.Users.GetCurrentUser)
	me.GET("/lookup", h.Users.Lookup)

	coins := api.Group("/oacoins")
	coins.GET("/balance", h.OACoins.Balance)
	coins.GET("/user", h.OACoins.UserByEmail)
	coins.GET("/transactions", h.OACoins.Transactions)
	coins.POST("/purchase-premium", h.OACoins.PurchasePremium)
	coins.POST("/extend-premium", h.OACoins.ExtendPremium)
	coinsAdmin := coins.Group("", adminOnly...)
	coinsAdmin.POST("/add", h.OACoins.Add)
	coinsAdmin.POST("/deduct", h.OACoins.Deduct)
	coinsAdmin.POST("/set", h.OACoins.Set)

	premium := api.Group("/premium")
	premium.GET("/status", h.Premium.Status)
	premium.GET("/question-access", h.Premium.QuestionAccess)
	premium.POST("/question-access", h.Premium.IncrementQuestionAccess)
	premium.POST("/payments", h.Premium.SubmitPayment)
	premium.GET("/payment-qr", h.Premium.PaymentQR)
	premiumAdmin := premium.Group("", adminOnly...)
	premiumAdmin.GET("/payments", h.Premium.Payments)
	premiumAdmin.PUT("/payments/:id", h.Premium.DecidePayment)
	premiumAdmin.DELETE("/payments/:id", h.Premium.DeletePayment)
	premiumAdmin.POST("/manual-activate", h.Premium.ManualActivate)
	premiumAdmin.POST("/subscriptions/:id/cancel", h.Premium.CancelSubscription)
	premiumAdmin.GET("/users", h.Premium.Users)
	premiumAdmin.GET("/stats", h.Premium.Stats)

	solutions := api.Group("/solutions")
	solutions.GET("/daily-count", h.Solutions.DailyCount)
	solutions.GET("/solution", h.Solutions.Solution)
	solutions.GET("/request-status", h.Solutions.RequestStatus)
	solutions.POST("/requests", h.Solutions.Request)
	solutionsAdmin := solutions.Group("", adminOnly...)
	solutionsAdmin.GET("/requests", h.Solutions.Requests)
	solutionsAdmin.POST("/requests/:id/send", h.Solutions.Send)
	solutionsAdmin.PUT("/requests/:id", h.Solutions.Update)

	api.POST("/reports", h.Moderation.SubmitReport)
	api.POST("/feedback", h.Moderation.SubmitFeedback)

	// Admin login sits outside the admin group; everything else needs an admin session.
	api.POST("/admin/login", h.Auth.AdminLogin)
	admin := api.Group("/admin", adminOnly...)
	admin.GET("/me", h.Auth.AdminInfo)
	admin.POST("/change-password", h.Auth.AdminChangePassword)
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/users/:id", h.Admin.GetUser)
	admin.GET("/banned-emails", h.Admin.ListBans)
	admin.POST("/banned-emails", h.Admin.Ban)
	admin.GET("/banned-emails/check", h.Admin.CheckBan)
	admin.DELETE("/banned-emails/:id", h.Admin.Unban)
	admin.GET("/reports", h.Moderation.Reports)
	admin.PUT("/reports/:table/:id", h.Moderation.UpdateReport)
	admin.DELETE("/reports/:table/:id", h.Moderation.DeleteReport)
	admin.GET("/feedback", h.Moderation.Feedback)
}
