// Package app assembles the stores, services and handlers into a gin engine.
package app

import (
	"time"

	"oahelper-api/config"
	adminapi "oahelper-api/internal/api/admin"
	authapi "oahelper-api/internal/api/auth"
	moderationapi "oahelper-api/internal/api/moderation"
	oacoinsapi "oahelper-api/internal/api/oacoins"
	premiumapi "oahelper-api/internal/api/premium"
	"oahelper-api/internal/api/respond"
	solutionsapi "oahelper-api/internal/api/solutions"
	usersapi "oahelper-api/internal/api/users"
	routes "oahelper-api/internal/app/http"
	"oahelper-api/internal/app/http/middleware"
	"oahelper-api/internal/domain/admins"
	"oahelper-api/internal/domain/coins"
	"oahelper-api/internal/domain/moderation"
	"oahelper-api/internal/domain/premium"
	"oahelper-api/internal/domain/quota"
	"oahelper-api/internal/domain/session"
	"oahelper-api/internal/domain/users"
	"oahelper-api/internal/mailer"
	"oahelper-api/internal/payment/upi"
	"oahelper-api/internal/platform/metrics"
	"oahelper-api/internal/supabase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Infra carries the already connected backends.
type Infra struct {
	DB      *supabase.Client
	Mail    *mailer.Mailer
	Metrics *metrics.Metrics
	Log     *logrus.Entry

	// Counters defaults to the REST implementation.
	Counters quota.Counters
	// CodeLimiter is nil when code routes are not throttled.
	CodeLimiter middleware.Limiter

	Now func() time.Time
}

// NewRouter builds the engine with the full middleware chain and every route.
func NewRouter(cfg *config.Config, in Infra) *gin.Engine {
	now := in.Now
	if now == nil {
		now = time.Now
	}
	counters := in.Counters
	if counters == nil {
		counters = quota.NewRESTCounters(in.DB, now)
	}

	userStore := users.NewStore(in.DB, cfg.SupabaseRPCSecret, now)
	journal := coins.NewJournal(in.DB, now)
	ledger := coins.NewLedger(userStore, journal, in.Log)
	premiumSvc := premium.NewService(premium.NewStore(in.DB, now), userStore, ledger, in.Mail, in.Log, now)
	quotaSvc := quota.NewService(counters, quota.NewStore(in.DB, now), premiumSvc.Store(), userStore, in.Mail, in.Log, now, cfg.Location)
	moderationSvc := moderation.NewService(in.DB, in.Log, now)
	adminSvc := admins.NewService(admins.NewStore(in.DB, now), in.Log)
	sessions := session.NewIssuer(cfg.JWTSecret, cfg.SessionTTL, now)

	handlers := routes.Handlers{
		Auth:       authapi.NewHandler(userStore, in.Mail, sessions, adminSvc, now),
		Users:      usersapi.NewHandler(userStore, premiumSvc.Store(), quotaSvc, now),
		OACoins:    oacoinsapi.NewHandler(userStore, ledger, premiumSvc, in.Mail),
		Premium:    premiumapi.NewHandler(premiumSvc, quotaSvc, upi.Payee{VPA: cfg.UPIVPA, Name: cfg.UPIPayeeName}),
		Solutions:  solutionsapi.NewHandler(quotaSvc),
		Moderation: moderationapi.NewHandler(moderationSvc),
		Admin:      adminapi.NewHandler(userStore, premiumSvc, journal, now),
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		in.Log.WithError(err).Warn("invalid TRUSTED_PROXIES, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.RequestID(in.Log),
		in.Metrics.Middleware(),
		middleware.Recovery(),
		respond.Mode(cfg.IsDevelopment()),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	routes.RegisterRoutes(r, handlers, routes.Options{
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.AllowedOrigins,
		Development:    cfg.IsDevelopment(),
		Sessions:       sessions,
		CodeLimiter:    in.CodeLimiter,
		Metrics:        in.Metrics,
	})
	return r
}
