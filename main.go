package main

import (
	"context"
	"time"

	"oahelper-api/config"
	"oahelper-api/database"
	"oahelper-api/internal/app"
	"oahelper-api/internal/app/http/middleware"
	"oahelper-api/internal/domain/quota"
	"oahelper-api/internal/mailer"
	"oahelper-api/internal/platform/logger"
	"oahelper-api/internal/platform/metrics"
	"oahelper-api/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.New("oahelper-api", cfg.LogLevel).WithField("env", string(cfg.Env))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	db := supabase.New(supabase.Config{
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    cfg.SupabaseTimeout,
	}, log.WithField("component", "supabase"), m)

	var sender mailer.Sender = mailer.NewSMTPSender(cfg.SMTP)
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		sender = mailer.NewLogSender(log.WithField("component", "mailer"))
	}
	mail := mailer.New(sender, cfg.FrontendURL, cfg.AdminEmail, m, log.WithField("component", "mailer"))

	infra := app.Infra{DB: db, Mail: mail, Metrics: m, Log: log}

	if cfg.DBURL != "" {
		gdb, err := database.Open(cfg.DBURL, log)
		if err != nil {
			log.WithError(err).Fatal("failed to open counter database")
		}
		infra.Counters = quota.NewSQLCounters(gdb, nil)
	}

	if cfg.CodeRateLimit > 0 {
		infra.CodeLimiter = middleware.NewMemoryLimiter(cfg.CodeRateLimit)
		if cfg.RedisURL != "" {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				log.WithError(err).Fatal("invalid REDIS_URL")
			}
			client := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := client.Ping(ctx).Err(); err != nil {
				log.WithError(err).Warn("redis unreachable, rate limiting in memory")
			} else {
				infra.CodeLimiter = middleware.NewRedisLimiter(client, cfg.CodeRateLimit, nil)
			}
			cancel()
		}
	}

	r := app.NewRouter(cfg, infra)

	log.WithField("port", cfg.Port).Info("🚀 server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
