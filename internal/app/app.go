package app

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
	"github.com/Mishael-2584/odel-portal/internal/config"
	httpx "github.com/Mishael-2584/odel-portal/internal/http"
	"github.com/Mishael-2584/odel-portal/internal/http/handlers"
	"github.com/Mishael-2584/odel-portal/internal/http/middleware"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/auth"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/cache"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/database"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/moodle"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/notifications"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/repositories"
	"github.com/Mishael-2584/odel-portal/internal/services"
)

func Run(cfg *config.Config) error {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "odel-portal").Logger()

	if cfg.UsingPlaceholderSecret() {
		log.Warn().Msg("JWT_SECRET not set, using placeholder signing secret: all sessions are forgeable")
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return err
	}
	cas, err := auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil {
		return err
	}

	// Cache backend: per-process map by default, shared Redis when the
	// deployment needs coherence across instances.
	var responseCache domain.Cache
	switch cfg.CacheBackend {
	case "redis":
		rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := database.Ping(context.Background(), rdb); err != nil {
			return err
		}
		responseCache = cache.NewRedisCache(rdb, cfg.CacheTTL, log)
	default:
		responseCache = cache.NewMemoryCache(cfg.CacheTTL)
	}

	// Infrastructure services
	moodleClient := moodle.NewClient(cfg.MoodleBaseURL, cfg.MoodleToken, cfg.MoodleTimeout, log)
	tokenSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	passwordSvc := auth.NewPasswordService()
	mailer := notifications.NewMailerService(cfg.MailerBaseURL, log)

	// Repositories
	codeRepo := repositories.NewMagicCodeRepository(gdb)
	studentSessRepo := repositories.NewStudentSessionRepository(gdb)
	adminSessRepo := repositories.NewAdminSessionRepository(gdb)
	adminRepo := repositories.NewAdminRepository(gdb)

	// Services
	authCfg := services.AuthConfig{
		CodeLength:  cfg.CodeLength,
		CodeTTL:     cfg.CodeTTL,
		MaxAttempts: cfg.CodeMaxAttempts,
		SessionTTL:  cfg.SessionTTL,
	}
	authSvc := services.NewAuthService(moodleClient, codeRepo, studentSessRepo, adminSessRepo, adminRepo, passwordSvc, tokenSvc, mailer, authCfg, log)
	catalogSvc := services.NewCatalogService(moodleClient, responseCache, cfg.TreeTTL, log)

	// Handlers and middleware
	authH := handlers.NewAuthHandlers(authSvc)
	catalogH := handlers.NewCatalogHandlers(catalogSvc, log)
	authMW := middleware.NewAuthMW(authSvc)
	casbinMW := middleware.NewCasbinMW(cas.E)

	r := httpx.BuildRouter(authH, catalogH, authMW, casbinMW)

	policies, _ := cas.E.GetPolicy()
	if len(policies) == 0 {
		cas.E.AddPolicy("role_admin", "/api/admin/*", "(GET|POST|PUT|DELETE)")
		cas.E.AddPolicy("role_counselor", "/api/admin/logout", "POST")
		_ = cas.E.SavePolicy()
		log.Info().Msg("casbin: seeded default policies")
	}

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("listening")
	return r.Run(addr)
}
