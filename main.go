package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blakwhyte-backend/auth"
	"blakwhyte-backend/config"
	"blakwhyte-backend/live"
	"blakwhyte-backend/routes"
	"blakwhyte-backend/services"
	"blakwhyte-backend/store"
	"blakwhyte-backend/textgen"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without a database the server still starts; data views report loading.
	db, err := config.ConnectDB(cfg.DB, !cfg.IsProduction())
	if err != nil {
		logger.Error("database unavailable, serving without data", zap.Error(err))
	} else if err := config.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	st := store.New(db, logger)
	if st.Ready() && cfg.SeedCatalog {
		if seeded, err := st.Seed(ctx); err != nil {
			logger.Error("catalog seed failed", zap.Error(err))
		} else if seeded {
			logger.Info("seeded default catalog")
		}
	}

	if cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			logger.Fatal("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}
	switch {
	case len(cfg.AdminEmails) == 0:
		logger.Warn("ADMIN_EMAILS is empty, nobody can use the admin routes")
	case cfg.AdminPasswordHash == "":
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin accounts are not provisioned")
	case st.Ready():
		if n, err := st.ProvisionAccounts(ctx, cfg.AdminEmails, cfg.AdminPasswordHash); err != nil {
			logger.Error("admin provisioning failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("provisioned admin accounts", zap.Int("count", n))
		}
	}

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry, cfg.IsAdminEmail)
	sessions := auth.NewSessions(auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer))

	loc := cfg.Studio.Location()
	bus := services.NewBus()
	bookings := services.NewBookingService(st, bus, loc, logger)

	join := live.NewBookingJoin(st, logger)
	release := join.Retain()
	defer release()

	var gen textgen.Generator
	if cfg.GenAI.APIKey != "" {
		gen = textgen.NewGeminiClient(cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.BaseURL,
			cfg.GenAI.Timeout, cfg.GenAI.MaxAttempts, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, trend analysis will return fallback results")
	}
	analyzer := services.NewTrendAnalyzer(st, gen, logger)

	notifierCfg := services.NotifierConfig{StudioName: cfg.Studio.Name, Location: loc}
	var messenger services.Messenger
	if m := services.NewTwilioMessenger(cfg.Twilio); m != nil {
		messenger = m
		notifierCfg.Messenger = m
	}
	if m := services.NewSMTPMailer(cfg.SMTP); m != nil {
		notifierCfg.Mailer = m
	}
	if a, err := services.NewTelegramAlerter(cfg.Telegram); err != nil {
		logger.Error("telegram alerts disabled", zap.Error(err))
	} else if a != nil {
		notifierCfg.Alerter = a
	}
	notifier, err := services.NewNotifier(st, notifierCfg, logger)
	if err != nil {
		logger.Fatal("failed to start notifier", zap.Error(err))
	}
	defer notifier.Close()
	if err := notifier.Subscribe(bus); err != nil {
		logger.Fatal("failed to subscribe notifier", zap.Error(err))
	}

	reminders := services.NewReminderService(st, messenger, cfg.Studio.Name, loc, logger)
	scheduler, err := services.StartScheduler(reminders, sessions, cfg.ReminderSpec, loc, logger)
	if err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	r := routes.SetupRouter(routes.Deps{
		Config:    cfg,
		Store:     st,
		Join:      join,
		Issuer:    issuer,
		Sessions:  sessions,
		Bookings:  bookings,
		Analyzer:  analyzer,
		Reminders: reminders,
		Log:       logger,
	})
	if !cfg.IsProduction() {
		printRoutes(r)
	}

	// request contexts derive from ctx so open streams end on shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	<-scheduler.Stop().Done()
	notifier.Unsubscribe(bus)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
