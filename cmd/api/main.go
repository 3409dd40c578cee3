package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/trackdesk/trackdesk/internal/api/http"
	"github.com/trackdesk/trackdesk/internal/api/http/handlers"
	"github.com/trackdesk/trackdesk/internal/auth"
	"github.com/trackdesk/trackdesk/internal/config"
	"github.com/trackdesk/trackdesk/internal/events"
	"github.com/trackdesk/trackdesk/internal/identity"
	"github.com/trackdesk/trackdesk/internal/observability"
	"github.com/trackdesk/trackdesk/internal/persistence"
	"github.com/trackdesk/trackdesk/internal/repository"
	"github.com/trackdesk/trackdesk/internal/service"
	"github.com/trackdesk/trackdesk/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoStore, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer mongoStore.Close(ctx)

	if err := persistence.EnsureIndexes(ctx, mongoStore.Database, logger); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	db := mongoStore.Database
	userRepo := repository.NewUserRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	mailer := identity.NewSMTPMailer(cfg.Mail, logger)
	provider := identity.NewMongoProvider(db, mailer, cfg.Auth.BcryptCost)

	sessions := session.NewRedisStore(redisStore.Client)
	tracker := session.NewTracker()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Provider:   provider,
		UserRepo:   userRepo,
		Sessions:   sessions,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		Provider: provider,
		UserRepo: userRepo,
		Logger:   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})

	notificationService := service.NewNotificationService(dispatcher, logger)
	notificationService.RegisterHandlers()

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), sessions, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(mongoStore, redisStore, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, userService),
		Users:          handlers.NewUsersHandler(userService),
		Dashboard:      handlers.NewDashboardHandler(),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
