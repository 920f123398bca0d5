package container

import (
	"context"
	"fmt"

	"gatherly/internal/auth"
	"gatherly/internal/cache"
	"gatherly/internal/clock"
	"gatherly/internal/config"
	"gatherly/internal/database"
	"gatherly/internal/logger"
	"gatherly/internal/realtime"
	"gatherly/internal/repository"
	"gatherly/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Logger *logrus.Logger
	Tokens *auth.TokenIssuer
	Hub    *realtime.Hub

	UserService     *services.UserService
	EventService    *services.EventService
	RSVPService     *services.RSVPService
	ReminderService *services.ReminderService
}

func New(ctx context.Context) (*Container, error) {
	log := logger.Get()

	db, err := database.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := cache.New(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(config.JWTSecret())
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, err
	}

	hub := realtime.NewHub(redisClient, log)

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	eventSvc := services.NewEventService(eventRepo, redisClient, log)
	interval, batch := config.ReminderWorkerConfig()

	return &Container{
		DB:           db,
		Redis:        redisClient,
		Logger:       log,
		Tokens:       tokens,
		Hub:          hub,
		UserService:  services.NewUserService(userRepo, tokens, log),
		EventService: eventSvc,
		RSVPService:  services.NewRSVPService(rsvpRepo, eventSvc, hub, log),
		ReminderService: services.NewReminderService(
			reminderRepo,
			eventRepo,
			services.NewMailer(log),
			clock.System(),
			redisClient,
			log,
			interval,
			batch,
		),
	}, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}
