package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	eventCachePrefix = "event:info:"
	eventCacheTTL    = 10 * time.Minute
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotOrganizer  = errors.New("not the event organizer")
	ErrMissingTitle  = errors.New("event title is required")
)

type CreateEventRequest struct {
	Title       string             `json:"title"`
	Description *string            `json:"description"`
	StartAt     time.Time          `json:"start_at"`
	EndAt       *time.Time         `json:"end_at"`
	Location    *string            `json:"location"`
	Category    *string            `json:"category"`
	Status      models.EventStatus `json:"status"`
	Guests      []string           `json:"guests"`
}

type EventService struct {
	events repository.EventRepository
	redis  *redis.Client
	logger *logrus.Logger
}

func NewEventService(events repository.EventRepository, redisClient *redis.Client, logger *logrus.Logger) *EventService {
	return &EventService{
		events: events,
		redis:  redisClient,
		logger: logger,
	}
}

func (s *EventService) Create(ctx context.Context, userID string, req CreateEventRequest) (*models.Event, error) {
	if req.Title == "" {
		return nil, ErrMissingTitle
	}
	if req.StartAt.IsZero() {
		return nil, ErrMissingStart
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Location:    req.Location,
		Category:    req.Category,
		Status:      req.Status,
		CreatedBy:   userID,
		Guests:      req.Guests,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"user_id":  userID,
	}).Info("Event created")
	return event, nil
}

// Get returns an event by id, served through the redis cache when possible.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	cacheKey := eventCachePrefix + id

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var event models.Event
			if err := json.Unmarshal([]byte(cached), &event); err == nil {
				return &event, nil
			}
			s.logger.WithError(err).Warn("Failed to unmarshal cached event")
		} else if err != redis.Nil {
			s.logger.WithError(err).Warn("Failed to read event from cache")
		}
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(event); err == nil {
			s.redis.Set(ctx, cacheKey, data, eventCacheTTL)
		}
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	return s.events.ListAll(ctx)
}

func (s *EventService) ListMine(ctx context.Context, userID string) ([]models.Event, error) {
	return s.events.ListByOwner(ctx, userID)
}

// GetOwned returns an event only when userID is its organizer.
func (s *EventService) GetOwned(ctx context.Context, id, userID string) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != userID {
		return nil, ErrNotOrganizer
	}
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id, userID string, req CreateEventRequest) (*models.Event, error) {
	event, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if !req.StartAt.IsZero() {
		event.StartAt = req.StartAt
	}
	if req.EndAt != nil {
		event.EndAt = req.EndAt
	}
	if req.Location != nil {
		event.Location = req.Location
	}
	if req.Category != nil {
		event.Category = req.Category
	}
	if req.Status != "" {
		event.Status = req.Status
	}
	if req.Guests != nil {
		event.Guests = req.Guests
	}

	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	s.invalidateEventCache(ctx, id)
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.GetOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEventNotFound
		}
		return err
	}
	s.invalidateEventCache(ctx, id)
	return nil
}

// Register adds the current user to the event's registration list.
// Duplicate registrations are rejected.
func (s *EventService) Register(ctx context.Context, eventID, userID string) (*models.Event, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	if err := s.events.Register(ctx, eventID, userID); err != nil {
		return nil, err
	}
	s.invalidateEventCache(ctx, eventID)

	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
	}).Info("User registered for event")
	return s.events.GetByID(ctx, eventID)
}

func (s *EventService) invalidateEventCache(ctx context.Context, id string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, eventCachePrefix+id)
}
