package services

import (
	"context"
	"fmt"

	"gatherly/internal/models"
	"gatherly/internal/realtime"
	"gatherly/internal/repository"

	"github.com/sirupsen/logrus"
)

type RSVPService struct {
	rsvps  repository.RSVPRepository
	events *EventService
	hub    *realtime.Hub
	logger *logrus.Logger
}

func NewRSVPService(rsvps repository.RSVPRepository, events *EventService, hub *realtime.Hub, logger *logrus.Logger) *RSVPService {
	return &RSVPService{
		rsvps:  rsvps,
		events: events,
		hub:    hub,
		logger: logger,
	}
}

// Save upserts the caller's RSVP for an event and broadcasts the update to
// realtime subscribers.
func (s *RSVPService) Save(ctx context.Context, eventID, userID string, status models.RSVPStatus, note *string) (*models.RSVP, error) {
	if !models.ValidRSVPStatus(status) {
		return nil, fmt.Errorf("invalid rsvp status %q", status)
	}
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, err
	}

	saved, err := s.rsvps.Upsert(ctx, &models.RSVP{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
		Note:    note,
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Publish(ctx, realtime.Message{
			Type:    "rsvp:update",
			EventID: eventID,
			Payload: saved,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  userID,
		"status":   status,
	}).Info("RSVP saved")
	return saved, nil
}

// ListForOrganizer returns all RSVPs and per-status counts for an event the
// caller organizes.
func (s *RSVPService) ListForOrganizer(ctx context.Context, eventID, userID string) ([]models.RSVP, map[models.RSVPStatus]int, error) {
	if _, err := s.events.GetOwned(ctx, eventID, userID); err != nil {
		return nil, nil, err
	}

	rsvps, err := s.rsvps.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.rsvps.CountsByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return rsvps, counts, nil
}
