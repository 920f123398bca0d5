package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/clock"
	"gatherly/internal/models"
	"gatherly/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	reminderCachePrefix = "reminder:event:"
	reminderCacheTTL    = 10 * time.Minute
	defaultSendTimeout  = 10 * time.Second
)

// DefaultOffsets are the lead times before an event's start at which a
// reminder is delivered to every guest.
var DefaultOffsets = []time.Duration{24 * time.Hour, time.Hour}

// ErrMissingStart is returned when seeding is attempted for an event
// without a usable start instant.
var ErrMissingStart = errors.New("event start time is required")

// Notifier delivers one message to one recipient. A returned error marks
// the reminder failed.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// EventLookup is the best-effort read used to enrich reminder content.
// (nil, nil) means the event no longer exists.
type EventLookup interface {
	Lookup(ctx context.Context, eventID string) (*models.EventInfo, error)
}

// ReminderService seeds reminders for an event's guest list and runs the
// recurring worker that delivers them once due.
type ReminderService struct {
	store    repository.ReminderRepository
	events   EventLookup
	notifier Notifier
	clock    clock.Clock
	redis    *redis.Client
	logger   *logrus.Logger

	offsets     []time.Duration
	interval    time.Duration
	batchSize   int
	sendTimeout time.Duration

	cron *cron.Cron
}

func NewReminderService(
	store repository.ReminderRepository,
	events EventLookup,
	notifier Notifier,
	clk clock.Clock,
	redisClient *redis.Client,
	logger *logrus.Logger,
	interval time.Duration,
	batchSize int,
) *ReminderService {
	return &ReminderService{
		store:       store,
		events:      events,
		notifier:    notifier,
		clock:       clk,
		redis:       redisClient,
		logger:      logger,
		offsets:     DefaultOffsets,
		interval:    interval,
		batchSize:   batchSize,
		sendTimeout: defaultSendTimeout,
	}
}

// SeedReminders computes one reminder per (guest, offset) pair for the
// event and writes them in a single bulk insert. Candidates whose send time
// has already passed are silently dropped. Returns the number of reminders
// created.
//
// Seeding twice for the same event duplicates reminders; no uniqueness
// guard exists on (event, recipient, send_at). Operators re-seeding should
// expect doubled rows.
func (s *ReminderService) SeedReminders(ctx context.Context, eventID string, eventStart time.Time, recipients []string) (int, error) {
	if eventStart.IsZero() {
		return 0, ErrMissingStart
	}

	now := s.clock.Now()
	var reminders []*models.Reminder
	for _, recipient := range recipients {
		for _, offset := range s.offsets {
			sendAt := eventStart.Add(-offset)
			if !sendAt.After(now) {
				continue
			}
			reminders = append(reminders, &models.Reminder{
				EventID:   eventID,
				Recipient: recipient,
				Channel:   models.ChannelEmail,
				SendAt:    sendAt,
				Status:    models.ReminderScheduled,
				CreatedAt: now,
			})
		}
	}

	if len(reminders) == 0 {
		return 0, nil
	}

	created, err := s.store.InsertMany(ctx, reminders)
	if err != nil {
		return 0, fmt.Errorf("failed to seed reminders for event %s: %w", eventID, err)
	}

	s.invalidateEventReminderCache(ctx, eventID)

	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"count":    len(created),
	}).Info("Reminders seeded")
	return len(created), nil
}

// ListEventReminders returns all reminders for an event, newest send time
// last, served through the redis cache when possible.
func (s *ReminderService) ListEventReminders(ctx context.Context, eventID string) ([]models.Reminder, error) {
	cacheKey := reminderCachePrefix + eventID

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var reminders []models.Reminder
			if err := json.Unmarshal([]byte(cached), &reminders); err == nil {
				return reminders, nil
			}
			s.logger.WithError(err).Warn("Failed to unmarshal cached reminders")
		} else if err != redis.Nil {
			s.logger.WithError(err).Warn("Failed to read reminders from cache")
		}
	}

	reminders, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(reminders); err == nil {
			s.redis.Set(ctx, cacheKey, data, reminderCacheTTL)
		}
	}
	return reminders, nil
}

func (s *ReminderService) invalidateEventReminderCache(ctx context.Context, eventID string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, reminderCachePrefix+eventID)
}

// Start begins the recurring worker. It is called once at boot; Stop drains
// the tick in flight.
func (s *ReminderService) Start() error {
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if err := s.Tick(context.Background()); err != nil {
			s.logger.WithError(err).Error("Reminder tick ended early")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder worker: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.WithField("interval", s.interval.String()).Info("Reminder worker started")
	return nil
}

// Stop halts the worker and waits for a running tick to finish.
func (s *ReminderService) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.logger.Info("Reminder worker stopped")
}

// Tick processes one bounded batch of due reminders. Delivery failures mark
// the reminder failed and move on; store failures end the tick early and
// leave the remaining reminders scheduled for the next pass.
func (s *ReminderService) Tick(ctx context.Context) error {
	now := s.clock.Now()

	due, err := s.store.FindDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to query due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	var sentCount, failedCount int
	for _, reminder := range due {
		subject, body := s.buildMessage(ctx, reminder)

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		sendErr := s.notifier.Send(sendCtx, reminder.Recipient, subject, body)
		cancel()

		if sendErr != nil {
			errText := sendErr.Error()
			if err := s.store.UpdateStatus(ctx, reminder.ID, models.ReminderFailed, &errText); err != nil {
				return fmt.Errorf("failed to record reminder %s failure: %w", reminder.ID, err)
			}
			failedCount++
			s.logger.WithFields(logrus.Fields{
				"reminder_id": reminder.ID,
				"recipient":   reminder.Recipient,
			}).WithError(sendErr).Error("Reminder delivery failed")
		} else {
			if err := s.store.UpdateStatus(ctx, reminder.ID, models.ReminderSent, nil); err != nil {
				return fmt.Errorf("failed to record reminder %s delivery: %w", reminder.ID, err)
			}
			sentCount++
			s.logger.WithFields(logrus.Fields{
				"reminder_id": reminder.ID,
				"event_id":    reminder.EventID,
			}).Info("Reminder sent")
		}
		s.invalidateEventReminderCache(ctx, reminder.EventID)
	}

	s.logger.WithFields(logrus.Fields{
		"sent":   sentCount,
		"failed": failedCount,
	}).Info("Processed due reminders")
	return nil
}

// buildMessage resolves event details for the reminder. A failed or empty
// lookup falls back to placeholder content; it is not a delivery failure.
func (s *ReminderService) buildMessage(ctx context.Context, reminder *models.Reminder) (string, string) {
	title := "Event"
	startAt := ""

	info, err := s.events.Lookup(ctx, reminder.EventID)
	if err != nil {
		s.logger.WithField("event_id", reminder.EventID).WithError(err).Warn("Event lookup failed, using placeholder content")
	} else if info != nil {
		title = info.Title
		startAt = info.StartAt.Format(time.RFC1123)
	}

	subject := fmt.Sprintf("Reminder: %s", title)
	body := fmt.Sprintf("Your event %s starts soon.", title)
	if startAt != "" {
		body = fmt.Sprintf("Your event %s starts at %s.", title, startAt)
	}
	return subject, body
}
