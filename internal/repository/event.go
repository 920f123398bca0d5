package repository

import (
	"context"
	"errors"
	"fmt"
	"gatherly/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAlreadyRegistered = errors.New("user already registered for event")
)

// EventRepository persists events and their registrations.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
	Register(ctx context.Context, eventID, userID string) error
	Lookup(ctx context.Context, id string) (*models.EventInfo, error)
}

type eventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, title, description, start_at, end_at, location, category, status, created_by, guests, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.StartAt, &event.EndAt,
		&event.Location, &event.Category, &event.Status, &event.CreatedBy,
		&event.Guests, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = models.EventPublished
	}
	if event.Guests == nil {
		event.Guests = []string{}
	}

	query := `
		INSERT INTO events (id, title, description, start_at, end_at, location, category, status, created_by, guests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID, event.Title, event.Description, event.StartAt, event.EndAt,
		event.Location, event.Category, event.Status, event.CreatedBy,
		event.Guests, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find event %s: %w", id, err)
	}

	event.RegisteredUsers, err = r.registeredUsers(ctx, id)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) registeredUsers(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM event_registrations WHERE event_id = $1 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for event %s: %w", eventID, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return users, nil
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *eventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_at ASC`)
}

func (r *eventRepository) ListByOwner(ctx context.Context, userID string) ([]models.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events WHERE created_by = $1 ORDER BY start_at ASC`, userID)
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, start_at = $4, end_at = $5,
		    location = $6, category = $7, status = $8, guests = $9, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		event.ID, event.Title, event.Description, event.StartAt, event.EndAt,
		event.Location, event.Category, event.Status, event.Guests,
	)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update event %s: %w", event.ID, pgx.ErrNoRows)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete event %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *eventRepository) Register(ctx context.Context, eventID, userID string) error {
	query := `
		INSERT INTO event_registrations (event_id, user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (event_id, user_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to register user %s for event %s: %w", userID, eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}

// Lookup returns the reminder-facing view of an event, or (nil, nil) when
// the event no longer exists.
func (r *eventRepository) Lookup(ctx context.Context, id string) (*models.EventInfo, error) {
	var info models.EventInfo
	row := r.db.QueryRow(ctx, `SELECT id, title, start_at FROM events WHERE id = $1`, id)
	if err := row.Scan(&info.ID, &info.Title, &info.StartAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up event %s: %w", id, err)
	}
	return &info, nil
}
