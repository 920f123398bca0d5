package repository

import (
	"context"
	"fmt"
	"gatherly/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReminderRepository persists reminders. InsertMany is the seeder's bulk
// write; FindDue and UpdateStatus are the worker's read and terminal write.
type ReminderRepository interface {
	InsertMany(ctx context.Context, reminders []*models.Reminder) ([]*models.Reminder, error)
	FindDue(ctx context.Context, notAfter time.Time, limit int) ([]*models.Reminder, error)
	UpdateStatus(ctx context.Context, id string, status models.ReminderStatus, sendErr *string) error
	ListByEvent(ctx context.Context, eventID string) ([]models.Reminder, error)
}

type reminderRepository struct {
	db *pgxpool.Pool
}

func NewReminderRepository(db *pgxpool.Pool) ReminderRepository {
	return &reminderRepository{db: db}
}

// InsertMany writes all reminders in one batch inside a transaction, so the
// bulk create succeeds or fails as a unit.
func (r *reminderRepository) InsertMany(ctx context.Context, reminders []*models.Reminder) ([]*models.Reminder, error) {
	if len(reminders) == 0 {
		return reminders, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reminder insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, reminder := range reminders {
		if reminder.ID == "" {
			reminder.ID = uuid.NewString()
		}
		batch.Queue(`
			INSERT INTO reminders (id, event_id, recipient, channel, send_at, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			reminder.ID, reminder.EventID, reminder.Recipient, reminder.Channel,
			reminder.SendAt, reminder.Status, reminder.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range reminders {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, fmt.Errorf("failed to insert reminder: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reminder batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reminder insert: %w", err)
	}
	return reminders, nil
}

// FindDue returns up to limit scheduled reminders with send_at <= notAfter,
// earliest due first.
func (r *reminderRepository) FindDue(ctx context.Context, notAfter time.Time, limit int) ([]*models.Reminder, error) {
	query := `
		SELECT id, event_id, recipient, channel, send_at, status, error, created_at, updated_at
		FROM reminders
		WHERE status = $1 AND send_at <= $2
		ORDER BY send_at ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, models.ReminderScheduled, notAfter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		var reminder models.Reminder
		err := rows.Scan(
			&reminder.ID, &reminder.EventID, &reminder.Recipient, &reminder.Channel,
			&reminder.SendAt, &reminder.Status, &reminder.Error,
			&reminder.CreatedAt, &reminder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, &reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}

// UpdateStatus records a reminder's terminal outcome. sendErr is only set
// for failed deliveries.
func (r *reminderRepository) UpdateStatus(ctx context.Context, id string, status models.ReminderStatus, sendErr *string) error {
	query := `
		UPDATE reminders
		SET status = $2, error = $3, updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, status, sendErr)
	if err != nil {
		return fmt.Errorf("failed to update reminder %s status: %w", id, err)
	}
	return nil
}

func (r *reminderRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Reminder, error) {
	query := `
		SELECT id, event_id, recipient, channel, send_at, status, error, created_at, updated_at
		FROM reminders
		WHERE event_id = $1
		ORDER BY send_at ASC
	`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders for event %s: %w", eventID, err)
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var reminder models.Reminder
		err := rows.Scan(
			&reminder.ID, &reminder.EventID, &reminder.Recipient, &reminder.Channel,
			&reminder.SendAt, &reminder.Status, &reminder.Error,
			&reminder.CreatedAt, &reminder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}
