package repository

import (
	"context"
	"fmt"
	"gatherly/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RSVPRepository persists one RSVP per (event, user); repeated answers
// overwrite the previous one.
type RSVPRepository interface {
	Upsert(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.RSVP, error)
	CountsByEvent(ctx context.Context, eventID string) (map[models.RSVPStatus]int, error)
}

type rsvpRepository struct {
	db *pgxpool.Pool
}

func NewRSVPRepository(db *pgxpool.Pool) RSVPRepository {
	return &rsvpRepository{db: db}
}

func (r *rsvpRepository) Upsert(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error) {
	if rsvp.ID == "" {
		rsvp.ID = uuid.NewString()
	}

	query := `
		INSERT INTO rsvps (id, event_id, user_id, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note, updated_at = now()
		RETURNING id, event_id, user_id, status, note, created_at, updated_at
	`

	var saved models.RSVP
	row := r.db.QueryRow(ctx, query, rsvp.ID, rsvp.EventID, rsvp.UserID, rsvp.Status, rsvp.Note)
	err := row.Scan(&saved.ID, &saved.EventID, &saved.UserID, &saved.Status, &saved.Note,
		&saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rsvp for event %s: %w", rsvp.EventID, err)
	}
	return &saved, nil
}

func (r *rsvpRepository) ListByEvent(ctx context.Context, eventID string) ([]models.RSVP, error) {
	query := `
		SELECT id, event_id, user_id, status, note, created_at, updated_at
		FROM rsvps
		WHERE event_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rsvps for event %s: %w", eventID, err)
	}
	defer rows.Close()

	var rsvps []models.RSVP
	for rows.Next() {
		var rsvp models.RSVP
		err := rows.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.Status, &rsvp.Note,
			&rsvp.CreatedAt, &rsvp.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rsvp row: %w", err)
		}
		rsvps = append(rsvps, rsvp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rsvp rows: %w", err)
	}
	return rsvps, nil
}

func (r *rsvpRepository) CountsByEvent(ctx context.Context, eventID string) (map[models.RSVPStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM rsvps WHERE event_id = $1 GROUP BY status`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count rsvps for event %s: %w", eventID, err)
	}
	defer rows.Close()

	counts := make(map[models.RSVPStatus]int)
	for rows.Next() {
		var status models.RSVPStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rsvp count row: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rsvp count rows: %w", err)
	}
	return counts, nil
}
