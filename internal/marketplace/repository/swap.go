package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// isUniqueViolation reports whether err is PostgreSQL error 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is PostgreSQL error 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

const swapColumns = `
	id, requester_id, recipient_id, requester_skill_id, recipient_skill_id,
	message, status, tracking_status, requester_notes, recipient_notes,
	requester_completed, recipient_completed, completed_at, created_at, updated_at`

// SwapRepository persists swap requests in PostgreSQL.
type SwapRepository struct {
	db *pgxpool.Pool
}

// NewSwapRepository creates a new SwapRepository.
func NewSwapRepository(db *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{db: db}
}

// Create inserts a new swap and fills in its id and timestamps.
func (r *SwapRepository) Create(ctx context.Context, s *model.Swap) error {
	q := `
		INSERT INTO swap_requests
			(requester_id, recipient_id, requester_skill_id, recipient_skill_id, message, status, tracking_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q,
		s.RequesterID, s.RecipientID, s.RequesterSkillID, s.RecipientSkillID,
		s.Message, s.Status, s.TrackingStatus,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert swap: %w", err)
	}
	return nil
}

// GetByID retrieves a swap by id.
func (r *SwapRepository) GetByID(ctx context.Context, id int64) (*model.Swap, error) {
	s, err := scanSwap(r.db.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListForUser returns every swap the user takes part in, newest first, joined
// with participant and skill names.
func (r *SwapRepository) ListForUser(ctx context.Context, userID int64) ([]*model.SwapView, error) {
	q := `
		SELECT sr.id, sr.requester_id, sr.recipient_id, sr.requester_skill_id, sr.recipient_skill_id,
		       sr.message, sr.status, sr.tracking_status, sr.requester_notes, sr.recipient_notes,
		       sr.requester_completed, sr.recipient_completed, sr.completed_at, sr.created_at, sr.updated_at,
		       r.name, r.username, r.profile_photo,
		       rec.name, rec.username, rec.profile_photo,
		       rs.name, recs.name
		FROM swap_requests sr
		JOIN users r ON sr.requester_id = r.id
		JOIN users rec ON sr.recipient_id = rec.id
		JOIN skills rs ON sr.requester_skill_id = rs.id
		JOIN skills recs ON sr.recipient_skill_id = recs.id
		WHERE sr.requester_id = $1 OR sr.recipient_id = $1
		ORDER BY sr.created_at DESC, sr.id DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}
	defer rows.Close()

	var out []*model.SwapView
	for rows.Next() {
		v := &model.SwapView{}
		if err := rows.Scan(
			&v.ID, &v.RequesterID, &v.RecipientID, &v.RequesterSkillID, &v.RecipientSkillID,
			&v.Message, &v.Status, &v.TrackingStatus, &v.RequesterNotes, &v.RecipientNotes,
			&v.RequesterCompleted, &v.RecipientCompleted, &v.CompletedAt, &v.CreatedAt, &v.UpdatedAt,
			&v.RequesterName, &v.RequesterUsername, &v.RequesterPhoto,
			&v.RecipientName, &v.RecipientUsername, &v.RecipientPhoto,
			&v.RequesterSkillName, &v.RecipientSkillName,
		); err != nil {
			return nil, fmt.Errorf("scan swap view: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateStatus moves the swap to status to when its current status is one of
// from and the execution has not already completed. Accepting forces
// tracking_status to in_progress in the same statement. Returns the number of
// rows changed; zero means the precondition did not hold.
func (r *SwapRepository) UpdateStatus(ctx context.Context, id int64, to model.SwapStatus, from []model.SwapStatus) (int64, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}
	q := `
		UPDATE swap_requests
		SET status = $2,
		    tracking_status = CASE WHEN $2 = 'accepted' THEN 'in_progress' ELSE tracking_status END,
		    updated_at = now()
		WHERE id = $1 AND status = ANY($3) AND tracking_status <> 'completed'`
	tag, err := r.db.Exec(ctx, q, id, string(to), fromStrs)
	if err != nil {
		return 0, fmt.Errorf("update swap status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeletePending removes the swap only while it is pending and only when
// requesterID made the request.
func (r *SwapRepository) DeletePending(ctx context.Context, id, requesterID int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM swap_requests WHERE id = $1 AND status = 'pending' AND requester_id = $2`,
		id, requesterID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete swap: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Mutate locks the swap row, passes the current state to fn and writes back
// the mutable progress fields if fn succeeds. Both completion flags are read
// and written inside one transaction, so concurrent calls from the two
// participants are serialised on the row.
func (r *SwapRepository) Mutate(ctx context.Context, id int64, fn func(s *model.Swap) error) (int64, error) {
	var changes int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		s, err := scanSwap(tx.QueryRow(ctx,
			`SELECT `+swapColumns+` FROM swap_requests WHERE id = $1 FOR UPDATE`, id,
		))
		if err != nil {
			return err
		}

		if err := fn(s); err != nil {
			return err
		}

		q := `
			UPDATE swap_requests
			SET tracking_status = $2, requester_notes = $3, recipient_notes = $4,
			    requester_completed = $5, recipient_completed = $6,
			    completed_at = $7, updated_at = $8
			WHERE id = $1`
		tag, err := tx.Exec(ctx, q,
			s.ID, s.TrackingStatus, s.RequesterNotes, s.RecipientNotes,
			s.RequesterCompleted, s.RecipientCompleted, s.CompletedAt, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("update swap progress: %w", err)
		}
		changes = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changes, nil
}

func scanSwap(row pgx.Row) (*model.Swap, error) {
	s := &model.Swap{}
	if err := row.Scan(
		&s.ID, &s.RequesterID, &s.RecipientID, &s.RequesterSkillID, &s.RecipientSkillID,
		&s.Message, &s.Status, &s.TrackingStatus, &s.RequesterNotes, &s.RecipientNotes,
		&s.RequesterCompleted, &s.RecipientCompleted, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan swap: %w", err)
	}
	return s, nil
}
