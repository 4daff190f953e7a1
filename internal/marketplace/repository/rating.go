package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
)

// RatingRepository persists ratings.
type RatingRepository struct {
	db *pgxpool.Pool
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts a rating. A second rating by the same rater for the same
// swap returns ErrDuplicate.
func (r *RatingRepository) Create(ctx context.Context, rt *model.Rating) error {
	q := `
		INSERT INTO ratings (swap_id, rater_id, rated_user_id, rating, feedback)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, rt.SwapID, rt.RaterID, rt.RatedUserID, rt.Score, rt.Feedback).
		Scan(&rt.ID, &rt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

// ListReceived returns the ratings a user has received, newest first.
func (r *RatingRepository) ListReceived(ctx context.Context, userID int64) ([]*model.RatingView, error) {
	q := `
		SELECT r.id, r.swap_id, r.rater_id, r.rated_user_id, r.rating, r.feedback, r.created_at,
		       u.username, u.name, u.profile_photo
		FROM ratings r
		JOIN users u ON r.rater_id = u.id
		WHERE r.rated_user_id = $1
		ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []*model.RatingView
	for rows.Next() {
		v := &model.RatingView{}
		if err := rows.Scan(
			&v.ID, &v.SwapID, &v.RaterID, &v.RatedUserID, &v.Score, &v.Feedback, &v.CreatedAt,
			&v.RaterUsername, &v.RaterName, &v.RaterPhoto,
		); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Totals returns the sum and count of scores a user has received.
func (r *RatingRepository) Totals(ctx context.Context, userID int64) (sum, count int64, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM ratings WHERE rated_user_id = $1`, userID,
	).Scan(&sum, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("rating totals: %w", err)
	}
	return sum, count, nil
}
