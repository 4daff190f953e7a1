package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
)

// AdminRepository runs the aggregate and reporting queries behind the admin
// dashboard.
type AdminRepository struct {
	db *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// Stats computes the dashboard counters in a single round trip.
func (r *AdminRepository) Stats(ctx context.Context) (*model.Stats, error) {
	q := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(DISTINCT user_id) FROM user_skills_offered),
			(SELECT COUNT(*) FROM skills WHERE is_approved),
			(SELECT COUNT(*) FROM skills WHERE NOT is_approved),
			(SELECT COUNT(*) FROM swap_requests),
			(SELECT COUNT(*) FROM swap_requests WHERE status = 'accepted'),
			(SELECT COUNT(*) FROM swap_requests WHERE tracking_status = 'completed')`
	st := &model.Stats{}
	if err := r.db.QueryRow(ctx, q).Scan(
		&st.TotalUsers, &st.ActiveUsers, &st.TotalSkills, &st.PendingSkills,
		&st.TotalSwaps, &st.AcceptedSwaps, &st.CompletedSwaps,
	); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return st, nil
}

var reportQueries = map[model.ReportType]struct {
	all    string
	byUser string
}{
	model.ReportUsers: {
		all: `SELECT username, email, name, location, profile_photo, is_public, is_admin,
		             is_banned, availability, created_at, updated_at
		      FROM users ORDER BY id`,
		byUser: `SELECT username, email, name, location, profile_photo, is_public, is_admin,
		                is_banned, availability, created_at, updated_at
		         FROM users WHERE id = $1`,
	},
	model.ReportFeedback: {
		all: `SELECT r.rating, r.feedback, r.created_at,
		             ru.name AS rated_user_name, ru.username AS rated_user_username,
		             u.name AS rater_name, u.username AS rater_username
		      FROM ratings r
		      JOIN users u ON r.rater_id = u.id
		      JOIN users ru ON r.rated_user_id = ru.id
		      ORDER BY r.id`,
		byUser: `SELECT r.rating, r.feedback, r.created_at,
		                ru.name AS rated_user_name, ru.username AS rated_user_username,
		                u.name AS rater_name, u.username AS rater_username
		         FROM ratings r
		         JOIN users u ON r.rater_id = u.id
		         JOIN users ru ON r.rated_user_id = ru.id
		         WHERE r.rated_user_id = $1 OR r.rater_id = $1
		         ORDER BY r.id`,
	},
	model.ReportSwaps: {
		all: `SELECT s.status, s.tracking_status, s.message, s.created_at, s.updated_at,
		             ru.name AS requester_name, ru.username AS requester_username,
		             uu.name AS recipient_name, uu.username AS recipient_username,
		             s.requester_skill_id, s.recipient_skill_id
		      FROM swap_requests s
		      JOIN users ru ON s.requester_id = ru.id
		      JOIN users uu ON s.recipient_id = uu.id
		      ORDER BY s.id`,
		byUser: `SELECT s.status, s.tracking_status, s.message, s.created_at, s.updated_at,
		                ru.name AS requester_name, ru.username AS requester_username,
		                uu.name AS recipient_name, uu.username AS recipient_username,
		                s.requester_skill_id, s.recipient_skill_id
		         FROM swap_requests s
		         JOIN users ru ON s.requester_id = ru.id
		         JOIN users uu ON s.recipient_id = uu.id
		         WHERE s.requester_id = $1 OR s.recipient_id = $1
		         ORDER BY s.id`,
	},
}

// Report runs the query for t, optionally narrowed to rows involving userID.
// Columns are returned in select order; id columns are not stripped here.
func (r *AdminRepository) Report(ctx context.Context, t model.ReportType, userID *int64) (*model.Report, error) {
	rq, ok := reportQueries[t]
	if !ok {
		return nil, &model.ErrValidation{Msg: "Invalid report type"}
	}

	var args []any
	q := rq.all
	if userID != nil {
		q = rq.byUser
		args = append(args, *userID)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", t, err)
	}
	defer rows.Close()

	rep := &model.Report{Type: t}
	for _, fd := range rows.FieldDescriptions() {
		rep.Columns = append(rep.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read %s report row: %w", t, err)
		}
		rep.Rows = append(rep.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rep, nil
}

// CreateMessage stores an admin announcement and sets its id and timestamp.
func (r *AdminRepository) CreateMessage(ctx context.Context, m *model.AdminMessage) error {
	q := `
		INSERT INTO admin_messages (admin_id, title, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, q, m.AdminID, m.Title, m.Message).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("insert admin message: %w", err)
	}
	return nil
}
