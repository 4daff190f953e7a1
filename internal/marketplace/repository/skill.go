package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
)

// SkillRepository persists the skill catalogue and per-user offers and wants.
type SkillRepository struct {
	db *pgxpool.Pool
}

// NewSkillRepository creates a new SkillRepository.
func NewSkillRepository(db *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{db: db}
}

// Create inserts a skill. ID and CreatedAt are set from the database.
func (r *SkillRepository) Create(ctx context.Context, s *model.Skill) error {
	q := `
		INSERT INTO skills (name, category, description, is_approved)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, q, s.Name, s.Category, s.Description, s.IsApproved).
		Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert skill: %w", err)
	}
	return nil
}

// GetByID retrieves a skill by id.
func (r *SkillRepository) GetByID(ctx context.Context, id int64) (*model.Skill, error) {
	s := &model.Skill{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, category, description, is_approved, created_at FROM skills WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.IsApproved, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get skill: %w", err)
	}
	return s, nil
}

// ListByApproval returns skills with the given approval flag, newest first.
func (r *SkillRepository) ListByApproval(ctx context.Context, approved bool) ([]*model.Skill, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, category, description, is_approved, created_at
		FROM skills WHERE is_approved = $1
		ORDER BY created_at DESC, id DESC`, approved)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var out []*model.Skill
	for rows.Next() {
		s := &model.Skill{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.IsApproved, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetApproved sets the approval flag. Setting the current value again is not
// an error; the row still counts as changed.
func (r *SkillRepository) SetApproved(ctx context.Context, id int64, approved bool) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE skills SET is_approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return 0, fmt.Errorf("set skill approval: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AddOffer records that a user offers a skill.
func (r *SkillRepository) AddOffer(ctx context.Context, o *model.SkillOffer) error {
	q := `
		INSERT INTO user_skills_offered (user_id, skill_id, description, proficiency_level)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRow(ctx, q, o.UserID, o.SkillID, o.Description, o.ProficiencyLevel).Scan(&o.ID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// AddWant records that a user wants a skill.
func (r *SkillRepository) AddWant(ctx context.Context, w *model.SkillWant) error {
	q := `
		INSERT INTO user_skills_wanted (user_id, skill_id, description)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRow(ctx, q, w.UserID, w.SkillID, w.Description).Scan(&w.ID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert want: %w", err)
	}
	return nil
}

// RemoveOffer deletes an offer row owned by userID.
func (r *SkillRepository) RemoveOffer(ctx context.Context, userID, offerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_skills_offered WHERE id = $1 AND user_id = $2`, offerID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete offer: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RemoveWant deletes a want row owned by userID.
func (r *SkillRepository) RemoveWant(ctx context.Context, userID, wantID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_skills_wanted WHERE id = $1 AND user_id = $2`, wantID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete want: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HasOffer reports whether userID currently offers skillID.
func (r *SkillRepository) HasOffer(ctx context.Context, userID, skillID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_skills_offered WHERE user_id = $1 AND skill_id = $2)`,
		userID, skillID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check offer: %w", err)
	}
	return ok, nil
}

// DuplicateGroups returns every skill name that occurs more than once, with
// the lowest id as canonical.
func (r *SkillRepository) DuplicateGroups(ctx context.Context) ([]model.DuplicateGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, array_agg(id ORDER BY id)
		FROM skills
		GROUP BY name
		HAVING COUNT(*) > 1
		ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("find duplicate skills: %w", err)
	}
	defer rows.Close()

	var out []model.DuplicateGroup
	for rows.Next() {
		var name string
		var ids []int64
		if err := rows.Scan(&name, &ids); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		out = append(out, model.DuplicateGroup{
			Name:         name,
			CanonicalID:  ids[0],
			DuplicateIDs: ids[1:],
		})
	}
	return out, rows.Err()
}

// MergeGroup repoints every reference to the group's duplicates at the
// canonical skill and deletes the duplicates, all in one transaction. The
// canonical skill stays approved if any member of the group was approved.
func (r *SkillRepository) MergeGroup(ctx context.Context, g model.DuplicateGroup) error {
	if len(g.DuplicateIDs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stmts := []struct {
		name string
		sql  string
	}{
		{"repoint offers", `UPDATE user_skills_offered SET skill_id = $1 WHERE skill_id = ANY($2)`},
		{"repoint wants", `UPDATE user_skills_wanted SET skill_id = $1 WHERE skill_id = ANY($2)`},
		{"repoint requester skills", `UPDATE swap_requests SET requester_skill_id = $1 WHERE requester_skill_id = ANY($2)`},
		{"repoint recipient skills", `UPDATE swap_requests SET recipient_skill_id = $1 WHERE recipient_skill_id = ANY($2)`},
		{"carry approval", `UPDATE skills SET is_approved = true
			WHERE id = $1 AND EXISTS (SELECT 1 FROM skills WHERE id = ANY($2) AND is_approved)`},
		{"delete duplicates", `DELETE FROM skills WHERE id = ANY($2) AND id <> $1`},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(ctx, st.sql, g.CanonicalID, g.DuplicateIDs); err != nil {
			return fmt.Errorf("%s for %q: %w", st.name, g.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
