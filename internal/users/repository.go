package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a registration uses an already-registered email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateUsername is returned when a registration uses a taken username.
var ErrDuplicateUsername = errors.New("username already taken")

const userColumns = `
	id, username, email, password_hash, name, location, profile_photo,
	is_public, availability, is_admin, is_banned, created_at, updated_at`

// UserRepository provides CRUD operations for users against PostgreSQL.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record. Sets ID, CreatedAt, UpdatedAt on the user.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	q := `
		INSERT INTO users (username, email, password_hash, name, location, availability, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q,
		u.Username, u.Email, u.PasswordHash, u.Name, u.Location, u.Availability, u.IsPublic,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_email_key" {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// SearchRow is a raw search hit before the rating is formatted.
type SearchRow struct {
	User
	Offered   []string
	Wanted    []string
	AvgRating *float64
}

// Search lists public, non-banned users. An empty skill or availability
// disables that filter. skill matches offered skill names by
// case-insensitive substring.
func (r *UserRepository) Search(ctx context.Context, skill, availability string) ([]*SearchRow, error) {
	q := `
		SELECT u.id, u.username, u.name, u.location, u.profile_photo, u.is_public,
		       u.availability, u.is_admin,
		       ARRAY(SELECT s.name FROM user_skills_offered o JOIN skills s ON o.skill_id = s.id
		             WHERE o.user_id = u.id ORDER BY o.id),
		       ARRAY(SELECT s.name FROM user_skills_wanted w JOIN skills s ON w.skill_id = s.id
		             WHERE w.user_id = u.id ORDER BY w.id),
		       (SELECT AVG(rating)::float8 FROM ratings WHERE rated_user_id = u.id)
		FROM users u
		WHERE u.is_public AND NOT u.is_banned
		  AND ($1 = '' OR EXISTS (
		        SELECT 1 FROM user_skills_offered o JOIN skills s ON o.skill_id = s.id
		        WHERE o.user_id = u.id AND s.name ILIKE '%' || $1 || '%'))
		  AND ($2 = '' OR u.availability = $2)
		ORDER BY u.id`
	rows, err := r.db.Query(ctx, q, skill, availability)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []*SearchRow
	for rows.Next() {
		sr := &SearchRow{}
		if err := rows.Scan(
			&sr.ID, &sr.Username, &sr.Name, &sr.Location, &sr.ProfilePhoto, &sr.IsPublic,
			&sr.Availability, &sr.IsAdmin, &sr.Offered, &sr.Wanted, &sr.AvgRating,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// Skills returns the skills a user offers and wants, in insertion order.
func (r *UserRepository) Skills(ctx context.Context, userID int64) (offered, wanted []SkillRef, err error) {
	if offered, err = r.skillRefs(ctx, "user_skills_offered", userID); err != nil {
		return nil, nil, err
	}
	if wanted, err = r.skillRefs(ctx, "user_skills_wanted", userID); err != nil {
		return nil, nil, err
	}
	return offered, wanted, nil
}

// skillRefs reads one side of a user's skill list. table is one of two
// constants chosen by the caller.
func (r *UserRepository) skillRefs(ctx context.Context, table string, userID int64) ([]SkillRef, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, s.id, s.name
		FROM `+table+` t JOIN skills s ON t.skill_id = s.id
		WHERE t.user_id = $1
		ORDER BY t.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := []SkillRef{}
	for rows.Next() {
		var ref SkillRef
		if err := rows.Scan(&ref.UserSkillID, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// UpdateProfile overwrites the editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $2, location = $3, is_public = $4, availability = $5, updated_at = now()
		WHERE id = $1`,
		userID, req.Name, req.Location, req.IsPublic, req.Availability,
	)
	if err != nil {
		return 0, fmt.Errorf("update profile: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetPhoto records the location of a user's profile photo.
func (r *UserRepository) SetPhoto(ctx context.Context, userID int64, url string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET profile_photo = $2, updated_at = now() WHERE id = $1`, userID, url)
	if err != nil {
		return fmt.Errorf("set photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every user, newest first, with their skills attached.
func (r *UserRepository) ListAll(ctx context.Context) ([]*AdminView, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var out []*AdminView
	byID := make(map[int64]*AdminView)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		v := &AdminView{User: *u, SkillsOffered: []SkillRef{}, SkillsWanted: []SkillRef{}}
		out = append(out, v)
		byID[u.ID] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attach := func(table string, add func(v *AdminView, ref SkillRef)) error {
		rows, err := r.db.Query(ctx, `
			SELECT t.user_id, t.id, s.id, s.name
			FROM `+table+` t JOIN skills s ON t.skill_id = s.id
			ORDER BY t.id`)
		if err != nil {
			return fmt.Errorf("list %s: %w", table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var userID int64
			var ref SkillRef
			if err := rows.Scan(&userID, &ref.UserSkillID, &ref.ID, &ref.Name); err != nil {
				return fmt.Errorf("scan %s: %w", table, err)
			}
			if v, ok := byID[userID]; ok {
				add(v, ref)
			}
		}
		return rows.Err()
	}
	if err := attach("user_skills_offered", func(v *AdminView, ref SkillRef) {
		v.SkillsOffered = append(v.SkillsOffered, ref)
	}); err != nil {
		return nil, err
	}
	if err := attach("user_skills_wanted", func(v *AdminView, ref SkillRef) {
		v.SkillsWanted = append(v.SkillsWanted, ref)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFlags sets the ban and admin flags that are non-nil. The caller
// guarantees at least one is set.
func (r *UserRepository) UpdateFlags(ctx context.Context, userID int64, isBanned, isAdmin *bool) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_banned = COALESCE($2, is_banned),
		    is_admin  = COALESCE($3, is_admin),
		    updated_at = now()
		WHERE id = $1`, userID, isBanned, isAdmin)
	if err != nil {
		return 0, fmt.Errorf("update user flags: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListBroadcastEmails returns the address of every non-banned user.
func (r *UserRepository) ListBroadcastEmails(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT email FROM users WHERE NOT is_banned ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list broadcast emails: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.Location, &u.ProfilePhoto,
		&u.IsPublic, &u.Availability, &u.IsAdmin, &u.IsBanned, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
