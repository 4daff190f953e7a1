package users

import "time"

// User is a marketplace account holder.
type User struct {
	ID           int64     `json:"id"            db:"id"`
	Username     string    `json:"username"      db:"username"`
	Email        string    `json:"email"         db:"email"`
	PasswordHash string    `json:"-"             db:"password_hash"`
	Name         string    `json:"name"          db:"name"`
	Location     string    `json:"location"      db:"location"`
	ProfilePhoto string    `json:"profile_photo" db:"profile_photo"`
	IsPublic     bool      `json:"is_public"     db:"is_public"`
	Availability string    `json:"availability"  db:"availability"`
	IsAdmin      bool      `json:"is_admin"      db:"is_admin"`
	IsBanned     bool      `json:"is_banned"     db:"is_banned"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"    db:"updated_at"`
}

// Summary is the short form returned alongside a login token.
type Summary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"is_admin"`
}

// Summary returns the login summary for u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Name: u.Name, IsAdmin: u.IsAdmin}
}

// SkillRef is a skill attached to a profile. UserSkillID is the id of the
// offer or want row, which the owner uses to remove it.
type SkillRef struct {
	UserSkillID int64  `json:"user_skill_id,omitempty"`
	ID          int64  `json:"id"`
	Name        string `json:"name"`
}

// SearchResult is one row of the public user search.
type SearchResult struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	ProfilePhoto  string   `json:"profile_photo"`
	IsPublic      bool     `json:"is_public"`
	Availability  string   `json:"availability"`
	IsAdmin       bool     `json:"is_admin"`
	SkillsOffered []string `json:"skills_offered"`
	SkillsWanted  []string `json:"skills_wanted"`
	Rating        *string  `json:"rating"`
}

// PublicProfile is a user as seen by other users.
type PublicProfile struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	ProfilePhoto  string     `json:"profile_photo"`
	IsPublic      bool       `json:"is_public"`
	Availability  string     `json:"availability"`
	SkillsOffered []SkillRef `json:"skills_offered"`
	SkillsWanted  []SkillRef `json:"skills_wanted"`
	Rating        *string    `json:"rating"`
}

// OwnProfile is the signed-in user's view of their own account.
type OwnProfile struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	ProfilePhoto  string     `json:"profile_photo"`
	IsPublic      bool       `json:"is_public"`
	Availability  string     `json:"availability"`
	SkillsOffered []SkillRef `json:"skills_offered"`
	SkillsWanted  []SkillRef `json:"skills_wanted"`
}

// AdminView is a user as listed on the admin dashboard.
type AdminView struct {
	User
	SkillsOffered []SkillRef `json:"skills_offered"`
	SkillsWanted  []SkillRef `json:"skills_wanted"`
}

// RegisterRequest is the payload for POST /register.
type RegisterRequest struct {
	Username     string `json:"username"     validate:"min=3"`
	Email        string `json:"email"        validate:"email"`
	Password     string `json:"password"     validate:"min=6"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	Availability string `json:"availability"`
}

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the payload for PUT /profile.
type UpdateProfileRequest struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	IsPublic     bool   `json:"is_public"`
	Availability string `json:"availability"`
}

// UpdateFlagsRequest is the payload for PATCH /admin/users/:id. Nil fields
// are left unchanged.
type UpdateFlagsRequest struct {
	IsBanned *bool `json:"is_banned"`
	IsAdmin  *bool `json:"is_admin"`
}
