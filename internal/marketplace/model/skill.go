package model

import "time"

// Skill is a catalogue entry that users can offer or want. New skills start
// unapproved until an admin approves them.
type Skill struct {
	ID          int64     `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Category    string    `json:"category"    db:"category"`
	Description string    `json:"description" db:"description"`
	IsApproved  bool      `json:"is_approved" db:"is_approved"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// SkillOffer associates a user with a skill they can teach.
type SkillOffer struct {
	ID               int64  `json:"id"                db:"id"`
	UserID           int64  `json:"user_id"           db:"user_id"`
	SkillID          int64  `json:"skill_id"          db:"skill_id"`
	Description      string `json:"description"       db:"description"`
	ProficiencyLevel string `json:"proficiency_level" db:"proficiency_level"`
}

// SkillWant associates a user with a skill they want to learn.
type SkillWant struct {
	ID          int64  `json:"id"          db:"id"`
	UserID      int64  `json:"user_id"     db:"user_id"`
	SkillID     int64  `json:"skill_id"    db:"skill_id"`
	Description string `json:"description" db:"description"`
}

// DuplicateGroup is a set of skills sharing one exact name. CanonicalID is
// the lowest id in the group and survives a merge.
type DuplicateGroup struct {
	Name         string  `json:"name"`
	CanonicalID  int64   `json:"canonical_id"`
	DuplicateIDs []int64 `json:"duplicate_ids"`
}

// ProposeSkillRequest is the payload for POST /skills.
type ProposeSkillRequest struct {
	Name        string `json:"name"        binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// ApproveSkillRequest is the payload for PATCH /admin/skills/:id.
type ApproveSkillRequest struct {
	IsApproved *bool `json:"is_approved" binding:"required"`
}

// OfferSkillRequest is the payload for POST /user/skills/offered.
type OfferSkillRequest struct {
	SkillID          int64  `json:"skill_id"          binding:"required"`
	Description      string `json:"description"`
	ProficiencyLevel string `json:"proficiency_level"`
}

// WantSkillRequest is the payload for POST /user/skills/wanted.
type WantSkillRequest struct {
	SkillID     int64  `json:"skill_id"    binding:"required"`
	Description string `json:"description"`
}
