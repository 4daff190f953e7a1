package model

import "time"

// SwapStatus is the negotiation state of a swap request.
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusRejected  SwapStatus = "rejected"
	SwapStatusCancelled SwapStatus = "cancelled"
)

// TrackingStatus is the execution state of an accepted swap. It is an axis
// independent of SwapStatus except at the accept transition.
type TrackingStatus string

const (
	TrackingPending       TrackingStatus = "pending"
	TrackingInProgress    TrackingStatus = "in_progress"
	TrackingHalfCompleted TrackingStatus = "half_completed"
	TrackingNotCompleted  TrackingStatus = "not_completed"
	TrackingCompleted     TrackingStatus = "completed"
)

// Valid reports whether t is one of the known tracking states.
func (t TrackingStatus) Valid() bool {
	switch t {
	case TrackingPending, TrackingInProgress, TrackingHalfCompleted, TrackingNotCompleted, TrackingCompleted:
		return true
	}
	return false
}

// Role identifies which side of a swap a user is on.
type Role int

const (
	RoleNone Role = iota
	RoleRequester
	RoleRecipient
)

// Swap is a proposed or agreed exchange of one user's offered skill for
// another user's skill.
type Swap struct {
	ID                 int64          `json:"id"                  db:"id"`
	RequesterID        int64          `json:"requester_id"        db:"requester_id"`
	RecipientID        int64          `json:"recipient_id"        db:"recipient_id"`
	RequesterSkillID   int64          `json:"requester_skill_id"  db:"requester_skill_id"`
	RecipientSkillID   int64          `json:"recipient_skill_id"  db:"recipient_skill_id"`
	Message            string         `json:"message"             db:"message"`
	Status             SwapStatus     `json:"status"              db:"status"`
	TrackingStatus     TrackingStatus `json:"tracking_status"     db:"tracking_status"`
	RequesterNotes     string         `json:"requester_notes"     db:"requester_notes"`
	RecipientNotes     string         `json:"recipient_notes"     db:"recipient_notes"`
	RequesterCompleted bool           `json:"requester_completed" db:"requester_completed"`
	RecipientCompleted bool           `json:"recipient_completed" db:"recipient_completed"`
	CompletedAt        *time.Time     `json:"completed_at"        db:"completed_at"`
	CreatedAt          time.Time      `json:"created_at"          db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"          db:"updated_at"`
}

// RoleOf returns the role userID plays in the swap, or RoleNone.
func (s *Swap) RoleOf(userID int64) Role {
	switch userID {
	case s.RequesterID:
		return RoleRequester
	case s.RecipientID:
		return RoleRecipient
	}
	return RoleNone
}

// Counterparty returns the id of the participant opposite userID.
// The result is meaningless when userID is not a participant.
func (s *Swap) Counterparty(userID int64) int64 {
	if userID == s.RequesterID {
		return s.RecipientID
	}
	return s.RequesterID
}

// IsCompleted reports whether the two-party completion gate has fired.
func (s *Swap) IsCompleted() bool {
	return s.TrackingStatus == TrackingCompleted && s.CompletedAt != nil
}

// SwapView is a swap joined with the display names of its participants and
// skills, as returned by the swap listing.
type SwapView struct {
	Swap
	RequesterName      string `json:"requester_name"`
	RequesterUsername  string `json:"requester_username"`
	RequesterPhoto     string `json:"requester_photo"`
	RecipientName      string `json:"recipient_name"`
	RecipientUsername  string `json:"recipient_username"`
	RecipientPhoto     string `json:"recipient_photo"`
	RequesterSkillName string `json:"requester_skill_name"`
	RecipientSkillName string `json:"recipient_skill_name"`
}

// MayRequestTransition reports whether a participant in role may ask for the
// swap to move to status to. Only the recipient answers a request; either
// side may cancel.
func MayRequestTransition(role Role, to SwapStatus) bool {
	switch to {
	case SwapStatusAccepted, SwapStatusRejected:
		return role == RoleRecipient
	case SwapStatusCancelled:
		return role == RoleRequester || role == RoleRecipient
	}
	return false
}

// TransitionSources returns the statuses from which a swap may move to to.
// A nil result means to is not a reachable target.
func TransitionSources(to SwapStatus) []SwapStatus {
	switch to {
	case SwapStatusAccepted, SwapStatusRejected:
		return []SwapStatus{SwapStatusPending}
	case SwapStatusCancelled:
		return []SwapStatus{SwapStatusPending, SwapStatusAccepted}
	}
	return nil
}

// ProgressUpdate carries the optional fields of a progress call. Nil means
// "not supplied".
type ProgressUpdate struct {
	TrackingStatus *TrackingStatus `json:"tracking_status"`
	Notes          *string         `json:"notes"`
	Completed      *bool           `json:"completed"`
}

// Validate checks the update in isolation, before any row is read.
func (u *ProgressUpdate) Validate() error {
	if u.TrackingStatus == nil && u.Notes == nil && u.Completed == nil {
		return &ErrValidation{Msg: "at least one of tracking_status, notes, completed is required"}
	}
	if u.TrackingStatus != nil {
		if !u.TrackingStatus.Valid() {
			return &ErrValidation{Msg: "invalid tracking_status " + string(*u.TrackingStatus)}
		}
		if *u.TrackingStatus == TrackingCompleted {
			return &ErrValidation{Msg: "tracking_status completed is set only when both parties mark the swap completed"}
		}
	}
	return nil
}

// ApplyProgress merges u into s on behalf of the participant in role and
// evaluates the completion gate. The caller must hold the row lock for s so
// that both completion flags are read and written as one unit.
//
// It returns true when this call is the one that completed the swap.
func (s *Swap) ApplyProgress(role Role, u ProgressUpdate, now time.Time) bool {
	if u.TrackingStatus != nil {
		s.TrackingStatus = *u.TrackingStatus
	}
	if u.Notes != nil {
		if role == RoleRequester {
			s.RequesterNotes = *u.Notes
		} else {
			s.RecipientNotes = *u.Notes
		}
	}
	if u.Completed != nil {
		if role == RoleRequester {
			s.RequesterCompleted = *u.Completed
		} else {
			s.RecipientCompleted = *u.Completed
		}
	}
	s.UpdatedAt = now

	if s.CompletedAt != nil || !s.RequesterCompleted || !s.RecipientCompleted {
		return false
	}
	s.TrackingStatus = TrackingCompleted
	stamp := now
	s.CompletedAt = &stamp
	return true
}

// CreateSwapRequest is the payload for POST /swaps.
type CreateSwapRequest struct {
	RecipientID      int64  `json:"recipient_id"       binding:"required"`
	RequesterSkillID int64  `json:"requester_skill_id" binding:"required"`
	RecipientSkillID int64  `json:"recipient_skill_id" binding:"required"`
	Message          string `json:"message"`
}

// UpdateSwapStatusRequest is the payload for PATCH /swaps/:id.
type UpdateSwapStatusRequest struct {
	Status SwapStatus `json:"status" binding:"required"`
}
