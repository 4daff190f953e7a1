package model

import (
	"math"
	"strconv"
	"time"
)

// Score bounds for a rating.
const (
	MinScore = 1
	MaxScore = 5
)

// Rating is feedback left by one swap participant about the other.
type Rating struct {
	ID          int64     `json:"id"            db:"id"`
	SwapID      int64     `json:"swap_id"       db:"swap_id"`
	RaterID     int64     `json:"rater_id"      db:"rater_id"`
	RatedUserID int64     `json:"rated_user_id" db:"rated_user_id"`
	Score       int       `json:"rating"        db:"rating"`
	Feedback    string    `json:"feedback"      db:"feedback"`
	CreatedAt   time.Time `json:"created_at"    db:"created_at"`
}

// RatingView is a received rating joined with the rater's public details.
type RatingView struct {
	Rating
	RaterUsername string `json:"rater_username"`
	RaterName     string `json:"rater_name"`
	RaterPhoto    string `json:"rater_photo"`
}

// SubmitRatingRequest is the payload for POST /ratings.
type SubmitRatingRequest struct {
	SwapID      int64  `json:"swap_id"       binding:"required"`
	RatedUserID int64  `json:"rated_user_id" binding:"required"`
	Score       int    `json:"rating"        binding:"required"`
	Feedback    string `json:"feedback"`
}

// RoundAverage rounds a mean score to one decimal place.
func RoundAverage(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// FormatAverage renders an average for API responses ("4.5"). A nil average
// means the user has no ratings and stays nil.
func FormatAverage(avg *float64) *string {
	if avg == nil {
		return nil
	}
	s := strconv.FormatFloat(*avg, 'f', 1, 64)
	return &s
}
