package model

import (
	"strings"
	"time"
)

// Stats is the platform summary shown on the admin dashboard.
type Stats struct {
	TotalUsers     int64 `json:"totalUsers"`
	ActiveUsers    int64 `json:"activeUsers"`
	TotalSkills    int64 `json:"totalSkills"`
	PendingSkills  int64 `json:"pendingSkills"`
	TotalSwaps     int64 `json:"totalSwaps"`
	AcceptedSwaps  int64 `json:"acceptedSwaps"`
	CompletedSwaps int64 `json:"completedSwaps"`
}

// AdminMessage is a platform-wide announcement.
type AdminMessage struct {
	ID        int64     `json:"id"         db:"id"`
	AdminID   int64     `json:"admin_id"   db:"admin_id"`
	Title     string    `json:"title"      db:"title"`
	Message   string    `json:"message"    db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PostMessageRequest is the payload for POST /admin/messages.
type PostMessageRequest struct {
	Title   string `json:"title"   binding:"required"`
	Message string `json:"message" binding:"required"`
}

// ReportType names a downloadable admin report.
type ReportType string

const (
	ReportUsers    ReportType = "users"
	ReportFeedback ReportType = "feedback"
	ReportSwaps    ReportType = "swaps"
)

// Valid reports whether t is a known report.
func (t ReportType) Valid() bool {
	switch t {
	case ReportUsers, ReportFeedback, ReportSwaps:
		return true
	}
	return false
}

// Report is a tabular result with ordered columns.
type Report struct {
	Type    ReportType
	Columns []string
	Rows    [][]any
}

// isIDColumn matches "id" and any "*_id" column.
func isIDColumn(name string) bool {
	return name == "id" || strings.HasSuffix(name, "_id")
}

// WithoutIDColumns returns a copy of r with identifier columns removed.
func (r *Report) WithoutIDColumns() *Report {
	var keep []int
	out := &Report{Type: r.Type}
	for i, col := range r.Columns {
		if isIDColumn(col) {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, col)
	}
	out.Rows = make([][]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		cp := make([]any, 0, len(keep))
		for _, i := range keep {
			cp = append(cp, row[i])
		}
		out.Rows = append(out.Rows, cp)
	}
	return out
}

// Records returns the rows keyed by column name, for JSON output.
func (r *Report) Records() []map[string]any {
	out := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	return out
}
