package entity

import (
	"time"

	"github.com/google/uuid"
)

// FileSnippet is a normalized data source retained for analysis. Content is
// CSV text with a header and at most 500 data rows; TrueRowCount keeps the
// full source size. Name is unique per user (re-upload replaces).
type FileSnippet struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Name         string
	Content      string
	TrueRowCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
