package model

import (
	"time"

	"github.com/google/uuid"
)

type FileSnippet struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_file_snippets_user_name"`
	Name         string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_file_snippets_user_name"`
	Content      string    `gorm:"type:text;not null"`
	TrueRowCount int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (FileSnippet) TableName() string {
	return "file_snippets"
}
