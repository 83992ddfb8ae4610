package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Message struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Sender       string    `gorm:"type:varchar(50);not null"`
	Text         string    `gorm:"type:text;not null"`
	ChartPayload datatypes.JSON
	TablePayload datatypes.JSON
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
