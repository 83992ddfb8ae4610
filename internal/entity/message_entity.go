package entity

import (
	"time"

	"bi-ops-be/pkg/analyst"

	"github.com/google/uuid"
)

type MessageSender string

const (
	SenderUser   MessageSender = "user"
	SenderSystem MessageSender = "system"
)

// Message is one turn of the operator console. System messages may carry a
// chart or table payload alongside the text.
type Message struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Sender    MessageSender
	Text      string
	Chart     *analyst.ChartData
	Table     *analyst.TableData
	CreatedAt time.Time
}
