package dto

import (
	"time"

	"bi-ops-be/pkg/analyst"

	"github.com/google/uuid"
)

type CommandRequest struct {
	Command string `json:"command" validate:"required,min=1"`
}

type MessageDTO struct {
	Id        uuid.UUID          `json:"id"`
	Sender    string             `json:"sender"`
	Text      string             `json:"text"`
	Chart     *analyst.ChartData `json:"chartData,omitempty"`
	Table     *analyst.TableData `json:"tableData,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type CommandResponse struct {
	State     analyst.BusinessState `json:"state"`
	Message   MessageDTO            `json:"message"`
	Celebrate bool                  `json:"celebrate"`
}

type HistoryResponse struct {
	Messages []MessageDTO `json:"messages"`
}
