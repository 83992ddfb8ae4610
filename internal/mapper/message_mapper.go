package mapper

import (
	"encoding/json"

	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/model"
	"bi-ops-be/pkg/analyst"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	e := &entity.Message{
		Id:        msg.Id,
		UserId:    msg.UserId,
		Sender:    entity.MessageSender(msg.Sender),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	if len(msg.ChartPayload) > 0 {
		var chart analyst.ChartData
		if err := json.Unmarshal(msg.ChartPayload, &chart); err == nil {
			e.Chart = &chart
		}
	}
	if len(msg.TablePayload) > 0 {
		var table analyst.TableData
		if err := json.Unmarshal(msg.TablePayload, &table); err == nil {
			e.Table = &table
		}
	}
	return e
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	out := &model.Message{
		Id:        msg.Id,
		UserId:    msg.UserId,
		Sender:    string(msg.Sender),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Chart != nil {
		if data, err := json.Marshal(msg.Chart); err == nil {
			out.ChartPayload = data
		}
	}
	if msg.Table != nil {
		if data, err := json.Marshal(msg.Table); err == nil {
			out.TablePayload = data
		}
	}
	return out
}

func (m *MessageMapper) ToEntities(msgs []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}
