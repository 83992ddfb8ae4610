package mapper

import (
	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/model"
)

type FileSnippetMapper struct{}

func NewFileSnippetMapper() *FileSnippetMapper {
	return &FileSnippetMapper{}
}

func (m *FileSnippetMapper) ToEntity(s *model.FileSnippet) *entity.FileSnippet {
	if s == nil {
		return nil
	}
	return &entity.FileSnippet{
		Id:           s.Id,
		UserId:       s.UserId,
		Name:         s.Name,
		Content:      s.Content,
		TrueRowCount: s.TrueRowCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (m *FileSnippetMapper) ToModel(s *entity.FileSnippet) *model.FileSnippet {
	if s == nil {
		return nil
	}
	return &model.FileSnippet{
		Id:           s.Id,
		UserId:       s.UserId,
		Name:         s.Name,
		Content:      s.Content,
		TrueRowCount: s.TrueRowCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (m *FileSnippetMapper) ToEntities(snippets []*model.FileSnippet) []*entity.FileSnippet {
	entities := make([]*entity.FileSnippet, len(snippets))
	for i, s := range snippets {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
