package contract

import (
	"context"

	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FileSnippetRepository interface {
	// Upsert inserts the snippet or, when the user already has one with the
	// same name, replaces its content and row count.
	Upsert(ctx context.Context, snippet *entity.FileSnippet) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FileSnippet, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FileSnippet, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, userId uuid.UUID, name string) error
	DeleteAllByUser(ctx context.Context, userId uuid.UUID) error
}
