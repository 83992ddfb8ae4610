package implementation

import (
	"context"
	"errors"
	"time"

	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/mapper"
	"bi-ops-be/internal/model"
	"bi-ops-be/internal/repository/contract"
	"bi-ops-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FileSnippetRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FileSnippetMapper
}

func NewFileSnippetRepository(db *gorm.DB) contract.FileSnippetRepository {
	return &FileSnippetRepositoryImpl{
		db:     db,
		mapper: mapper.NewFileSnippetMapper(),
	}
}

func (r *FileSnippetRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FileSnippetRepositoryImpl) Upsert(ctx context.Context, snippet *entity.FileSnippet) error {
	m := r.mapper.ToModel(snippet)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"content":        m.Content,
			"true_row_count": m.TrueRowCount,
			"updated_at":     time.Now(),
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*snippet = *r.mapper.ToEntity(m)
	return nil
}

func (r *FileSnippetRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FileSnippet, error) {
	var m model.FileSnippet
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&m), nil
}

func (r *FileSnippetRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FileSnippet, error) {
	var models []*model.FileSnippet
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(models), nil
}

func (r *FileSnippetRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FileSnippet{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FileSnippetRepositoryImpl) Delete(ctx context.Context, userId uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userId, name).Delete(&model.FileSnippet{}).Error
}

func (r *FileSnippetRepositoryImpl) DeleteAllByUser(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.FileSnippet{}).Error
}
