package repository

import (
	"context"

	"BoxOfficeSync/internal/model"

	"gorm.io/gorm"
)

// IngestEventRepository 摄取事件仓储（追加写）
type IngestEventRepository interface {
	Append(ctx context.Context, ev *model.IngestEvent) error
	ListRecent(ctx context.Context, limit int) ([]*model.IngestEvent, error)
}

type ingestEventRepository struct {
	db *gorm.DB
}

func NewIngestEventRepository(db *gorm.DB) IngestEventRepository {
	return &ingestEventRepository{db: db}
}

func (r *ingestEventRepository) Append(ctx context.Context, ev *model.IngestEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *ingestEventRepository) ListRecent(ctx context.Context, limit int) ([]*model.IngestEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []*model.IngestEvent
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
