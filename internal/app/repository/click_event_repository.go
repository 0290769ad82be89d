package repository

import (
	"context"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickEventRepository defines the data access contract for click events.
type ClickEventRepository interface {
	Create(ctx context.Context, event *model.ClickEvent) error
	ListByLink(ctx context.Context, linkID uint, limit int) ([]model.ClickEvent, error)
}

type clickEventRepository struct {
	db *gorm.DB
}

// NewClickEventRepository returns a GORM-backed ClickEventRepository.
func NewClickEventRepository(db *gorm.DB) ClickEventRepository {
	return &clickEventRepository{db: db}
}

// Create stores event. Redelivered events with a known id are ignored.
func (r *clickEventRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
}

func (r *clickEventRepository) ListByLink(ctx context.Context, linkID uint, limit int) ([]model.ClickEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var result []model.ClickEvent
	if err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
