package repository

import (
	"context"

	"gorm.io/gorm"

	"unifier_dev_v1_202608/internal/model"
)

// ==================== 仓储接口 ====================

// RejectedItemRepository 拒绝商品审计仓储接口
type RejectedItemRepository interface {
	Create(ctx context.Context, item *model.RejectedItem) error
	ListByRun(ctx context.Context, runID string) ([]model.RejectedItem, error)
	CountByRun(ctx context.Context, runID string) (int64, error)
}

// ==================== 仓储实现 ====================

type rejectedItemRepo struct {
	db *gorm.DB
}

// NewRejectedItemRepository 创建拒绝商品仓储
func NewRejectedItemRepository(db *gorm.DB) RejectedItemRepository {
	return &rejectedItemRepo{db: db}
}

func (r *rejectedItemRepo) Create(ctx context.Context, item *model.RejectedItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *rejectedItemRepo) ListByRun(ctx context.Context, runID string) ([]model.RejectedItem, error) {
	var items []model.RejectedItem
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *rejectedItemRepo) CountByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RejectedItem{}).Where("run_id = ?", runID).Count(&count).Error
	return count, err
}
