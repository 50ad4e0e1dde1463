package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unifier_dev_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ExportStateRepository 导出状态仓储接口
// 代码分配器的持久侧：同前缀已用序号与同名商品代码复用都来自这里
type ExportStateRepository interface {
	Upsert(ctx context.Context, product *model.ExportedProduct) error
	GetBySourceName(ctx context.Context, sourceName string) (*model.ExportedProduct, error)
	ListCodesByPrefix(ctx context.Context, prefix string) ([]string, error)
	ListVariantCodes(ctx context.Context, parentCode string) ([]string, error)
	CountByRun(ctx context.Context, runID string) (int64, error)
}

// ==================== 仓储实现 ====================

type exportStateRepo struct {
	db *gorm.DB
}

// NewExportStateRepository 创建导出状态仓储
func NewExportStateRepository(db *gorm.DB) ExportStateRepository {
	return &exportStateRepo{db: db}
}

// Upsert 按来源名称写入/更新导出记录
func (r *exportStateRepo) Upsert(ctx context.Context, product *model.ExportedProduct) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "brand", "category_key", "price", "price_standard", "variant_codes", "run_id", "updated_at",
		}),
	}).Create(product).Error
}

// GetBySourceName 按来源名称查找；未找到返回 (nil, nil)
func (r *exportStateRepo) GetBySourceName(ctx context.Context, sourceName string) (*model.ExportedProduct, error) {
	var product model.ExportedProduct
	err := r.db.WithContext(ctx).Where("source_name = ?", sourceName).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCodesByPrefix 列出同前缀 (BBBCCSS) 的全部已分配代码
func (r *exportStateRepo) ListCodesByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&model.ExportedProduct{}).
		Where("code LIKE ?", prefix+"%").
		Pluck("code", &codes).Error
	return codes, err
}

// ListVariantCodes 列出某个父代码下已分配的变体代码
func (r *exportStateRepo) ListVariantCodes(ctx context.Context, parentCode string) ([]string, error) {
	product := model.ExportedProduct{}
	err := r.db.WithContext(ctx).Where("code = ?", parentCode).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(product.VariantCodes) == 0 {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal(product.VariantCodes, &codes); err != nil {
		return nil, nil
	}
	return codes, nil
}

// CountByRun 统计某次运行导出的商品数
func (r *exportStateRepo) CountByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ExportedProduct{}).
		Where("run_id = ?", runID).Count(&count).Error
	return count, err
}
