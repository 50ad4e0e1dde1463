package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 持久化导出状态 ====================

// ExportedProduct 已导出商品的持久记录
// 代码分配器据此实现跨运行的幂等：同名来源商品复用既有代码，
// 空闲序号从同前缀已占用集合中推导
type ExportedProduct struct {
	ID        int64          `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SourceName    string         `gorm:"size:512;uniqueIndex;comment:来源原始名称" json:"source_name"`
	Code          string         `gorm:"size:32;uniqueIndex;comment:组合代码 BBBCCSS-NNNN" json:"code"`
	Name          string         `gorm:"size:512;comment:组合名称" json:"name"`
	Brand         string         `gorm:"size:128" json:"brand"`
	CategoryKey   string         `gorm:"size:256" json:"category_key"`
	Price         string         `gorm:"size:32;comment:不含税价" json:"price"`
	PriceStandard string         `gorm:"size:32;comment:含税价" json:"price_standard"`
	VariantCodes  datatypes.JSON `gorm:"comment:变体代码列表" json:"variant_codes"`
	RunID         string         `gorm:"size:64;index" json:"run_id"`
}

func (ExportedProduct) TableName() string { return "exported_products" }

// RejectedItem 校验失败商品的审计记录
// 含商品标识、失败属性、原因和时间戳；拒绝不会中断整个运行
type RejectedItem struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SourceName string `gorm:"size:512;index" json:"source_name"`
	URL        string `gorm:"size:1024" json:"url"`
	Attribute  string `gorm:"size:64;comment:失败的属性" json:"attribute"`
	Reason     string `gorm:"size:1024" json:"reason"`
	RunID      string `gorm:"size:64;index" json:"run_id"`
}

func (RejectedItem) TableName() string { return "rejected_items" }
