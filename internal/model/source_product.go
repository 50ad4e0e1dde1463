package model

// ==================== 输入数据 ====================

// AttributePair 变体属性键值对 (保持来源顺序)
type AttributePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SourceVariant 抓取脚本输出的原始变体
// 创建后不再变更
type SourceVariant struct {
	Attributes   []AttributePair
	CurrentPrice float64
	BasicPrice   float64
	StockStatus  string
}

// SourceProduct 抓取脚本输出的原始商品，对应输入 CSV 的固定七列
// 创建后不再变更
type SourceProduct struct {
	Name              string
	ShortDescription  string
	Description       string
	MainPhotoFilepath string
	GalleryFilepaths  string
	Variants          []SourceVariant
	URL               string
}
