package model

// ==================== 规范化结果 ====================

// CanonicalVariant 解析完成的变体
// 属性对最多 3 个，多出的在解析阶段直接丢弃
type CanonicalVariant struct {
	Pairs        []AttributePair
	CurrentPrice float64
	BasicPrice   float64
	StockStatus  string
	Code         string // 父商品代码 + "-Vnn"
}

// CanonicalProduct 解析完成的规范商品
// 每个商品恰好持有一个组合代码
type CanonicalProduct struct {
	OriginalName string // 来源原始名称，代码复用的键

	Brand string
	Type  string
	Model string
	Name  string // 组合名称: Type Brand Model

	CategoryKey string // 语言无关的规范类目键 (">" 分隔)
	Category    string // 当前语言的类目显示名
	CategoryIDs string // 逗号分隔的数字 ID (段序反转后映射)

	Code string // BBBCCSS-NNNN

	Desc      string
	ShortDesc string

	GoogleKeywords string
	ZboziKeywords  string

	GlamiCategory   string
	GoogleCategory  string
	HeurekaCategory string
	ZboziCategory   string

	Price         string // 不含税，"%.2f" 或 "0"
	PriceStandard string // 含税
	URL           string

	Variants []CanonicalVariant
}
