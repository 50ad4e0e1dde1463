package service

import "unifier_dev_v1_202608/pkg/utils"

// 记忆表命名空间 (语言相关表在落盘时追加 "_<LANG>" 后缀)
const (
	AttrName         = "NameMemory"
	AttrDesc         = "DescMemory"
	AttrShortDesc    = "ShortDescMemory"
	AttrVariantName  = "VariantNameMemory"
	AttrVariantValue = "VariantValueMemory"
	AttrModel        = "ProductModelMemory"
	AttrBrand        = "ProductBrandMemory"
	AttrType         = "ProductTypeMemory"
	AttrCategory     = "CategoryMemory"
	AttrCategoryName = "CategoryNameMemory"
	AttrStockStatus  = "StockStatusMemory"

	AttrKeywordsGoogle = "KeywordsGoogle"
	AttrKeywordsZbozi  = "KeywordsZbozi"

	// 平台类目映射表前缀: CategoryMapping<Platform>_<LANG>
	AttrCategoryMappingPrefix = "CategoryMapping"
)

// 语言无关的配置表
const (
	TableBrandCodes       = "BrandCodeList"
	TableCategoryCodes    = "CategoryCodeList"
	TableCategorySubCodes = "CategorySubCodeList"
	TableCategoryIDs      = "CategoryIDList"
	TableExportDefaults   = "DefaultExportProductValues"

	FileCategoryList = "CategoryList.txt"
)

// 平台名
const (
	PlatformHeureka = "Heureka"
	PlatformZbozi   = "Zbozi"
	PlatformGlami   = "Glami"
	PlatformGoogle  = "Google"
)

// 解析缺省值
const (
	DefaultProductType = "Product"
	DefaultBrand       = "Unknown"
)

// 自有品牌：别名集合统一映射到保留品牌代码
// 未知品牌同样退回保留代码，保证每个商品都拿到全宽代码
const (
	HouseBrandCode = "SPO"
)

// 键为 utils.NormalizeKey 后的形式
var houseBrandAliases = map[string]struct{}{
	"sportena":            {},
	"sportena s r o":      {},
	"sportena spol s r o": {},
	"sportena cz":         {},
}

// IsHouseBrand 自有品牌判定 (含公司后缀别名)
func IsHouseBrand(brand string) bool {
	norm := utils.NormalizeKey(brand)
	if norm == "" {
		return false
	}
	_, ok := houseBrandAliases[norm]
	return ok
}
