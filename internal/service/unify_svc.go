package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unifier_dev_v1_202608/internal/model"
	"unifier_dev_v1_202608/internal/repository"
	"unifier_dev_v1_202608/pkg/utils"
)

// ==================== 统一编排 ====================

// RunSummary 一次运行的结果统计
type RunSummary struct {
	RunID      string
	Processed  int
	Exported   int
	Rejected   int
	ReportPath string
}

// UnifyService 商品统一的编排层
// 逐商品跑完属性级联、类目、代码、价格、导出映射，最后写报表和导出状态
// 单个商品的校验失败记入拒绝审计后继续，绝不中断整次运行
type UnifyService struct {
	resolver *ResolverService
	category *CategoryService
	codegen  *CodeGenService
	export   *ExportService
	state    repository.ExportStateRepository
	rejected repository.RejectedItemRepository
	log      *zap.SugaredLogger

	exportDir string
	runID     string
}

// NewUnifyService 创建编排服务，每个实例对应一次运行 (独立 RunID)
func NewUnifyService(
	resolver *ResolverService,
	category *CategoryService,
	codegen *CodeGenService,
	export *ExportService,
	state repository.ExportStateRepository,
	rejected repository.RejectedItemRepository,
	exportDir string,
	log *zap.SugaredLogger,
) *UnifyService {
	return &UnifyService{
		resolver:  resolver,
		category:  category,
		codegen:   codegen,
		export:    export,
		state:     state,
		rejected:  rejected,
		exportDir: exportDir,
		log:       log,
		runID:     uuid.New().String(),
	}
}

// RunID 本次运行标识
func (s *UnifyService) RunID() string { return s.runID }

// Run 处理整批输入商品并写出报表
func (s *UnifyService) Run(ctx context.Context, products []*model.SourceProduct) (*RunSummary, error) {
	summary := &RunSummary{RunID: s.runID}
	var records []*model.ExportRecord

	for _, source := range products {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		canonical, err := s.UnifyProduct(ctx, source)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				s.reject(ctx, source, err)
				summary.Rejected++
				continue
			}
			return summary, fmt.Errorf("商品处理失败 %q: %w", source.Name, err)
		}

		if err := s.persistState(ctx, canonical); err != nil {
			return summary, err
		}
		records = append(records, s.export.MapProduct(canonical)...)
		summary.Exported++
	}

	if len(records) > 0 {
		path, err := s.export.WriteReport(s.exportDir, records)
		if err != nil {
			return summary, err
		}
		summary.ReportPath = path
	}

	s.log.Infow("运行结束",
		"run_id", s.runID,
		"processed", summary.Processed,
		"exported", summary.Exported,
		"rejected", summary.Rejected,
		"report", summary.ReportPath,
	)
	return summary, nil
}

// UnifyProduct 单个商品的完整统一流程
func (s *UnifyService) UnifyProduct(ctx context.Context, source *model.SourceProduct) (*model.CanonicalProduct, error) {
	pctx := ProductContext{
		Name:             source.Name,
		URL:              source.URL,
		Description:      source.Description,
		ShortDescription: source.ShortDescription,
	}

	productType, err := s.resolveType(ctx, source, pctx)
	if err != nil {
		return nil, err
	}
	brand, err := s.resolveBrand(ctx, source, pctx)
	if err != nil {
		return nil, err
	}
	productModel, err := s.resolveModel(ctx, source, pctx)
	if err != nil {
		return nil, err
	}
	name, err := s.composeName(ctx, source, productType, brand, productModel)
	if err != nil {
		return nil, err
	}

	categoryKey, err := s.category.ResolveKey(ctx, source.Name, pctx)
	if err != nil {
		return nil, err
	}
	categoryName, err := s.category.DisplayName(ctx, categoryKey)
	if err != nil {
		return nil, err
	}
	categoryIDs, err := s.category.CategoryIDs(ctx, categoryKey)
	if err != nil {
		return nil, err
	}

	platformCategories := make(map[string]string, 4)
	for _, platform := range []string{PlatformHeureka, PlatformZbozi, PlatformGlami, PlatformGoogle} {
		mapped, err := s.category.PlatformCategory(ctx, platform, categoryKey, pctx)
		if err != nil {
			return nil, err
		}
		platformCategories[platform] = mapped
	}

	desc, err := s.resolveText(ctx, AttrDesc, "description_translation", source, pctx, source.Description)
	if err != nil {
		return nil, err
	}
	shortDesc, err := s.resolveText(ctx, AttrShortDesc, "description_translation", source, pctx, source.ShortDescription)
	if err != nil {
		return nil, err
	}
	googleKeywords, err := s.resolveText(ctx, AttrKeywordsGoogle, "keyword_generation", source, pctx, "")
	if err != nil {
		return nil, err
	}
	zboziKeywords, err := s.resolveText(ctx, AttrKeywordsZbozi, "keyword_generation", source, pctx, "")
	if err != nil {
		return nil, err
	}

	code, err := s.codegen.ProductCode(ctx, source.Name, brand, categoryKey)
	if err != nil {
		return nil, err
	}

	variants, err := s.unifyVariants(ctx, source, pctx, code)
	if err != nil {
		return nil, err
	}
	price, priceStandard := s.export.ComputePrices(variants)

	return &model.CanonicalProduct{
		OriginalName: source.Name,

		Brand: brand,
		Type:  productType,
		Model: productModel,
		Name:  name,

		CategoryKey: categoryKey,
		Category:    categoryName,
		CategoryIDs: categoryIDs,

		Code: code,

		Desc:      desc,
		ShortDesc: shortDesc,

		GoogleKeywords: googleKeywords,
		ZboziKeywords:  zboziKeywords,

		GlamiCategory:   platformCategories[PlatformGlami],
		GoogleCategory:  platformCategories[PlatformGoogle],
		HeurekaCategory: platformCategories[PlatformHeureka],
		ZboziCategory:   platformCategories[PlatformZbozi],

		Price:         price,
		PriceStandard: priceStandard,
		URL:           source.URL,

		Variants: variants,
	}, nil
}

// ==================== 属性解析 ====================

func (s *UnifyService) resolveType(ctx context.Context, source *model.SourceProduct, pctx ProductContext) (string, error) {
	memory := s.resolver.Memory()
	spec := AttributeSpec{
		Name:           AttrType,
		LanguageScoped: true,
		Default:        DefaultProductType,
		TaskType:       "type_resolution",
		Vocabulary: func() []string {
			return memory.Values(AttrType, s.resolver.Language())
		},
	}
	return s.resolver.Resolve(ctx, spec, source.Name, pctx)
}

func (s *UnifyService) resolveBrand(ctx context.Context, source *model.SourceProduct, pctx ProductContext) (string, error) {
	memory := s.resolver.Memory()
	spec := AttributeSpec{
		Name:           AttrBrand,
		LanguageScoped: true,
		Default:        DefaultBrand,
		TaskType:       "brand_resolution",
		// 词表 = 已见品牌 ∪ 品牌代码表里的全部品牌
		Vocabulary: func() []string {
			vocab := memory.Values(AttrBrand, s.resolver.Language())
			return append(vocab, memory.Keys(TableBrandCodes, "")...)
		},
		Options: func() []string {
			return memory.Keys(TableBrandCodes, "")
		},
	}
	return s.resolver.Resolve(ctx, spec, source.Name, pctx)
}

func (s *UnifyService) resolveModel(ctx context.Context, source *model.SourceProduct, pctx ProductContext) (string, error) {
	spec := AttributeSpec{
		Name:           AttrModel,
		LanguageScoped: true,
		Default:        "",
		TaskType:       "model_resolution",
	}
	return s.resolver.Resolve(ctx, spec, source.Name, pctx)
}

// composeName 组合名称 "Type Brand Model"
// 名称记忆命中时直接复用；自有品牌不出现在名称里
func (s *UnifyService) composeName(ctx context.Context, source *model.SourceProduct, productType, brand, productModel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	memory := s.resolver.Memory()
	lang := s.resolver.Language()
	if name, ok := memory.Lookup(AttrName, lang, source.Name); ok {
		return name, nil
	}

	nameBrand := brand
	if IsHouseBrand(brand) || brand == DefaultBrand {
		nameBrand = ""
	}

	parts := make([]string, 0, 3)
	if productType != "" {
		parts = append(parts, productType)
	}
	if nameBrand != "" {
		parts = append(parts, utils.FormatProperName(nameBrand))
	}
	if productModel != "" {
		parts = append(parts, utils.FormatProperName(productModel))
	}
	name := strings.TrimSpace(strings.Join(parts, " "))
	if name == "" {
		name = utils.FormatProperName(source.Name)
	}

	if err := memory.Store(AttrName, lang, source.Name, name); err != nil {
		s.log.Warnw("组合名称未能缓存", "key", source.Name, "err", err)
	}
	return name, nil
}

// resolveText 文本类属性 (描述/关键词)，以来源名称为记忆键
func (s *UnifyService) resolveText(ctx context.Context, attribute, taskType string, source *model.SourceProduct, pctx ProductContext, fallback string) (string, error) {
	spec := AttributeSpec{
		Name:           attribute,
		LanguageScoped: true,
		Default:        "",
		TaskType:       taskType,
	}
	value, err := s.resolver.Resolve(ctx, spec, source.Name, pctx)
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// ==================== 变体处理 ====================

// unifyVariants 标准化变体属性对 (最多 3 个) 和库存状态，并分配变体代码
func (s *UnifyService) unifyVariants(ctx context.Context, source *model.SourceProduct, pctx ProductContext, productCode string) ([]model.CanonicalVariant, error) {
	if len(source.Variants) == 0 {
		return nil, nil
	}
	codes, err := s.codegen.VariantCodes(ctx, productCode, len(source.Variants))
	if err != nil {
		return nil, err
	}

	variants := make([]model.CanonicalVariant, 0, len(source.Variants))
	for i, raw := range source.Variants {
		variant := model.CanonicalVariant{
			CurrentPrice: raw.CurrentPrice,
			BasicPrice:   raw.BasicPrice,
			Code:         codes[i],
		}

		status, err := s.resolveVariantValue(ctx, AttrStockStatus, raw.StockStatus, pctx)
		if err != nil {
			return nil, err
		}
		variant.StockStatus = status

		// 属性对上限 3 个，多出的丢弃
		pairs := raw.Attributes
		if len(pairs) > 3 {
			s.log.Debugw("变体属性超过上限，截断", "product", source.Name, "pairs", len(pairs))
			pairs = pairs[:3]
		}
		for _, pair := range pairs {
			name, err := s.resolveVariantValue(ctx, AttrVariantName, pair.Name, pctx)
			if err != nil {
				return nil, err
			}
			value, err := s.resolveVariantValue(ctx, AttrVariantValue, pair.Value, pctx)
			if err != nil {
				return nil, err
			}
			variant.Pairs = append(variant.Pairs, model.AttributePair{Name: name, Value: value})
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

// resolveVariantValue 变体侧的小词标准化，级联落空时保留原词
func (s *UnifyService) resolveVariantValue(ctx context.Context, attribute, rawValue string, pctx ProductContext) (string, error) {
	rawValue = strings.TrimSpace(rawValue)
	if rawValue == "" {
		return "", nil
	}
	spec := AttributeSpec{
		Name:           attribute,
		LanguageScoped: true,
		Default:        rawValue,
		TaskType:       "value_standardization",
	}
	return s.resolver.Resolve(ctx, spec, rawValue, pctx)
}

// ==================== 状态与审计 ====================

func (s *UnifyService) persistState(ctx context.Context, p *model.CanonicalProduct) error {
	variantCodes := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		variantCodes = append(variantCodes, v.Code)
	}
	codesJSON, err := json.Marshal(variantCodes)
	if err != nil {
		return err
	}

	record := &model.ExportedProduct{
		SourceName:    p.OriginalName,
		Code:          p.Code,
		Name:          p.Name,
		Brand:         p.Brand,
		CategoryKey:   p.CategoryKey,
		Price:         p.Price,
		PriceStandard: p.PriceStandard,
		VariantCodes:  codesJSON,
		RunID:         s.runID,
	}
	if err := s.state.Upsert(ctx, record); err != nil {
		return fmt.Errorf("导出状态写入失败: %w", err)
	}
	return nil
}

// reject 拒绝审计：记录后运行继续
func (s *UnifyService) reject(ctx context.Context, source *model.SourceProduct, cause error) {
	s.log.Warnw("商品被拒绝", "product", source.Name, "reason", cause)
	item := &model.RejectedItem{
		SourceName: source.Name,
		URL:        source.URL,
		Attribute:  rejectionAttribute(cause),
		Reason:     cause.Error(),
		RunID:      s.runID,
	}
	if err := s.rejected.Create(ctx, item); err != nil {
		s.log.Errorw("拒绝审计写入失败", "product", source.Name, "err", err)
	}
}

// rejectionAttribute 从错误文本里粗分失败属性，审计用
func rejectionAttribute(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "类目"):
		return "category"
	case strings.Contains(msg, "价格"):
		return "price"
	default:
		return "general"
	}
}
