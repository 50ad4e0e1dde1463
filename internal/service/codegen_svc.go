package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"unifier_dev_v1_202608/internal/repository"
	"unifier_dev_v1_202608/pkg/utils"
)

// ==================== 组合代码生成 ====================

// CodeGenService 组合商品代码 BBBCCSS-NNNN 的分配器
// BBB = 品牌代码 (3)，CC = 类目代码 (2)，SS = 子类目代码 (2)，NNNN = 前缀内序号
// 幂等规则：同名来源商品永远复用已分配代码；序号取前缀内最小空闲正整数，
// 已用集合 = 本次运行已分配 ∪ 导出状态库中同前缀代码
// 单写入者设计，分配器内部状态不做并发保护
type CodeGenService struct {
	memory *repository.MemoryRepo
	state  repository.ExportStateRepository
	log    *zap.SugaredLogger

	// 本次运行内的分配记录
	runCodes    map[string]string           // 来源名称 -> 代码
	runIndexes  map[string]map[int]struct{} // 前缀 -> 已用序号
	prefixKnown map[string]struct{}         // 已从状态库装载过的前缀
}

// NewCodeGenService 创建代码分配器
func NewCodeGenService(memory *repository.MemoryRepo, state repository.ExportStateRepository, log *zap.SugaredLogger) *CodeGenService {
	return &CodeGenService{
		memory:      memory,
		state:       state,
		log:         log,
		runCodes:    make(map[string]string),
		runIndexes:  make(map[string]map[int]struct{}),
		prefixKnown: make(map[string]struct{}),
	}
}

// BrandCode 品牌 -> 三位品牌代码
// 自有品牌别名与未知品牌一律落到保留代码，保证每个商品都能编码
func (s *CodeGenService) BrandCode(brand string) string {
	norm := utils.NormalizeKey(brand)
	if norm == "" || brand == DefaultBrand {
		return HouseBrandCode
	}
	if _, ok := houseBrandAliases[norm]; ok {
		return HouseBrandCode
	}
	if code, ok := s.memory.Lookup(TableBrandCodes, "", brand); ok {
		return code
	}
	if code, ok := s.memory.LookupNormalized(TableBrandCodes, "", brand); ok {
		return code
	}
	return HouseBrandCode
}

// CategoryCodes 类目键 -> (类目代码, 子类目代码)
// 第一段查 CategoryCodeList，第二段查 CategorySubCodeList，缺映射补 "00"
func (s *CodeGenService) CategoryCodes(categoryKey string) (string, string) {
	segments := strings.Split(categoryKey, ">")
	categoryCode := "00"
	subCode := "00"
	if len(segments) >= 1 {
		categoryCode = s.segmentCode(TableCategoryCodes, segments[0])
	}
	if len(segments) >= 2 {
		subCode = s.segmentCode(TableCategorySubCodes, segments[1])
	}
	return categoryCode, subCode
}

func (s *CodeGenService) segmentCode(table, segment string) string {
	segment = strings.TrimSpace(segment)
	if code, ok := s.memory.Lookup(table, "", segment); ok {
		return code
	}
	if code, ok := s.memory.LookupNormalized(table, "", segment); ok {
		return code
	}
	return "00"
}

// Prefix 组合七位前缀 BBBCCSS
func (s *CodeGenService) Prefix(brand, categoryKey string) string {
	categoryCode, subCode := s.CategoryCodes(categoryKey)
	return s.BrandCode(brand) + categoryCode + subCode
}

// ProductCode 为商品分配组合代码
// 同名来源商品命中状态库或本次运行记录时原样复用
func (s *CodeGenService) ProductCode(ctx context.Context, sourceName, brand, categoryKey string) (string, error) {
	if code, ok := s.runCodes[sourceName]; ok {
		return code, nil
	}
	existing, err := s.state.GetBySourceName(ctx, sourceName)
	if err != nil {
		return "", fmt.Errorf("导出状态查询失败: %w", err)
	}
	if existing != nil && existing.Code != "" {
		s.remember(sourceName, existing.Code)
		return existing.Code, nil
	}

	prefix := s.Prefix(brand, categoryKey)
	used, err := s.usedIndexes(ctx, prefix)
	if err != nil {
		return "", err
	}
	index := smallestFree(used, 1)
	code := fmt.Sprintf("%s-%04d", prefix, index)
	s.remember(sourceName, code)
	return code, nil
}

// VariantCodes 为 n 个变体分配父代码下的变体代码 <code>-Vnn
// 变体代码一经分配不再变动：父代码复用时按位置复用状态库里的既有代码，
// 只给超出既有集合的新变体分配空闲序号
func (s *CodeGenService) VariantCodes(ctx context.Context, parentCode string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	persisted, err := s.state.ListVariantCodes(ctx, parentCode)
	if err != nil {
		return nil, fmt.Errorf("变体代码查询失败: %w", err)
	}

	used := make(map[int]struct{})
	codes := make([]string, 0, n)
	for _, code := range persisted {
		if len(codes) == n {
			break
		}
		idx, ok := variantIndex(parentCode, code)
		if !ok {
			continue
		}
		if _, taken := used[idx]; taken {
			continue
		}
		used[idx] = struct{}{}
		codes = append(codes, code)
	}

	next := 1
	for len(codes) < n {
		next = smallestFree(used, next)
		used[next] = struct{}{}
		codes = append(codes, fmt.Sprintf("%s-V%02d", parentCode, next))
	}
	return codes, nil
}

// ==================== 内部状态 ====================

func (s *CodeGenService) remember(sourceName, code string) {
	s.runCodes[sourceName] = code
	if idx := strings.LastIndex(code, "-"); idx > 0 {
		prefix := code[:idx]
		if n, err := strconv.Atoi(code[idx+1:]); err == nil {
			s.markUsed(prefix, n)
		}
	}
}

func (s *CodeGenService) markUsed(prefix string, index int) {
	if s.runIndexes[prefix] == nil {
		s.runIndexes[prefix] = make(map[int]struct{})
	}
	s.runIndexes[prefix][index] = struct{}{}
}

// usedIndexes 前缀的完整已用序号集合，状态库部分每前缀只装载一次
func (s *CodeGenService) usedIndexes(ctx context.Context, prefix string) (map[int]struct{}, error) {
	if _, loaded := s.prefixKnown[prefix]; !loaded {
		codes, err := s.state.ListCodesByPrefix(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("前缀代码查询失败: %w", err)
		}
		for _, code := range codes {
			rest := strings.TrimPrefix(code, prefix)
			rest = strings.TrimPrefix(rest, "-")
			// LIKE 是前缀匹配，掐掉序号段超长的他前缀代码
			if len(rest) != 4 {
				continue
			}
			if n, err := strconv.Atoi(rest); err == nil {
				s.markUsed(prefix, n)
			}
		}
		s.prefixKnown[prefix] = struct{}{}
	}
	if s.runIndexes[prefix] == nil {
		s.runIndexes[prefix] = make(map[int]struct{})
	}
	return s.runIndexes[prefix], nil
}

func smallestFree(used map[int]struct{}, from int) int {
	n := from
	if n < 1 {
		n = 1
	}
	for {
		if _, taken := used[n]; !taken {
			return n
		}
		n++
	}
}

func variantIndex(parentCode, code string) (int, bool) {
	suffix := strings.TrimPrefix(code, parentCode+"-V")
	if suffix == code {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
