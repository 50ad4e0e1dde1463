package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"unifier_dev_v1_202608/pkg/utils"
)

// ==================== 类目解析 ====================

// CategoryService 类目三件事：原始文本 -> 规范键、键 -> 展示翻译、键 -> 数字 ID 链
// 规范键是语言无关的 '>' 分隔路径 (如 "Sport>Running>Shoes")，
// 必须出现在主列表 CategoryList.txt 中，否则该商品按校验失败拒绝
type CategoryService struct {
	resolver *ResolverService
	log      *zap.SugaredLogger

	masterList []string
	masterSet  map[string]struct{}
	normMaster map[string]string // 规范化键 -> 主列表原文
}

// NewCategoryService 创建类目服务并加载主列表
func NewCategoryService(resolver *ResolverService, log *zap.SugaredLogger) *CategoryService {
	s := &CategoryService{
		resolver:   resolver,
		log:        log,
		masterSet:  make(map[string]struct{}),
		normMaster: make(map[string]string),
	}
	s.masterList = resolver.Memory().LoadLines(FileCategoryList)
	for _, key := range s.masterList {
		s.masterSet[key] = struct{}{}
		s.normMaster[utils.NormalizeKey(key)] = key
	}
	if len(s.masterList) == 0 {
		log.Warnw("类目主列表为空或缺失", "file", FileCategoryList)
	}
	return s
}

// MasterList 主列表内容 (只读用途)
func (s *CategoryService) MasterList() []string {
	out := make([]string, len(s.masterList))
	copy(out, s.masterList)
	return out
}

// ResolveKey 把商品原始类目文本解析为规范键
// 走完整级联；任何层给出的候选都要通过主列表校验，
// 未通过校验的商品返回 ErrValidation
func (s *CategoryService) ResolveKey(ctx context.Context, rawText string, pctx ProductContext) (string, error) {
	spec := AttributeSpec{
		Name:           AttrCategory,
		LanguageScoped: true,
		Default:        "",
		TaskType:       "category_selection",
		Options:        func() []string { return s.MasterList() },
		Canonicalize:   s.canonicalKey,
	}
	key, err := s.resolver.Resolve(ctx, spec, rawText, pctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("%w: 类目无法解析: %q", ErrValidation, rawText)
	}
	// 缓存里可能存着主列表修订前的旧键
	if _, ok := s.masterSet[key]; !ok {
		return "", fmt.Errorf("%w: 类目键不在主列表中: %q", ErrValidation, key)
	}
	return key, nil
}

// canonicalKey 把候选 (可能是键本身、大小写变体或展示名) 规范到主列表键
func (s *CategoryService) canonicalKey(candidate string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", fmt.Errorf("%w: 空类目候选", ErrValidation)
	}
	if _, ok := s.masterSet[candidate]; ok {
		return candidate, nil
	}
	if key, ok := s.normMaster[utils.NormalizeKey(candidate)]; ok {
		return key, nil
	}
	if key, ok := s.KeyForDisplayName(candidate); ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: 类目候选不在主列表中: %q", ErrValidation, candidate)
}

// DisplayName 把规范键翻译为目标语言的展示名
// 翻译缺失时走 AI/人工补齐并缓存；兜底返回键本身
func (s *CategoryService) DisplayName(ctx context.Context, key string) (string, error) {
	spec := AttributeSpec{
		Name:           AttrCategoryName,
		LanguageScoped: true,
		Default:        key,
		TaskType:       "category_translation",
	}
	return s.resolver.Resolve(ctx, spec, key, ProductContext{Name: key})
}

// KeyForDisplayName 展示名 -> 规范键的反查 (往返一致性)
func (s *CategoryService) KeyForDisplayName(display string) (string, bool) {
	table := s.resolver.Memory().Snapshot(AttrCategoryName, s.resolver.Language())
	for key, value := range table {
		if value == display {
			if _, ok := s.masterSet[key]; ok {
				return key, true
			}
		}
	}
	return "", false
}

// CategoryIDs 规范键 -> 数字 ID 链
// 段序反转后逐段查 CategoryIDList：叶子段在前，根段在后，逗号连接
// 未映射段在交互模式下征询并缓存，批处理下按校验失败拒绝
func (s *CategoryService) CategoryIDs(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	segments := strings.Split(key, ">")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	ids := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		id, err := s.segmentID(segment)
		if err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	return strings.Join(ids, ","), nil
}

func (s *CategoryService) segmentID(segment string) (string, error) {
	memory := s.resolver.Memory()
	if id, ok := memory.Lookup(TableCategoryIDs, "", segment); ok {
		return id, nil
	}
	if id, ok := memory.LookupNormalized(TableCategoryIDs, "", segment); ok {
		return id, nil
	}
	if s.resolver.decider.Interactive() {
		if id, ok := s.resolver.decider.Ask(TableCategoryIDs, segment, ""); ok {
			if err := memory.Store(TableCategoryIDs, "", segment, id); err != nil {
				s.log.Warnw("类目 ID 未能缓存", "segment", segment, "err", err)
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: 类目段无数字 ID 映射: %q", ErrValidation, segment)
}

// PlatformCategory 把规范键映射为比价平台 (Heureka/Zbozi/Glami/Google) 的类目路径
// 映射缺失时走级联补齐；兜底为空串 (导出时留空)
func (s *CategoryService) PlatformCategory(ctx context.Context, platform, key string, pctx ProductContext) (string, error) {
	spec := AttributeSpec{
		Name:           AttrCategoryMappingPrefix + platform,
		LanguageScoped: true,
		Default:        "",
		TaskType:       "category_selection",
	}
	return s.resolver.Resolve(ctx, spec, key, pctx)
}
