package service

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"unifier_dev_v1_202608/internal/repository"
	"unifier_dev_v1_202608/pkg/utils"
)

// ==================== 属性规格 ====================

// AttributeSpec 级联引擎的属性参数化
// 同一个引擎靠这张表复用于 brand/type/model/类目映射/变体属性等全部属性
type AttributeSpec struct {
	Name           string // 记忆表命名空间
	LanguageScoped bool   // 记忆表是否按语言分离
	Default        string // 终态缺省字面量
	TaskType       string // AI 建议的任务类型提示

	// Vocabulary 启发式整词搜索的词表来源 (nil = 跳过启发层)
	Vocabulary func() []string

	// Options 传给 AI 的限定可选集合 (nil = 不限定)
	Options func() []string

	// Canonicalize 候选接受后的规范化钩子 (如类目显示名 -> 规范键)
	// 返回 ErrValidation 时该商品被拒绝
	Canonicalize func(candidate string) (string, error)
}

func (spec AttributeSpec) language(current string) string {
	if spec.LanguageScoped {
		return current
	}
	return ""
}

// ==================== 级联引擎 ====================

// 模糊匹配接受阈值；两个候选分差小于歧义带宽时视为可比分数
const (
	fuzzyThreshold     = 0.80
	fuzzyAmbiguityBand = 0.05
)

// ResolverService 通用解析级联
// 状态顺序: ExactMatch -> NormalizedMatch -> FuzzyCandidate -> HeuristicExtract
//           -> AIAssist -> UserPrompt -> Default
// 任何非精确层的候选都经过确认门；接受后立即落盘，
// 同一原始键的后续解析退化为精确命中
type ResolverService struct {
	memory   *repository.MemoryRepo
	ai       Suggester
	decider  DecisionProvider
	language string
	log      *zap.SugaredLogger
}

// NewResolverService 创建级联引擎
// ai 可为 nil (AI 层整体跳过)
func NewResolverService(memory *repository.MemoryRepo, ai Suggester, decider DecisionProvider, language string, log *zap.SugaredLogger) *ResolverService {
	return &ResolverService{
		memory:   memory,
		ai:       ai,
		decider:  decider,
		language: strings.ToUpper(language),
		log:      log,
	}
}

// Language 当前目标语言
func (s *ResolverService) Language() string { return s.language }

// Memory 底层记忆库 (类目/代码服务共享)
func (s *ResolverService) Memory() *repository.MemoryRepo { return s.memory }

// Resolve 对单个原始键运行完整级联
// 只有走完确认门的解析才会持久化；AI 或人工环节中途失败/取消时
// 记忆库保持原样不变
func (s *ResolverService) Resolve(ctx context.Context, spec AttributeSpec, rawKey string, pctx ProductContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return spec.Default, nil
	}
	lang := spec.language(s.language)

	// ExactMatch
	if value, ok := s.memory.Lookup(spec.Name, lang, rawKey); ok {
		return value, nil
	}

	// NormalizedMatch (命中时记忆库自动加宽)
	if value, ok := s.memory.LookupNormalized(spec.Name, lang, rawKey); ok {
		return value, nil
	}

	var hints []string

	// FuzzyCandidate
	if candidate, ambiguous := s.fuzzyCandidate(spec, lang, rawKey); candidate != "" {
		if ambiguous {
			s.log.Debugw("模糊匹配歧义，升级处理", "attribute", spec.Name, "key", rawKey, "err", ErrAmbiguousMatch)
			hints = append(hints, candidate)
		} else {
			value, ok, err := s.confirmAndStore(spec, lang, rawKey, candidate, OriginFuzzy)
			if err != nil {
				return "", err
			}
			if ok {
				return value, nil
			}
		}
	}

	// HeuristicExtract
	if spec.Vocabulary != nil {
		matches := heuristicMatches(pctx, spec.Vocabulary())
		switch len(matches) {
		case 0:
			// 无命中，继续向下
		case 1:
			value, ok, err := s.confirmAndStore(spec, lang, rawKey, matches[0], OriginHeuristic)
			if err != nil {
				return "", err
			}
			if ok {
				return value, nil
			}
		default:
			// 多个可比候选：绝不静默选择，带着提示升级
			s.log.Debugw("启发式匹配歧义，升级处理", "attribute", spec.Name, "key", rawKey, "matches", matches, "err", ErrAmbiguousMatch)
			hints = append(hints, matches...)
		}
	}

	// AIAssist
	if s.ai != nil {
		req := SuggestRequest{
			Attribute: spec.Name,
			TaskType:  spec.TaskType,
			Language:  s.language,
			Product:   pctx,
			Hints:     hints,
			RawKey:    rawKey,
		}
		if spec.Options != nil {
			req.Options = spec.Options()
		}
		suggestion, err := s.ai.Suggest(ctx, req)
		if err != nil {
			s.log.Debugw("AI 建议不可用，继续兜底", "attribute", spec.Name, "key", rawKey, "err", err)
		} else {
			value, ok, err := s.confirmAndStore(spec, lang, rawKey, suggestion, OriginAI)
			if err != nil {
				return "", err
			}
			if ok {
				return value, nil
			}
		}
	}

	// UserPrompt (批处理模式下整层禁用)
	if s.decider.Interactive() {
		hint := ""
		if len(hints) > 0 {
			hint = hints[0]
		}
		if value, ok := s.decider.Ask(spec.Name, rawKey, hint); ok {
			canonical, err := s.canonicalize(spec, value)
			if err != nil {
				return "", err
			}
			s.store(spec, lang, rawKey, canonical)
			return canonical, nil
		}
	}

	// Default
	return spec.Default, nil
}

// ==================== 级联内部层 ====================

// fuzzyCandidate 用序列对齐比率在既有键中找最佳候选
// 返回 (候选值, 是否歧义)；无候选时返回 ("", false)
func (s *ResolverService) fuzzyCandidate(spec AttributeSpec, lang, rawKey string) (string, bool) {
	normRaw := utils.NormalizeKey(rawKey)
	if normRaw == "" {
		return "", false
	}

	var bestKey string
	var best, second float64
	for _, key := range s.memory.Keys(spec.Name, lang) {
		score := similarityRatio(normRaw, utils.NormalizeKey(key))
		if score > best {
			second = best
			best = score
			bestKey = key
		} else if score > second {
			second = score
		}
	}

	if best < fuzzyThreshold {
		return "", false
	}
	value, _ := s.memory.Lookup(spec.Name, lang, bestKey)
	if second >= fuzzyThreshold && best-second < fuzzyAmbiguityBand {
		return value, true
	}
	return value, false
}

// heuristicMatches 在商品文本里做整词、大小写不敏感的词表扫描
func heuristicMatches(pctx ProductContext, vocabulary []string) []string {
	texts := []string{pctx.Name, pctx.URL, pctx.Description, pctx.ShortDescription}

	seen := make(map[string]struct{})
	var matches []string
	for _, entry := range vocabulary {
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		for _, text := range texts {
			if text == "" {
				continue
			}
			if utils.ContainsWholeWord(text, entry) {
				seen[entry] = struct{}{}
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}

// confirmAndStore 确认门 + 落盘
// 候选被拒时返回 ok=false，级联继续向下；Canonicalize 的校验错误向上传播
func (s *ResolverService) confirmAndStore(spec AttributeSpec, lang, rawKey, candidate string, origin CandidateOrigin) (string, bool, error) {
	value, ok := s.decider.Confirm(spec.Name, rawKey, candidate, origin)
	if !ok {
		return "", false, nil
	}
	canonical, err := s.canonicalize(spec, value)
	if err != nil {
		return "", false, err
	}
	s.store(spec, lang, rawKey, canonical)
	return canonical, true, nil
}

func (s *ResolverService) canonicalize(spec AttributeSpec, value string) (string, error) {
	if spec.Canonicalize == nil {
		return value, nil
	}
	return spec.Canonicalize(value)
}

func (s *ResolverService) store(spec AttributeSpec, lang, rawKey, value string) {
	if err := s.memory.Store(spec.Name, lang, rawKey, value); err != nil {
		// CacheIOError: 解析继续，只是本条不缓存
		s.log.Warnw("解析结果未能缓存", "attribute", spec.Name, "key", rawKey, "err", err)
	}
}

// similarityRatio Ratcliff/Obershelp 风格的序列对齐比率
func similarityRatio(a, b string) float64 {
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
