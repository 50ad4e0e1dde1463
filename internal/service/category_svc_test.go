package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"unifier_dev_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

func newTestCategoryService(t *testing.T, decider DecisionProvider, ai Suggester) (*CategoryService, *ResolverService) {
	dir := t.TempDir()
	master := "Sport>Running>Shoes\nSport>TableTennis>Blades\nHome>Kitchen\n"
	if err := os.WriteFile(filepath.Join(dir, FileCategoryList), []byte(master), 0o644); err != nil {
		t.Fatalf("写主列表失败: %v", err)
	}

	memory := repository.NewMemoryRepo(dir, zap.NewNop().Sugar())
	if decider == nil {
		decider = AutoConfirmProvider{}
	}
	resolver := NewResolverService(memory, ai, decider, "CS", zap.NewNop().Sugar())
	return NewCategoryService(resolver, zap.NewNop().Sugar()), resolver
}

// ==================== 键解析与校验 ====================

func TestCategoryResolveKeyFromMemory(t *testing.T) {
	svc, resolver := newTestCategoryService(t, nil, nil)
	resolver.Memory().Store(AttrCategory, "CS", "raw category text", "Sport>Running>Shoes")

	key, err := svc.ResolveKey(context.Background(), "raw category text", ProductContext{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if key != "Sport>Running>Shoes" {
		t.Fatalf("key = %q", key)
	}
}

func TestCategoryResolveKeyRejectsUnknown(t *testing.T) {
	svc, _ := newTestCategoryService(t, nil, nil)

	_, err := svc.ResolveKey(context.Background(), "totally unknown category", ProductContext{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("无法解析应返回校验错误, got %v", err)
	}
}

func TestCategoryResolveKeyRejectsStaleCache(t *testing.T) {
	// 缓存里的键已不在主列表 -> 硬校验失败
	svc, resolver := newTestCategoryService(t, nil, nil)
	resolver.Memory().Store(AttrCategory, "CS", "raw text", "Removed>Category")

	_, err := svc.ResolveKey(context.Background(), "raw text", ProductContext{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("过期缓存键应被校验拦下, got %v", err)
	}
}

func TestCategoryAICandidateValidated(t *testing.T) {
	// AI 给出主列表键 -> 通过；Canonicalize 顺手把大小写修正
	ai := &fakeSuggester{value: "sport>running>shoes"}
	svc, resolver := newTestCategoryService(t, nil, ai)

	key, err := svc.ResolveKey(context.Background(), "running shoes raw", ProductContext{Name: "Shoes"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if key != "Sport>Running>Shoes" {
		t.Fatalf("候选应规范到主列表原文, got %q", key)
	}
	// 接受后落盘
	if value, _ := resolver.Memory().Lookup(AttrCategory, "CS", "running shoes raw"); value != "Sport>Running>Shoes" {
		t.Fatalf("落盘值错误: %q", value)
	}
}

func TestCategoryAIBadCandidateRejected(t *testing.T) {
	ai := &fakeSuggester{value: "Invented>Category"}
	svc, _ := newTestCategoryService(t, nil, ai)

	_, err := svc.ResolveKey(context.Background(), "some raw", ProductContext{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("主列表外候选应被拒, got %v", err)
	}
}

// ==================== 展示名往返 ====================

func TestCategoryDisplayNameRoundTrip(t *testing.T) {
	svc, resolver := newTestCategoryService(t, nil, nil)
	resolver.Memory().Store(AttrCategoryName, "CS", "Sport>Running>Shoes", "Běžecké boty")

	display, err := svc.DisplayName(context.Background(), "Sport>Running>Shoes")
	if err != nil {
		t.Fatalf("翻译失败: %v", err)
	}
	if display != "Běžecké boty" {
		t.Fatalf("display = %q", display)
	}

	key, ok := svc.KeyForDisplayName("Běžecké boty")
	if !ok || key != "Sport>Running>Shoes" {
		t.Fatalf("反查 = %q, %v", key, ok)
	}
}

func TestCategoryDisplayNameFallsBackToKey(t *testing.T) {
	svc, _ := newTestCategoryService(t, nil, nil)

	display, err := svc.DisplayName(context.Background(), "Home>Kitchen")
	if err != nil {
		t.Fatalf("翻译失败: %v", err)
	}
	if display != "Home>Kitchen" {
		t.Fatalf("无翻译应兜底为键本身, got %q", display)
	}
}

// ==================== 数字 ID ====================

func TestCategoryIDsReversedSegments(t *testing.T) {
	svc, resolver := newTestCategoryService(t, nil, nil)
	memory := resolver.Memory()
	memory.Store(TableCategoryIDs, "", "Sport", "10")
	memory.Store(TableCategoryIDs, "", "Running", "55")
	memory.Store(TableCategoryIDs, "", "Shoes", "201")

	ids, err := svc.CategoryIDs(context.Background(), "Sport>Running>Shoes")
	if err != nil {
		t.Fatalf("ID 解析失败: %v", err)
	}
	// 段序反转: 叶子在前
	if ids != "201,55,10" {
		t.Fatalf("ids = %q, want 201,55,10", ids)
	}
}

func TestCategoryIDsUnmappedSegmentBatchRejects(t *testing.T) {
	svc, resolver := newTestCategoryService(t, nil, nil)
	resolver.Memory().Store(TableCategoryIDs, "", "Sport", "10")

	_, err := svc.CategoryIDs(context.Background(), "Sport>Running")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("批处理下未映射段应拒绝, got %v", err)
	}
}

func TestCategoryIDsUnmappedSegmentInteractiveAsks(t *testing.T) {
	decider := &ScriptedProvider{Answers: []ScriptedAnswer{{Value: "77", Accept: true}}}
	svc, resolver := newTestCategoryService(t, decider, nil)
	resolver.Memory().Store(TableCategoryIDs, "", "Sport", "10")

	ids, err := svc.CategoryIDs(context.Background(), "Sport>Running")
	if err != nil {
		t.Fatalf("交互模式下应征询: %v", err)
	}
	if ids != "77,10" {
		t.Fatalf("ids = %q, want 77,10", ids)
	}
	// 征询结果缓存
	if value, _ := resolver.Memory().Lookup(TableCategoryIDs, "", "Running"); value != "77" {
		t.Fatalf("征询的 ID 应缓存, got %q", value)
	}
}

// ==================== 平台映射 ====================

func TestCategoryPlatformMapping(t *testing.T) {
	svc, resolver := newTestCategoryService(t, nil, nil)
	resolver.Memory().Store(AttrCategoryMappingPrefix+PlatformHeureka, "CS", "Sport>Running>Shoes", "Heureka | Sport | Běžecká obuv")

	mapped, err := svc.PlatformCategory(context.Background(), PlatformHeureka, "Sport>Running>Shoes", ProductContext{})
	if err != nil {
		t.Fatalf("平台映射失败: %v", err)
	}
	if mapped != "Heureka | Sport | Běžecká obuv" {
		t.Fatalf("mapped = %q", mapped)
	}

	// 无映射时兜底空串
	mapped, err = svc.PlatformCategory(context.Background(), PlatformGlami, "Home>Kitchen", ProductContext{})
	if err != nil || mapped != "" {
		t.Fatalf("无映射应为空串: %q, %v", mapped, err)
	}
}
