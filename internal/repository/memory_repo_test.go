package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestMemoryRepo(t *testing.T) (*MemoryRepo, string) {
	dir := t.TempDir()
	return NewMemoryRepo(dir, zap.NewNop().Sugar()), dir
}

// ==================== 基础读写 ====================

func TestMemoryRepoStoreAndLookup(t *testing.T) {
	repo, dir := newTestMemoryRepo(t)

	if err := repo.Store("BrandMemory", "CS", "stiga", "Stiga"); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	value, ok := repo.Lookup("BrandMemory", "CS", "stiga")
	if !ok || value != "Stiga" {
		t.Fatalf("精确查找 = %q, %v; want Stiga, true", value, ok)
	}

	// 落盘文件名带语言后缀
	if _, err := os.Stat(filepath.Join(dir, "BrandMemory_CS.csv")); err != nil {
		t.Fatalf("记忆表文件缺失: %v", err)
	}

	// 新实例从磁盘读回
	reload := NewMemoryRepo(dir, zap.NewNop().Sugar())
	value, ok = reload.Lookup("BrandMemory", "CS", "stiga")
	if !ok || value != "Stiga" {
		t.Fatalf("重载后查找 = %q, %v; want Stiga, true", value, ok)
	}
}

func TestMemoryRepoLanguageIndependentTable(t *testing.T) {
	repo, dir := newTestMemoryRepo(t)

	if err := repo.Store("BrandCodeList", "", "Stiga", "STI"); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "BrandCodeList.csv")); err != nil {
		t.Fatalf("语言无关表不应带后缀: %v", err)
	}
}

// ==================== 规范化查找与加宽 ====================

func TestMemoryRepoLookupNormalizedWidens(t *testing.T) {
	repo, _ := newTestMemoryRepo(t)

	if err := repo.Store("BrandMemory", "CS", "Stiga", "Stiga"); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	// 变体键通过规范化命中
	value, ok := repo.LookupNormalized("BrandMemory", "CS", "  STIGA  ")
	if !ok || value != "Stiga" {
		t.Fatalf("规范化查找 = %q, %v; want Stiga, true", value, ok)
	}

	// 命中后缓存加宽：原始变体键成为精确键
	value, ok = repo.Lookup("BrandMemory", "CS", "  STIGA  ")
	if !ok || value != "Stiga" {
		t.Fatalf("加宽后精确查找 = %q, %v; want Stiga, true", value, ok)
	}
}

func TestMemoryRepoStoreIdempotent(t *testing.T) {
	repo, _ := newTestMemoryRepo(t)

	for i := 0; i < 3; i++ {
		if err := repo.Store("TypeMemory", "CS", "palka", "Pálka"); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}
	keys := repo.Keys("TypeMemory", "CS")
	if len(keys) != 1 {
		t.Fatalf("重复写入产生了 %d 个键, want 1", len(keys))
	}
}

// ==================== 备份与容错 ====================

func TestMemoryRepoBackupBeforeOverwrite(t *testing.T) {
	repo, dir := newTestMemoryRepo(t)

	if err := repo.Store("NameMemory", "CS", "k1", "v1"); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := repo.Store("NameMemory", "CS", "k2", "v2"); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("读目录失败: %v", err)
	}
	backups := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".csv_old") {
			backups++
		}
	}
	if backups == 0 {
		t.Fatal("第二次落盘前应产生备份文件")
	}
}

func TestMemoryRepoMissingFileIsEmpty(t *testing.T) {
	repo, _ := newTestMemoryRepo(t)
	if _, ok := repo.Lookup("NeverWritten", "CS", "x"); ok {
		t.Fatal("缺失表应按空表处理")
	}
}

func TestMemoryRepoCorruptFileIsEmpty(t *testing.T) {
	repo, dir := newTestMemoryRepo(t)

	bad := filepath.Join(dir, "Broken_CS.csv")
	if err := os.WriteFile(bad, []byte("KEY,VALUE\n\"unterminated\n"), 0o644); err != nil {
		t.Fatalf("写坏文件失败: %v", err)
	}
	if _, ok := repo.Lookup("Broken", "CS", "x"); ok {
		t.Fatal("坏文件应按空表处理，不应命中")
	}
}

func TestMemoryRepoStoreIOFailureNonFatal(t *testing.T) {
	// 目录位置被文件占住，落盘必然失败
	dir := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatalf("准备失败: %v", err)
	}
	repo := NewMemoryRepo(dir, zap.NewNop().Sugar())

	err := repo.Store("NameMemory", "CS", "k", "v")
	if err == nil {
		t.Fatal("落盘失败应返回错误")
	}
	if !errors.Is(err, ErrCacheIO) {
		t.Fatalf("错误应是 ErrCacheIO, got %v", err)
	}

	// 条目保留在内存中，本次运行继续可用
	if value, ok := repo.Lookup("NameMemory", "CS", "k"); !ok || value != "v" {
		t.Fatalf("落盘失败后内存条目丢失: %q, %v", value, ok)
	}
}

// ==================== 词表辅助 ====================

func TestMemoryRepoValuesDeduped(t *testing.T) {
	repo, _ := newTestMemoryRepo(t)
	repo.Store("BrandMemory", "CS", "stiga", "Stiga")
	repo.Store("BrandMemory", "CS", "STIGA tt", "Stiga")
	repo.Store("BrandMemory", "CS", "butterfly", "Butterfly")

	values := repo.Values("BrandMemory", "CS")
	if len(values) != 2 {
		t.Fatalf("去重后应有 2 个值, got %v", values)
	}
}

func TestMemoryRepoLoadLines(t *testing.T) {
	repo, dir := newTestMemoryRepo(t)
	content := "Sport>Running\n\nSport>Tennis\n  \nHome>Kitchen\n"
	if err := os.WriteFile(filepath.Join(dir, "CategoryList.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("写列表文件失败: %v", err)
	}

	lines := repo.LoadLines("CategoryList.txt")
	if len(lines) != 3 {
		t.Fatalf("空行应被忽略, got %v", lines)
	}
	if lines[0] != "Sport>Running" || lines[2] != "Home>Kitchen" {
		t.Fatalf("行内容错误: %v", lines)
	}
}
