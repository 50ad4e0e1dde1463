package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"unifier_dev_v1_202608/internal/model"
)

// ==================== 测试辅助 ====================

func setupStateTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.ExportedProduct{}, &model.RejectedItem{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// ==================== 导出状态 ====================

func TestExportStateUpsertAndGet(t *testing.T) {
	repo := NewExportStateRepository(setupStateTestDB(t))
	ctx := context.Background()

	product := &model.ExportedProduct{
		SourceName:  "Raw Product Name",
		Code:        "STI0101-0001",
		Name:        "Pálka Stiga Cybershape",
		Brand:       "Stiga",
		CategoryKey: "Sport>TableTennis",
		RunID:       "run-1",
	}
	if err := repo.Upsert(ctx, product); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	found, err := repo.GetBySourceName(ctx, "Raw Product Name")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if found == nil || found.Code != "STI0101-0001" {
		t.Fatalf("查询结果错误: %+v", found)
	}

	// 同来源名称再写入走更新
	product2 := &model.ExportedProduct{
		SourceName: "Raw Product Name",
		Code:       "STI0101-0001",
		Name:       "Pálka Stiga Cybershape Carbon",
		RunID:      "run-2",
	}
	if err := repo.Upsert(ctx, product2); err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	count, err := repo.CountByRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("run-2 商品数 = %d, want 1", count)
	}
}

func TestExportStateGetMissing(t *testing.T) {
	repo := NewExportStateRepository(setupStateTestDB(t))

	found, err := repo.GetBySourceName(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("未找到不应是错误: %v", err)
	}
	if found != nil {
		t.Fatalf("未找到应返回 nil, got %+v", found)
	}
}

func TestExportStateListCodesByPrefix(t *testing.T) {
	repo := NewExportStateRepository(setupStateTestDB(t))
	ctx := context.Background()

	for i, code := range []string{"STI0101-0001", "STI0101-0003", "BUT0101-0001"} {
		p := &model.ExportedProduct{
			SourceName: code + "-src",
			Code:       code,
			RunID:      "run-1",
		}
		if err := repo.Upsert(ctx, p); err != nil {
			t.Fatalf("写入 %d 失败: %v", i, err)
		}
	}

	codes, err := repo.ListCodesByPrefix(ctx, "STI0101")
	if err != nil {
		t.Fatalf("前缀查询失败: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("STI0101 前缀应有 2 个代码, got %v", codes)
	}
}

func TestExportStateListVariantCodes(t *testing.T) {
	repo := NewExportStateRepository(setupStateTestDB(t))
	ctx := context.Background()

	product := &model.ExportedProduct{
		SourceName:   "src",
		Code:         "STI0101-0001",
		VariantCodes: []byte(`["STI0101-0001-V01","STI0101-0001-V02"]`),
		RunID:        "run-1",
	}
	if err := repo.Upsert(ctx, product); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	codes, err := repo.ListVariantCodes(ctx, "STI0101-0001")
	if err != nil {
		t.Fatalf("变体代码查询失败: %v", err)
	}
	if len(codes) != 2 || codes[0] != "STI0101-0001-V01" {
		t.Fatalf("变体代码错误: %v", codes)
	}

	// 无记录返回空
	codes, err = repo.ListVariantCodes(ctx, "XXX0000-0001")
	if err != nil || codes != nil {
		t.Fatalf("无记录应返回空: %v, %v", codes, err)
	}
}

// ==================== 拒绝审计 ====================

func TestRejectedItemRepo(t *testing.T) {
	repo := NewRejectedItemRepository(setupStateTestDB(t))
	ctx := context.Background()

	items := []*model.RejectedItem{
		{SourceName: "p1", Attribute: "category", Reason: "类目键不在主列表中", RunID: "run-1"},
		{SourceName: "p2", Attribute: "category", Reason: "类目无法解析", RunID: "run-1"},
		{SourceName: "p3", Attribute: "general", Reason: "其他", RunID: "run-2"},
	}
	for _, item := range items {
		if err := repo.Create(ctx, item); err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	listed, err := repo.ListByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("run-1 应有 2 条拒绝, got %d", len(listed))
	}
	count, err := repo.CountByRun(ctx, "run-2")
	if err != nil || count != 1 {
		t.Fatalf("run-2 统计 = %d, %v; want 1", count, err)
	}
}
