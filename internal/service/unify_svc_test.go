package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"unifier_dev_v1_202608/internal/model"
	"unifier_dev_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

type unifyFixture struct {
	unify    *UnifyService
	memory   *repository.MemoryRepo
	state    repository.ExportStateRepository
	rejected repository.RejectedItemRepository
}

// newUnifyFixture 完整管线：sqlite 内存库 + 临时记忆目录，批处理模式，无 AI
func newUnifyFixture(t *testing.T) *unifyFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.ExportedProduct{}, &model.RejectedItem{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}

	memoryDir := t.TempDir()
	master := "Sport>TableTennis>Blades\nHome>Kitchen\n"
	if err := os.WriteFile(filepath.Join(memoryDir, FileCategoryList), []byte(master), 0o644); err != nil {
		t.Fatalf("写主列表失败: %v", err)
	}

	lg := zap.NewNop().Sugar()
	memory := repository.NewMemoryRepo(memoryDir, lg)

	// 配置表
	memory.Store(TableBrandCodes, "", "Stiga", "STI")
	memory.Store(TableCategoryCodes, "", "Sport", "01")
	memory.Store(TableCategorySubCodes, "", "TableTennis", "02")
	memory.Store(TableCategoryIDs, "", "Sport", "10")
	memory.Store(TableCategoryIDs, "", "TableTennis", "55")
	memory.Store(TableCategoryIDs, "", "Blades", "201")

	resolver := NewResolverService(memory, nil, AutoConfirmProvider{}, "CS", lg)
	category := NewCategoryService(resolver, lg)
	state := repository.NewExportStateRepository(db)
	rejected := repository.NewRejectedItemRepository(db)
	codegen := NewCodeGenService(memory, state, lg)
	export := NewExportService(memory, 0.21, lg)
	unify := NewUnifyService(resolver, category, codegen, export, state, rejected, t.TempDir(), lg)

	return &unifyFixture{unify: unify, memory: memory, state: state, rejected: rejected}
}

// seedProduct 把一个来源名称的全部属性预置成精确命中
func (f *unifyFixture) seedProduct(sourceName string) {
	f.memory.Store(AttrType, "CS", sourceName, "Pálka")
	f.memory.Store(AttrBrand, "CS", sourceName, "Stiga")
	f.memory.Store(AttrModel, "CS", sourceName, "Cybershape")
	f.memory.Store(AttrCategory, "CS", sourceName, "Sport>TableTennis>Blades")
}

func sampleSource(name string) *model.SourceProduct {
	return &model.SourceProduct{
		Name:             name,
		Description:      "dlouhý popis",
		ShortDescription: "krátký",
		URL:              "https://example.com/p/1",
		Variants: []model.SourceVariant{
			{
				Attributes:  []model.AttributePair{{Name: "Barva", Value: "Modrá"}},
				BasicPrice:  249,
				StockStatus: "Skladem",
			},
		},
	}
}

// ==================== 单商品流程 ====================

func TestUnifyProductFullPipeline(t *testing.T) {
	f := newUnifyFixture(t)
	f.seedProduct("STIGA Cybershape raw listing")

	p, err := f.unify.UnifyProduct(context.Background(), sampleSource("STIGA Cybershape raw listing"))
	if err != nil {
		t.Fatalf("统一失败: %v", err)
	}

	if p.Name != "Pálka Stiga Cybershape" {
		t.Errorf("组合名称 = %q", p.Name)
	}
	if p.Brand != "Stiga" || p.Type != "Pálka" {
		t.Errorf("属性 = %q/%q", p.Brand, p.Type)
	}
	if p.CategoryKey != "Sport>TableTennis>Blades" {
		t.Errorf("类目键 = %q", p.CategoryKey)
	}
	if p.CategoryIDs != "201,55,10" {
		t.Errorf("类目 ID = %q", p.CategoryIDs)
	}
	if p.Code != "STI0102-0001" {
		t.Errorf("代码 = %q", p.Code)
	}
	// 无翻译记忆时描述兜底到来源文本
	if p.Desc != "dlouhý popis" || p.ShortDesc != "krátký" {
		t.Errorf("描述 = %q/%q", p.Desc, p.ShortDesc)
	}
	if len(p.Variants) != 1 || p.Variants[0].Code != "STI0102-0001-V01" {
		t.Fatalf("变体 = %+v", p.Variants)
	}
	if p.Variants[0].StockStatus != "Skladem" {
		t.Errorf("库存状态 = %q", p.Variants[0].StockStatus)
	}
	// 249 / 1.21
	if p.Price != "205.79" || p.PriceStandard != "249.00" {
		t.Errorf("价格 = %q/%q", p.Price, p.PriceStandard)
	}
}

func TestUnifyProductUnknownFallsToDefaults(t *testing.T) {
	// 没有任何记忆的商品：类型/品牌落缺省值，类目解析失败
	f := newUnifyFixture(t)

	_, err := f.unify.UnifyProduct(context.Background(), sampleSource("Acme Alpha 3"))
	if err == nil {
		t.Fatal("未知类目应失败")
	}
}

func TestUnifyProductComposedNameCached(t *testing.T) {
	f := newUnifyFixture(t)
	f.seedProduct("raw listing")

	if _, err := f.unify.UnifyProduct(context.Background(), sampleSource("raw listing")); err != nil {
		t.Fatalf("统一失败: %v", err)
	}
	if name, ok := f.memory.Lookup(AttrName, "CS", "raw listing"); !ok || name != "Pálka Stiga Cybershape" {
		t.Fatalf("组合名称应缓存: %q, %v", name, ok)
	}
}

func TestUnifyProductNameMemoryWins(t *testing.T) {
	f := newUnifyFixture(t)
	f.seedProduct("raw listing")
	f.memory.Store(AttrName, "CS", "raw listing", "Ručně opravený název")

	p, err := f.unify.UnifyProduct(context.Background(), sampleSource("raw listing"))
	if err != nil {
		t.Fatalf("统一失败: %v", err)
	}
	if p.Name != "Ručně opravený název" {
		t.Fatalf("名称记忆应优先于组合, got %q", p.Name)
	}
}

// ==================== 整批运行 ====================

func TestRunMixedBatch(t *testing.T) {
	f := newUnifyFixture(t)
	f.seedProduct("good product")

	products := []*model.SourceProduct{
		sampleSource("good product"),
		sampleSource("bad category product"), // 类目无法解析 -> 拒绝
	}

	summary, err := f.unify.Run(context.Background(), products)
	if err != nil {
		t.Fatalf("运行失败: %v", err)
	}
	if summary.Processed != 2 || summary.Exported != 1 || summary.Rejected != 1 {
		t.Fatalf("统计 = %+v", summary)
	}
	if summary.ReportPath == "" {
		t.Fatal("应写出报表")
	}
	if _, err := os.Stat(summary.ReportPath); err != nil {
		t.Fatalf("报表文件不存在: %v", err)
	}

	// 导出状态落库
	exported, err := f.state.GetBySourceName(context.Background(), "good product")
	if err != nil || exported == nil {
		t.Fatalf("导出状态缺失: %v, %v", exported, err)
	}
	if exported.Code != "STI0102-0001" || exported.RunID != f.unify.RunID() {
		t.Fatalf("导出状态错误: %+v", exported)
	}

	// 拒绝审计落库
	rejectedItems, err := f.rejected.ListByRun(context.Background(), f.unify.RunID())
	if err != nil {
		t.Fatalf("拒绝查询失败: %v", err)
	}
	if len(rejectedItems) != 1 || rejectedItems[0].SourceName != "bad category product" {
		t.Fatalf("拒绝审计错误: %+v", rejectedItems)
	}
	if rejectedItems[0].Attribute != "category" {
		t.Fatalf("拒绝属性 = %q, want category", rejectedItems[0].Attribute)
	}
}

func TestRunRerunReusesCode(t *testing.T) {
	f := newUnifyFixture(t)
	f.seedProduct("stable product")

	if _, err := f.unify.Run(context.Background(), []*model.SourceProduct{sampleSource("stable product")}); err != nil {
		t.Fatalf("首轮运行失败: %v", err)
	}

	// 复跑用新的编排实例 (新 RunID)，代码必须复用
	lg := zap.NewNop().Sugar()
	resolver := NewResolverService(f.memory, nil, AutoConfirmProvider{}, "CS", lg)
	category := NewCategoryService(resolver, lg)
	codegen := NewCodeGenService(f.memory, f.state, lg)
	export := NewExportService(f.memory, 0.21, lg)
	rerun := NewUnifyService(resolver, category, codegen, export, f.state, f.rejected, t.TempDir(), lg)

	p, err := rerun.UnifyProduct(context.Background(), sampleSource("stable product"))
	if err != nil {
		t.Fatalf("复跑失败: %v", err)
	}
	if p.Code != "STI0102-0001" {
		t.Fatalf("复跑应复用代码, got %q", p.Code)
	}
	// 变体代码同样一经分配不再变动
	if len(p.Variants) != 1 || p.Variants[0].Code != "STI0102-0001-V01" {
		t.Fatalf("复跑变体代码应保持稳定, got %+v", p.Variants)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	f := newUnifyFixture(t)

	summary, err := f.unify.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("空批次失败: %v", err)
	}
	if summary.Processed != 0 || summary.ReportPath != "" {
		t.Fatalf("空批次不应写报表: %+v", summary)
	}
}
