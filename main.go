package main

import (
	"context"
	"fmt"
	"log"

	"unifier_dev_v1_202608/internal/model"
	"unifier_dev_v1_202608/internal/repository"
	"unifier_dev_v1_202608/internal/service"
	"unifier_dev_v1_202608/pkg/database"
	"unifier_dev_v1_202608/pkg/logger"
)

// 全链路冒烟脚本: 内存库 -> 状态库 -> 代码分配 -> 导出映射
// 正式入口在 cmd/，这里只做本机自检
func main() {
	fmt.Println(">>> 开始执行全链路自检...")
	lg := logger.New(true)
	ctx := context.Background()

	// ------------------------------------------------
	// 1. 连接导出状态库 (内存 sqlite)
	// ------------------------------------------------
	db := database.MustInitDB("sqlite", ":memory:",
		&model.ExportedProduct{}, &model.RejectedItem{})
	fmt.Println("数据库连接成功")

	stateRepo := repository.NewExportStateRepository(db)
	memory := repository.NewMemoryRepo(".smoke_memory", lg)

	// ------------------------------------------------
	// 2. 记忆表写读回环
	// ------------------------------------------------
	if err := memory.Store("SmokeMemory", "CS", "test key", "test value"); err != nil {
		log.Fatalf("记忆表写入失败: %v", err)
	}
	if value, ok := memory.Lookup("SmokeMemory", "CS", "test key"); !ok || value != "test value" {
		log.Fatalf("记忆表读回不一致: %q", value)
	}
	fmt.Println("记忆表写读回环通过")

	// ------------------------------------------------
	// 3. 代码分配 + 复用
	// ------------------------------------------------
	codegen := service.NewCodeGenService(memory, stateRepo, lg)
	code1, err := codegen.ProductCode(ctx, "Smoke Product", "Unknown", "Sport>Running")
	if err != nil {
		log.Fatalf("代码分配失败: %v", err)
	}
	code2, _ := codegen.ProductCode(ctx, "Smoke Product", "Unknown", "Sport>Running")
	if code1 != code2 {
		log.Fatalf("同名商品代码未复用: %s vs %s", code1, code2)
	}
	fmt.Printf("代码分配成功: %s\n", code1)

	// ------------------------------------------------
	// 4. 导出映射
	// ------------------------------------------------
	export := service.NewExportService(memory, 0.21, lg)
	product := &model.CanonicalProduct{
		OriginalName: "Smoke Product",
		Name:         "Product Smoke",
		Code:         code1,
		Variants: []model.CanonicalVariant{
			{BasicPrice: 249, CurrentPrice: 199, Code: code1 + "-V01"},
		},
	}
	product.Price, product.PriceStandard = export.ComputePrices(product.Variants)
	records := export.MapProduct(product)
	if len(records) != 2 {
		log.Fatalf("导出行数不对: %d", len(records))
	}
	if len(records[0].Row()) != len(model.ExportHeader) {
		log.Fatalf("导出列数与表头不一致")
	}
	fmt.Printf("导出映射成功: 价格 %s / %s\n", product.Price, product.PriceStandard)

	fmt.Println(">>> 全链路自检通过")
}
