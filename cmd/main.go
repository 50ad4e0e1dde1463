package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"unifier_dev_v1_202608/internal/model"
	"unifier_dev_v1_202608/internal/repository"
	"unifier_dev_v1_202608/internal/service"
	"unifier_dev_v1_202608/pkg/config"
	"unifier_dev_v1_202608/pkg/database"
	"unifier_dev_v1_202608/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "unifier",
		Usage: "抓取商品目录统一与导出",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径 (yaml)"},
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "目标语言 (覆盖配置)"},
			&cli.StringFlag{Name: "memory-dir", Usage: "记忆表目录 (覆盖配置)"},
			&cli.StringFlag{Name: "export-dir", Usage: "报表输出目录 (覆盖配置)"},
			&cli.BoolFlag{Name: "batch", Usage: "批处理模式: 禁用一切人工提问"},
			&cli.BoolFlag{Name: "auto-confirm", Usage: "自动接受级联候选，不逐条确认"},
			&cli.BoolFlag{Name: "debug", Usage: "调试日志"},
		},
		ArgsUsage: "<输入CSV文件>...",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

// run 入口动作：装配依赖并处理全部输入文件
func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("至少需要一个输入 CSV 文件")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	deps, err := initDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Log.Sync()

	var products []*model.SourceProduct
	for _, path := range c.Args().Slice() {
		loaded, err := deps.Services.Source.LoadFile(path)
		if err != nil {
			return err
		}
		products = append(products, loaded...)
	}

	summary, err := deps.Services.Unify.Run(c.Context, products)
	if err != nil {
		return err
	}

	fmt.Printf("运行 %s 完成: 处理 %d, 导出 %d, 拒绝 %d\n",
		summary.RunID, summary.Processed, summary.Exported, summary.Rejected)
	if summary.ReportPath != "" {
		fmt.Printf("报表: %s\n", summary.ReportPath)
	}
	return nil
}

// loadConfig 配置文件 + 命令行覆盖
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("language") {
		cfg.Language = c.String("language")
	}
	if c.IsSet("memory-dir") {
		cfg.MemoryDir = c.String("memory-dir")
	}
	if c.IsSet("export-dir") {
		cfg.ExportDir = c.String("export-dir")
	}
	if c.IsSet("batch") {
		cfg.Batch = c.Bool("batch")
	}
	if c.IsSet("auto-confirm") {
		cfg.AutoConfirm = c.Bool("auto-confirm")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB       *gorm.DB
	Log      *zap.SugaredLogger
	Repos    *Repositories
	Services *Services
}

// Repositories 仓库集合
type Repositories struct {
	Memory      *repository.MemoryRepo
	ExportState repository.ExportStateRepository
	Rejected    repository.RejectedItemRepository
}

// Services 服务集合
type Services struct {
	Resolver *service.ResolverService
	Category *service.CategoryService
	CodeGen  *service.CodeGenService
	Export   *service.ExportService
	Source   *service.SourceService
	Unify    *service.UnifyService
}

// ==================== 初始化函数 ====================

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config) (*Dependencies, error) {
	lg := logger.New(cfg.Debug)

	// -------- 数据库 --------
	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN,
		&model.ExportedProduct{}, &model.RejectedItem{},
	)
	if err != nil {
		return nil, err
	}

	// -------- Repo 层 --------
	repos := &Repositories{
		Memory:      repository.NewMemoryRepo(cfg.MemoryDir, lg),
		ExportState: repository.NewExportStateRepository(db),
		Rejected:    repository.NewRejectedItemRepository(db),
	}

	// -------- 确认门 & AI --------
	decider := initDecisionProvider(cfg)
	var suggester service.Suggester
	if cfg.AI.ApiKey != "" {
		suggester = service.NewGeminiService(&cfg.AI, lg)
	}

	// -------- 业务服务 --------
	services := &Services{}
	services.Resolver = service.NewResolverService(repos.Memory, suggester, decider, cfg.Language, lg)
	services.Category = service.NewCategoryService(services.Resolver, lg)
	services.CodeGen = service.NewCodeGenService(repos.Memory, repos.ExportState, lg)
	services.Export = service.NewExportService(repos.Memory, cfg.VatRate, lg)
	services.Source = service.NewSourceService(lg)
	services.Unify = service.NewUnifyService(
		services.Resolver, services.Category, services.CodeGen, services.Export,
		repos.ExportState, repos.Rejected,
		cfg.ExportDir, lg,
	)

	return &Dependencies{
		DB:       db,
		Log:      lg,
		Repos:    repos,
		Services: services,
	}, nil
}

// initDecisionProvider 批处理/自动确认/交互三种模式
func initDecisionProvider(cfg *config.Config) service.DecisionProvider {
	if cfg.Batch || cfg.AutoConfirm {
		return service.AutoConfirmProvider{}
	}
	return service.NewInteractiveProvider()
}
