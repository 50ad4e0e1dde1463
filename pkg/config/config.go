package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// AIConfig AI 服务配置
type AIConfig struct {
	ApiKey     string `mapstructure:"api_key"`
	FlashModel string `mapstructure:"flash_model"`
	ProModel   string `mapstructure:"pro_model"`
}

// DatabaseConfig 导出状态库配置
// driver: sqlite (单机离线) 或 postgres (共享部署)
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Config 统一器全局配置
type Config struct {
	Language    string         `mapstructure:"language"`
	MemoryDir   string         `mapstructure:"memory_dir"`
	ExportDir   string         `mapstructure:"export_dir"`
	VatRate     float64        `mapstructure:"vat_rate"`
	AutoConfirm bool           `mapstructure:"auto_confirm"`
	Batch       bool           `mapstructure:"batch"`
	Debug       bool           `mapstructure:"debug"`
	AI          AIConfig       `mapstructure:"ai"`
	Database    DatabaseConfig `mapstructure:"database"`
}

// ==================== 加载 ====================

// Load 加载配置文件 (可选) 并套用默认值
// path 为空时只使用默认值和环境变量 (UNIFIER_ 前缀)
func Load(path string) (*Config, error) {
	v := viper.New()

	// 默认值
	v.SetDefault("language", "CS")
	v.SetDefault("memory_dir", "Memory")
	v.SetDefault("export_dir", "Results")
	v.SetDefault("vat_rate", 0.21)
	v.SetDefault("auto_confirm", false)
	v.SetDefault("batch", false)
	v.SetDefault("debug", false)
	v.SetDefault("ai.flash_model", "gemini-3-flash")
	v.SetDefault("ai.pro_model", "gemini-3-pro")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "unifier.db")

	v.SetEnvPrefix("UNIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
// 税率必须落在 (0,1) 开区间内，错误的税率会静默污染所有价格计算
func (c *Config) Validate() error {
	if c.VatRate <= 0 || c.VatRate >= 1 {
		return fmt.Errorf("vat_rate 必须在 (0,1) 区间内，当前值: %v", c.VatRate)
	}
	if c.Language == "" {
		return fmt.Errorf("language 不能为空")
	}
	c.Language = strings.ToUpper(c.Language)
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	return nil
}
