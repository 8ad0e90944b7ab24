// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 市场引擎配置
	Market MarketConfig `mapstructure:"market"`
	// 后台任务配置
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"8080"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"30"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"30"`
}

// DatabaseConfig 数据库配置（账本快照持久化，可选）
type DatabaseConfig struct {
	// 是否启用持久化
	Enabled bool `mapstructure:"enabled" default:"false"`
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns" default:"25"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
}

// KafkaConfig Kafka 配置（行情广播，可选）
type KafkaConfig struct {
	// Broker 地址列表，为空则不启用广播
	Brokers []string `mapstructure:"brokers"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff" default:"100"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" default:"info"`
	// 输出格式
	Format string `mapstructure:"format" default:"json"`
	// 输出目标
	Output string `mapstructure:"output" default:"stdout"`
	// 文件路径
	FilePath string `mapstructure:"file_path" default:"logs/market.log"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size" default:"100"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups" default:"10"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age" default:"30"`
	// 是否压缩
	Compress bool `mapstructure:"compress" default:"true"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller" default:"false"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Prometheus 监听端口
	Port int `mapstructure:"port" default:"9090"`
	// 指标路径
	Path string `mapstructure:"path" default:"/metrics"`
}

// MarketConfig 市场引擎的全部可调参数
type MarketConfig struct {
	// 价格动态
	PriceUpdateIntervalSeconds float64 `mapstructure:"price_update_interval_seconds" default:"120"`
	SupplyDemandImpact         float64 `mapstructure:"supply_demand_impact" default:"0.1"`
	PriceVolatility            float64 `mapstructure:"price_volatility" default:"0.02"`
	PriceFloorMultiplier       float64 `mapstructure:"price_floor_multiplier" default:"0.2"`
	PriceCeilingMultiplier     float64 `mapstructure:"price_ceiling_multiplier" default:"5.0"`

	// AI 交易
	TraderCount            int     `mapstructure:"trader_count" default:"8"`
	TradeIntervalSeconds   float64 `mapstructure:"trade_interval_seconds" default:"60"`
	TraderMinQuantity      int     `mapstructure:"trader_min_quantity" default:"1"`
	TraderMaxQuantity      int     `mapstructure:"trader_max_quantity" default:"100"`
	TraderSpreadFactor     float64 `mapstructure:"trader_spread_factor" default:"0.05"`
	OrderExpirationDays    int     `mapstructure:"order_expiration_days" default:"7"`
	CleanupIntervalSeconds float64 `mapstructure:"cleanup_interval_seconds" default:"300"`

	// 市场事件
	MarketEventChance float64 `mapstructure:"market_event_chance" default:"0.05"`
	MinEventDuration  float64 `mapstructure:"min_event_duration" default:"60"`
	MaxEventDuration  float64 `mapstructure:"max_event_duration" default:"600"`
	MinPriceModifier  float64 `mapstructure:"min_price_modifier" default:"0.7"`
	MaxPriceModifier  float64 `mapstructure:"max_price_modifier" default:"1.5"`
}

// SchedulerConfig 后台任务配置
type SchedulerConfig struct {
	// 最大并发任务数
	MaxConcurrent int `mapstructure:"max_concurrent" default:"4"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// 重试基础延迟（毫秒），每次失败翻倍
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" default:"100"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖，缺省值兜底
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 配置文件允许缺省，全部走默认值
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		c.ServiceName = "market"
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required when persistence is enabled")
	}
	if c.Market.PriceFloorMultiplier <= 0 || c.Market.PriceCeilingMultiplier <= c.Market.PriceFloorMultiplier {
		return fmt.Errorf("invalid price floor/ceiling multipliers: %f/%f",
			c.Market.PriceFloorMultiplier, c.Market.PriceCeilingMultiplier)
	}
	if c.Market.TraderMinQuantity <= 0 || c.Market.TraderMaxQuantity < c.Market.TraderMinQuantity {
		return fmt.Errorf("invalid trader quantity range: [%d, %d]",
			c.Market.TraderMinQuantity, c.Market.TraderMaxQuantity)
	}
	if c.Scheduler.MaxConcurrent <= 0 {
		return fmt.Errorf("scheduler max_concurrent must be positive: %d", c.Scheduler.MaxConcurrent)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "market")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/market.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("market.price_update_interval_seconds", 120.0)
	v.SetDefault("market.supply_demand_impact", 0.1)
	v.SetDefault("market.price_volatility", 0.02)
	v.SetDefault("market.price_floor_multiplier", 0.2)
	v.SetDefault("market.price_ceiling_multiplier", 5.0)
	v.SetDefault("market.trader_count", 8)
	v.SetDefault("market.trade_interval_seconds", 60.0)
	v.SetDefault("market.trader_min_quantity", 1)
	v.SetDefault("market.trader_max_quantity", 100)
	v.SetDefault("market.trader_spread_factor", 0.05)
	v.SetDefault("market.order_expiration_days", 7)
	v.SetDefault("market.cleanup_interval_seconds", 300.0)
	v.SetDefault("market.market_event_chance", 0.05)
	v.SetDefault("market.min_event_duration", 60.0)
	v.SetDefault("market.max_event_duration", 600.0)
	v.SetDefault("market.min_price_modifier", 0.7)
	v.SetDefault("market.max_price_modifier", 1.5)

	v.SetDefault("scheduler.max_concurrent", 4)
	v.SetDefault("scheduler.max_retries", 3)
	v.SetDefault("scheduler.retry_base_delay_ms", 100)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
