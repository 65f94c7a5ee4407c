package config

import (
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Funding  FundingConfig  `mapstructure:"funding"`
	Task     TaskConfig     `mapstructure:"task"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// PaymentConfig 外部支付网关配置
type PaymentConfig struct {
	BaseURL        string `mapstructure:"base_url"`        // 网关API地址
	APIKey         string `mapstructure:"api_key"`         // 鉴权密钥
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 单次调用超时
}

// FundingConfig 众筹规则配置
type FundingConfig struct {
	DefaultFeePercent   float64 `mapstructure:"default_fee_percent"`   // 平台手续费率，默认10%
	DeliveryWindowHours int     `mapstructure:"delivery_window_hours"` // 达标后的交付窗口，默认48小时
	FailRefundPercent   float64 `mapstructure:"fail_refund_percent"`   // 超时未交付的退款比例，默认90%
	SweepGuardHours     int     `mapstructure:"sweep_guard_hours"`     // 清算防重窗口，默认24小时
	Milestones          []int   `mapstructure:"milestones"`            // 筹资进度通知节点
}

type TaskConfig struct {
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"` // 截止清算周期，默认15分钟
}

// NotifyConfig 通知派发配置
type NotifyConfig struct {
	AdminRecipient  string `mapstructure:"admin_recipient"`  // 清算汇总的接收方
	Workers         int    `mapstructure:"workers"`          // 投递协程池大小
	IntervalSeconds int    `mapstructure:"interval_seconds"` // 发件箱轮询周期
	MaxAttempts     int    `mapstructure:"max_attempts"`     // 单条通知的最大投递次数
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tfs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "topicfunding")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("payment.base_url", "http://localhost:9090")
	viper.SetDefault("payment.timeout_seconds", 10)
	viper.SetDefault("funding.default_fee_percent", 10.0)
	viper.SetDefault("funding.delivery_window_hours", 48)
	viper.SetDefault("funding.fail_refund_percent", 90.0)
	viper.SetDefault("funding.sweep_guard_hours", 24)
	viper.SetDefault("funding.milestones", []int{25, 50, 75, 90, 95})
	viper.SetDefault("task.sweep_interval_seconds", 900)
	viper.SetDefault("notify.admin_recipient", "admin")
	viper.SetDefault("notify.workers", 4)
	viper.SetDefault("notify.interval_seconds", 10)
	viper.SetDefault("notify.max_attempts", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
