package config

import (
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Juno       JunoConfig       `mapstructure:"juno"`
	Task       TaskConfig       `mapstructure:"task"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
	Log        LogConfig        `mapstructure:"log"`
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

// JunoConfig 外部支付通道（Juno/Bitso）配置
type JunoConfig struct {
	BaseURL   string `mapstructure:"base_url"`   // API 地址
	APIKey    string `mapstructure:"api_key"`    // API Key
	APISecret string `mapstructure:"api_secret"` // API Secret
	Timeout   int    `mapstructure:"timeout"`    // 请求超时（秒）
}

type TaskConfig struct {
	SweepInterval     int `mapstructure:"sweep_interval"`     // 活动截止清扫间隔（秒）
	ReconcileInterval int `mapstructure:"reconcile_interval"` // 提现对账间隔（秒）
}

// WithdrawalConfig 提现配置
type WithdrawalConfig struct {
	PendingMaxAge int `mapstructure:"pending_max_age"` // PENDING 超过该秒数由对账任务置为失败
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/bachata-connect")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "bachata_connect")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("juno.base_url", "https://stage.buildwithjuno.com")
	viper.SetDefault("juno.timeout", 30)
	viper.SetDefault("task.sweep_interval", 3600)
	viper.SetDefault("task.reconcile_interval", 300)
	viper.SetDefault("withdrawal.pending_max_age", 900)
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
