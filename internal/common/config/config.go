package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Consul   ConsulConfig   `json:"consul"`
	Jaeger   JaegerConfig   `json:"jaeger"`
	Log      LogConfig      `json:"log"`
	Auth     AuthConfig     `json:"auth"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name     string `json:"name"`      // 服务名称
	Host     string `json:"host"`      // 服务地址
	HTTPPort int    `json:"http_port"` // HTTP端口（业务 API）
	GRPCPort int    `json:"grpc_port"` // gRPC端口（仅 health，供 Consul 探测）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `json:"driver"`   // 数据库驱动
	Host     string `json:"host"`     // 数据库地址
	Port     int    `json:"port"`     // 数据库端口
	User     string `json:"user"`     // 用户名
	Password string `json:"password"` // 密码
	Database string `json:"database"` // 数据库名
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// LogConfig 日志配置
type LogConfig struct {
	Driver string `json:"driver"` // logrus, zap
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

// AuthConfig 鉴权配置
type AuthConfig struct {
	Enabled   bool   `json:"enabled"`
	JWTSecret string `json:"jwt_secret"`
	Issuer    string `json:"issuer"`
	Audience  string `json:"audience"`
	TokenTTL  int    `json:"token_ttl_hours"` // access token 有效期（小时）

	// Master Key：不落库的超级管理员账号（运维兜底用）。
	// 不允许被封禁，不出现在任何用户列表里。
	MasterUsername string `json:"master_username"`
	MasterPassword string `json:"master_password"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		// 如果配置文件不存在，使用默认配置
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
		applyDefaults(globalConfig)
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// applyDefaults 回填未显式配置的字段，允许配置源只写差异项。
// 凭证类字段（数据库口令、JWT secret、Master 凭证）不回填：
// 缺了就是缺了，宁可对应功能不可用也不悄悄用开发默认值兜底。
func applyDefaults(cfg *Config) {
	def := defaultConfig()

	if cfg.Server.Name == "" {
		cfg.Server.Name = def.Server.Name
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = def.Server.HTTPPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = def.Server.GRPCPort
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = def.Database.Driver
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = def.Database.Host
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = def.Database.Port
	}
	if cfg.Database.User == "" {
		cfg.Database.User = def.Database.User
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = def.Database.Database
	}
	if cfg.Database.MaxIdle == 0 {
		cfg.Database.MaxIdle = def.Database.MaxIdle
	}
	if cfg.Database.MaxOpen == 0 {
		cfg.Database.MaxOpen = def.Database.MaxOpen
	}

	if cfg.Consul.Host == "" {
		cfg.Consul.Host = def.Consul.Host
	}
	if cfg.Consul.Port == 0 {
		cfg.Consul.Port = def.Consul.Port
	}

	if cfg.Jaeger.Endpoint == "" {
		cfg.Jaeger.Endpoint = def.Jaeger.Endpoint
	}
	if cfg.Jaeger.Sampler == 0 {
		cfg.Jaeger.Sampler = def.Jaeger.Sampler
	}

	if cfg.Log.Driver == "" {
		cfg.Log.Driver = def.Log.Driver
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = def.Log.Output
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = def.Log.Path
	}

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = def.Auth.Issuer
	}
	if cfg.Auth.Audience == "" {
		cfg.Auth.Audience = def.Auth.Audience
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = def.Auth.TokenTTL
	}
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "rental-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
			GRPCPort: 50051,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "carlinkrent",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "http://localhost:14268/api/traces",
			Sampler:  1.0,
		},
		Log: LogConfig{
			Driver: "logrus",
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
		Auth: AuthConfig{
			Enabled:        true,
			JWTSecret:      "carlinkrent-dev-secret",
			Issuer:         "carlinkrent",
			Audience:       "carlinkrent",
			TokenTTL:       24,
			MasterUsername: "unisa",
			MasterPassword: "unisa",
		},
	}
}
