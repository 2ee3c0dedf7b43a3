package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerName  string        `mapstructure:"server_name" yaml:"server_name"`
	Environment string        `mapstructure:"environment" yaml:"environment"`
	Port        int           `mapstructure:"port" yaml:"port"`
	Spark       SparkConfig   `mapstructure:"spark" yaml:"spark"`
	WS          WSConfig      `mapstructure:"ws" yaml:"ws"`
	Context     ContextConfig `mapstructure:"context" yaml:"context"`
	Storage     StorageConfig `mapstructure:"storage" yaml:"storage"`
	Redis       RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// SparkConfig 星辰MaaS接入配置
type SparkConfig struct {
	AppID       string  `mapstructure:"app_id" yaml:"app_id"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	APISecret   string  `mapstructure:"api_secret" yaml:"api_secret"`
	ModelID     string  `mapstructure:"model_id" yaml:"model_id"`
	Host        string  `mapstructure:"host" yaml:"host"`
	Path        string  `mapstructure:"path" yaml:"path"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopK        int     `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type WSConfig struct {
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout" yaml:"response_timeout"`
}

type ContextConfig struct {
	MaxHistory    int           `mapstructure:"max_history" yaml:"max_history"`
	ExpireTime    time.Duration `mapstructure:"expire_time" yaml:"expire_time"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

type StorageConfig struct {
	// Backend 可选 file / redis
	Backend   string        `mapstructure:"backend" yaml:"backend"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address" yaml:"address"`
	Password     string `mapstructure:"password" yaml:"password"`
	Database     int    `mapstructure:"database" yaml:"database"`
	Prefix       string `mapstructure:"prefix" yaml:"prefix"`
	RateLimitQPS int    `mapstructure:"rate_limit_qps" yaml:"rate_limit_qps"`
}

func LoadConfig() (*AppConfig, error) {
	var config AppConfig

	viper.SetConfigFile("config/config.yml")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return &config, err
	}
	if err := viper.Unmarshal(&config); err != nil {
		return &config, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server_name", "xingchen-dialogue")
	viper.SetDefault("port", 8000)
	viper.SetDefault("spark.host", "maas-api.cn-huabei-1.xf-yun.com")
	viper.SetDefault("spark.path", "/v1.1/chat")
	viper.SetDefault("spark.temperature", 0.5)
	viper.SetDefault("spark.top_k", 4)
	viper.SetDefault("spark.max_tokens", 2048)
	viper.SetDefault("ws.connect_timeout", 30*time.Second)
	viper.SetDefault("ws.response_timeout", 60*time.Second)
	viper.SetDefault("context.max_history", 10)
	viper.SetDefault("context.expire_time", time.Hour)
	viper.SetDefault("context.sweep_interval", 5*time.Minute)
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.dir", "data")
	viper.SetDefault("storage.retention", 7*24*time.Hour)
}
