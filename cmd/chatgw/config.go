package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// Config 命令行配置文件结构
//
//	provider: openai
//	connection:
//	  api_key: sk-xxx
//	  model: gpt-4o
//	options:
//	  temperature: 0.7
//	  stream: true
//	proxy:
//	  enabled: true
//	  url: http://127.0.0.1:7890
//	defaults:
//	  max_tokens: 1024
//
// connection 与 options 也可以直接写成设置存储中的 JSON 字符串。
// viper 会把 map 键转为小写，因此 map 写法请使用 snake_case 键。
type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	Provider   string           `mapstructure:"provider"`
	Connection any              `mapstructure:"connection"`
	Options    any              `mapstructure:"options"`
	System     string           `mapstructure:"system"`
	Timeout    string           `mapstructure:"timeout"`
	Proxy      llm.ProxySetting `mapstructure:"proxy"`
	Defaults   llm.Defaults     `mapstructure:"defaults"`
}

// setDefaults 注册默认值，同时让 AutomaticEnv 能覆盖这些键
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("provider", "")
	v.SetDefault("connection", "")
	v.SetDefault("options", "")
	v.SetDefault("system", "")
	v.SetDefault("timeout", "")
	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.url", "")
	v.SetDefault("proxy.http", false)
	v.SetDefault("proxy.https", false)
	v.SetDefault("defaults.max_tokens", 1024)
	v.SetDefault("defaults.context_length", 0)
}

// loadConfig 从 viper 读取配置
func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// GenericConfig 转换为存储形状的连接配置
func (c *Config) GenericConfig() (llm.GenericConfig, error) {
	raw, err := rawJSON(c.Connection)
	if err != nil {
		return llm.GenericConfig{}, fmt.Errorf("connection: %w", err)
	}
	return llm.GenericConfig{Provider: c.Provider, Config: raw}, nil
}

// GenericOptions 转换为存储形状的会话选项
func (c *Config) GenericOptions() (llm.GenericOptions, error) {
	raw, err := rawJSON(c.Options)
	if err != nil {
		return llm.GenericOptions{}, fmt.Errorf("options: %w", err)
	}
	return llm.GenericOptions{Provider: c.Provider, Options: raw}, nil
}

// rawJSON 字符串原样返回，map 等结构编码为 JSON
func rawJSON(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	default:
		data, err := core.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
