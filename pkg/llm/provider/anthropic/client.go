package anthropic

import (
	"context"
	"strings"
	"time"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/protocol/anthropic"
)

// DefaultAPIVersion 默认 anthropic-version
const DefaultAPIVersion = "2023-06-01"

// ═══════════════════════════════════════════════════════════════════════════
// 配置和客户端
// ═══════════════════════════════════════════════════════════════════════════

// Config Claude 连接配置（存储 JSON 的形状）
type Config struct {
	// APIKey API 密钥（必需）
	APIKey string `json:"apiKey"`

	// Model 模型名称
	Model string `json:"model"`

	// APIVersion anthropic-version 请求头
	APIVersion string `json:"apiVersion"`

	// Endpoint API 基础地址，默认 https://api.anthropic.com/v1
	Endpoint string `json:"endpoint,omitempty"`
}

// Client Anthropic Claude 客户端
//
// 实现 [llm.Client] 接口。
//
// 架构设计：
//   - 嵌入 core.BaseClient 复用执行逻辑
//   - 请求构建与响应解析由 protocol/anthropic 适配器负责
//   - 每个流创建新的 anthropic.EventHandler（持有 input_tokens 状态）
type Client struct {
	*core.BaseClient

	config  *Config
	adapter *anthropic.Adapter
}

// New 创建 Claude 客户端
func New(config *Config, opts core.ClientOptions) (*Client, error) {
	if config == nil {
		return nil, llm.NewConfigParseError(llm.ProviderClaude, "config is required", nil)
	}

	adapter := anthropic.NewAdapter(opts.Images())
	baseClient, err := core.NewBaseClient(
		config,
		adapter,
		func() core.StreamDecoder { return core.NewSSEParser(llm.ProviderClaude, anthropic.NewEventHandler()) },
		opts,
	)
	if err != nil {
		return nil, err
	}

	// Anthropic 使用固定端点
	baseClient.SetEndpointBuilder(&anthropicEndpointBuilder{})

	return &Client{
		BaseClient: baseClient,
		config:     config,
		adapter:    adapter,
	}, nil
}

// anthropicEndpointBuilder Anthropic 端点构建器
type anthropicEndpointBuilder struct{}

func (b *anthropicEndpointBuilder) BuildCompleteEndpoint() string {
	return "/messages"
}

func (b *anthropicEndpointBuilder) BuildStreamEndpoint() string {
	return "/messages"
}

// ═══════════════════════════════════════════════════════════════════════════
// llm.Client 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回 Provider 类型
func (c *Client) Kind() llm.ProviderKind {
	return llm.ProviderClaude
}

// Model 返回模型名称
func (c *Client) Model() string {
	return c.config.Model
}

// BuildRequest 构建请求体
func (c *Client) BuildRequest(
	ctx context.Context,
	messages []llm.Message,
	opts llm.GenericOptions,
	defaults llm.Defaults,
) (*llm.WireRequest, error) {
	if c.config.Model == "" {
		return nil, llm.NewModelNotSetError(llm.ProviderClaude)
	}
	return c.adapter.BuildRequest(ctx, c.config.Model, messages, opts, defaults)
}

// ═══════════════════════════════════════════════════════════════════════════
// core.ProviderConfig 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回 Provider 类型
func (c *Config) Kind() llm.ProviderKind {
	return llm.ProviderClaude
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return llm.NewConfigParseError(llm.ProviderClaude, "missing apiKey", nil)
	}
	return nil
}

// GetDefaults 获取默认值
func (c *Config) GetDefaults() (string, time.Duration) {
	baseURL := c.Endpoint
	if baseURL == "" {
		baseURL = llm.ProviderClaude.DefaultEndpoint()
	}
	return strings.TrimRight(baseURL, "/"), 0
}

// BuildHeaders 构建请求头
func (c *Config) BuildHeaders() map[string]string {
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": version,
		"Content-Type":      "application/json",
	}
}

// 确保实现了对应接口
var (
	_ llm.Client          = (*Client)(nil)
	_ core.ProviderConfig = (*Config)(nil)
)
