package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/protocol/gemini"
)

const (
	// DefaultModel 配置未指定模型时使用
	DefaultModel = "gemini-2.0-flash"

	// DefaultAPIVersion 配置未指定版本时使用
	DefaultAPIVersion = "v1beta"
)

// ═══════════════════════════════════════════════════════════════════════════
// 配置和客户端
// ═══════════════════════════════════════════════════════════════════════════

// Config Gemini 连接配置（存储 JSON 的形状）
type Config struct {
	// APIKey API 密钥（必需）
	APIKey string `json:"apiKey"`

	// Model 模型名称，编码在端点路径中
	Model string `json:"model"`

	// APIVersion API 版本路径段，如 v1beta
	APIVersion string `json:"apiVersion"`

	// Endpoint API 基础地址，默认 https://generativelanguage.googleapis.com
	Endpoint string `json:"endpoint,omitempty"`
}

// Client Google Gemini 客户端
//
// 实现 [llm.Client] 接口。
type Client struct {
	*core.BaseClient

	config  *Config
	adapter *gemini.Adapter
}

// New 创建 Gemini 客户端
func New(config *Config, opts core.ClientOptions) (*Client, error) {
	if config == nil {
		return nil, llm.NewConfigParseError(llm.ProviderGoogle, "config is required", nil)
	}

	adapter := gemini.NewAdapter(opts.Images())
	baseClient, err := core.NewBaseClient(
		config,
		adapter,
		func() core.StreamDecoder { return core.NewSSEParser(llm.ProviderGoogle, gemini.NewEventHandler()) },
		opts,
	)
	if err != nil {
		return nil, err
	}

	client := &Client{
		BaseClient: baseClient,
		config:     config,
		adapter:    adapter,
	}

	// 端点依赖模型与 API Key
	baseClient.SetEndpointBuilder(client)

	return client, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// llm.Client 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回 Provider 类型
func (c *Client) Kind() llm.ProviderKind {
	return llm.ProviderGoogle
}

// Model 返回端点中使用的模型名称
func (c *Client) Model() string {
	if c.config.Model == "" {
		return DefaultModel
	}
	return c.config.Model
}

// BuildRequest 构建请求体（模型在端点中，不检查模型）
func (c *Client) BuildRequest(
	ctx context.Context,
	messages []llm.Message,
	opts llm.GenericOptions,
	defaults llm.Defaults,
) (*llm.WireRequest, error) {
	return c.adapter.BuildRequest(ctx, c.Model(), messages, opts, defaults)
}

// ═══════════════════════════════════════════════════════════════════════════
// core.EndpointBuilder 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// BuildCompleteEndpoint 构建 Complete 端点
func (c *Client) BuildCompleteEndpoint() string {
	return c.buildEndpoint(false)
}

// BuildStreamEndpoint 构建 Stream 端点
func (c *Client) BuildStreamEndpoint() string {
	return c.buildEndpoint(true)
}

// buildEndpoint /{version}/models/{model}:{action}?key={apiKey}
func (c *Client) buildEndpoint(stream bool) string {
	version := c.config.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	action := "generateContent"
	q := url.Values{}
	if stream {
		action = "streamGenerateContent"
		q.Set("alt", "sse")
	}
	q.Set("key", c.config.APIKey)

	return fmt.Sprintf("/%s/models/%s:%s?%s", version, url.PathEscape(c.Model()), action, q.Encode())
}

// ═══════════════════════════════════════════════════════════════════════════
// core.ProviderConfig 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回 Provider 类型
func (c *Config) Kind() llm.ProviderKind {
	return llm.ProviderGoogle
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return llm.NewConfigParseError(llm.ProviderGoogle, "missing apiKey", nil)
	}
	return nil
}

// GetDefaults 获取默认值
func (c *Config) GetDefaults() (string, time.Duration) {
	baseURL := c.Endpoint
	if baseURL == "" {
		baseURL = llm.ProviderGoogle.DefaultEndpoint()
	}
	return strings.TrimRight(baseURL, "/"), 0
}

// BuildHeaders 构建请求头（认证在查询参数中）
func (c *Config) BuildHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}

// 确保实现了对应接口
var (
	_ llm.Client           = (*Client)(nil)
	_ core.ProviderConfig  = (*Config)(nil)
	_ core.EndpointBuilder = (*Client)(nil)
)
