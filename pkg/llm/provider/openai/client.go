package openai

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/protocol/openai"
)

// ═══════════════════════════════════════════════════════════════════════════
// 配置和客户端
// ═══════════════════════════════════════════════════════════════════════════

// Config OpenAI 协议族的连接配置（存储 JSON 的形状）
type Config struct {
	// Provider Provider 类型（由解析器根据 GenericConfig.Provider 设置）
	Provider llm.ProviderKind `json:"-"`

	// APIKey API 密钥（Custom 之外必需）
	APIKey string `json:"apiKey"`

	// Model 模型名称（Azure 不使用）
	Model string `json:"model,omitempty"`

	// Endpoint API 基础地址，为空时使用 Provider 默认地址（Azure、Custom 必需）
	Endpoint string `json:"endpoint,omitempty"`

	// APIVersion Azure API 版本，如 2024-02-01
	APIVersion string `json:"apiVersion,omitempty"`

	// DeploymentID Azure 部署名
	DeploymentID string `json:"deploymentId,omitempty"`
}

// Client OpenAI 兼容的 Provider 客户端
//
// 实现 [llm.Client] 接口。
//
// 架构设计：
//   - 嵌入 core.BaseClient 复用执行逻辑
//   - 请求构建与响应解析由 protocol/openai 适配器负责
//   - 流式响应由 core.SSEParser + openai.EventHandler 解码
type Client struct {
	*core.BaseClient

	config  *Config
	adapter *openai.Adapter
}

// New 创建 OpenAI 兼容客户端
func New(config *Config, opts core.ClientOptions) (*Client, error) {
	if config == nil {
		return nil, llm.NewConfigParseError(llm.ProviderOpenAI, "config is required", nil)
	}
	if config.Provider == "" {
		config.Provider = llm.ProviderOpenAI
	}

	adapter := openai.NewAdapter(config.Provider, opts.Images())
	baseClient, err := core.NewBaseClient(
		config,
		adapter,
		func() core.StreamDecoder { return core.NewSSEParser(config.Provider, openai.NewEventHandler()) },
		opts,
	)
	if err != nil {
		return nil, err
	}
	baseClient.SetEndpointBuilder(config)

	return &Client{
		BaseClient: baseClient,
		config:     config,
		adapter:    adapter,
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// llm.Client 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回 Provider 类型
func (c *Client) Kind() llm.ProviderKind {
	return c.config.Provider
}

// Model 返回模型名称（Azure 为空）
func (c *Client) Model() string {
	if c.config.Provider == llm.ProviderAzure {
		return ""
	}
	return c.config.Model
}

// BuildRequest 构建请求体
//
// 需要模型的 Provider 在模型为空时返回 ModelNotSetError。
func (c *Client) BuildRequest(
	ctx context.Context,
	messages []llm.Message,
	opts llm.GenericOptions,
	defaults llm.Defaults,
) (*llm.WireRequest, error) {
	if c.config.Provider.RequiresModel() && c.config.Model == "" {
		return nil, llm.NewModelNotSetError(c.config.Provider)
	}
	return c.adapter.BuildRequest(ctx, c.config.Model, messages, opts, defaults)
}

// ═══════════════════════════════════════════════════════════════════════════
// core.ProviderConfig 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回 Provider 类型
func (c *Config) Kind() llm.ProviderKind {
	return c.Provider
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Provider {
	case llm.ProviderAzure:
		var missing []string
		if c.APIKey == "" {
			missing = append(missing, "apiKey")
		}
		if c.Endpoint == "" {
			missing = append(missing, "endpoint")
		}
		if c.APIVersion == "" {
			missing = append(missing, "apiVersion")
		}
		if c.DeploymentID == "" {
			missing = append(missing, "deploymentId")
		}
		if len(missing) > 0 {
			return llm.NewConfigParseError(c.Provider, "missing "+strings.Join(missing, ", "), nil)
		}
	case llm.ProviderCustom:
		if c.Endpoint == "" {
			return llm.NewConfigParseError(c.Provider, "missing endpoint", nil)
		}
	case llm.ProviderOpenAI, llm.ProviderOpenrouter, llm.ProviderDeepseek, llm.ProviderXai:
		if c.APIKey == "" {
			return llm.NewConfigParseError(c.Provider, "missing apiKey", nil)
		}
	default:
		return llm.NewConfigParseError(c.Provider, "not an openai-compatible provider", nil)
	}
	return nil
}

// GetDefaults 获取默认值（不设置整体超时，流式调用可能很长）
func (c *Config) GetDefaults() (string, time.Duration) {
	baseURL := c.Endpoint
	if baseURL == "" {
		baseURL = c.Provider.DefaultEndpoint()
	}
	return strings.TrimRight(baseURL, "/"), 0
}

// BuildHeaders 构建请求头
//
// Azure 使用 api-key 头，其他使用 Authorization: Bearer。
func (c *Config) BuildHeaders() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	switch {
	case c.Provider == llm.ProviderAzure:
		headers["api-key"] = c.APIKey
	case c.APIKey != "":
		headers["Authorization"] = "Bearer " + c.APIKey
	}
	return headers
}

// ═══════════════════════════════════════════════════════════════════════════
// core.EndpointBuilder 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// BuildCompleteEndpoint 构建 Complete 端点
func (c *Config) BuildCompleteEndpoint() string {
	return c.endpoint()
}

// BuildStreamEndpoint 构建 Stream 端点（与 Complete 相同）
func (c *Config) BuildStreamEndpoint() string {
	return c.endpoint()
}

func (c *Config) endpoint() string {
	if c.Provider != llm.ProviderAzure {
		return "/chat/completions"
	}
	q := url.Values{}
	q.Set("api-version", c.APIVersion)
	return "/openai/deployments/" + url.PathEscape(c.DeploymentID) + "/chat/completions?" + q.Encode()
}

// 确保实现了对应接口
var (
	_ llm.Client           = (*Client)(nil)
	_ core.ProviderConfig  = (*Config)(nil)
	_ core.EndpointBuilder = (*Config)(nil)
)
