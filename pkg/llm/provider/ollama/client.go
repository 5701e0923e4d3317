package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/protocol/ollama"
)

// Config Ollama 连接配置（存储 JSON 的形状）
type Config struct {
	// Endpoint 服务地址，默认 http://localhost:11434
	Endpoint string `json:"endpoint"`

	// Model 模型名称
	Model string `json:"model,omitempty"`
}

// Client Ollama 客户端
//
// 实现 [llm.Client] 接口。流式响应由 core.NDJSONDecoder 按换行分帧解码。
type Client struct {
	*core.BaseClient

	config  *Config
	adapter *ollama.Adapter
}

// New 创建 Ollama 客户端
func New(config *Config, opts core.ClientOptions) (*Client, error) {
	if config == nil {
		config = &Config{}
	}

	adapter := ollama.NewAdapter(opts.Images())
	baseClient, err := core.NewBaseClient(
		config,
		adapter,
		func() core.StreamDecoder { return core.NewNDJSONDecoder(llm.ProviderOllama, ollama.NewLineHandler()) },
		opts,
	)
	if err != nil {
		return nil, err
	}
	baseClient.SetEndpointBuilder(&ollamaEndpointBuilder{})

	return &Client{
		BaseClient: baseClient,
		config:     config,
		adapter:    adapter,
	}, nil
}

// ollamaEndpointBuilder Ollama 端点构建器
type ollamaEndpointBuilder struct{}

func (b *ollamaEndpointBuilder) BuildCompleteEndpoint() string {
	return "/api/chat"
}

func (b *ollamaEndpointBuilder) BuildStreamEndpoint() string {
	return "/api/chat"
}

// Kind 返回 Provider 类型
func (c *Client) Kind() llm.ProviderKind {
	return llm.ProviderOllama
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
		return nil, llm.NewModelNotSetError(llm.ProviderOllama)
	}
	return c.adapter.BuildRequest(ctx, c.config.Model, messages, opts, defaults)
}

// Kind 返回 Provider 类型
func (c *Config) Kind() llm.ProviderKind {
	return llm.ProviderOllama
}

// Validate Ollama 只需要端点，且端点有默认值
func (c *Config) Validate() error {
	return nil
}

// GetDefaults 获取默认值
func (c *Config) GetDefaults() (string, time.Duration) {
	baseURL := c.Endpoint
	if baseURL == "" {
		baseURL = llm.ProviderOllama.DefaultEndpoint()
	}
	return strings.TrimRight(baseURL, "/"), 0
}

// BuildHeaders 构建请求头
func (c *Config) BuildHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}

// 确保实现了对应接口
var (
	_ llm.Client          = (*Client)(nil)
	_ core.ProviderConfig = (*Config)(nil)
)
