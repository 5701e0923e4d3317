package core

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// ═══════════════════════════════════════════════════════════════════════════
// 接口定义
// ═══════════════════════════════════════════════════════════════════════════

// ProviderConfig Provider 配置接口
//
// 每个 Provider 实现此接口来定义其特有的配置和默认值。
type ProviderConfig interface {
	// Validate 验证配置（缺少必需字段时返回 ConfigParseError）
	Validate() error

	// GetDefaults 获取默认值
	// 返回 baseURL, timeout（0 表示不设置整体超时）
	GetDefaults() (baseURL string, timeout time.Duration)

	// BuildHeaders 构建请求头
	BuildHeaders() map[string]string

	// Kind 返回 Provider 类型，用于错误和日志
	Kind() llm.ProviderKind
}

// EndpointBuilder 端点构建器接口
//
// Azure、Gemini 等需要动态构建端点（部署名、模型、查询参数）。
type EndpointBuilder interface {
	BuildCompleteEndpoint() string
	BuildStreamEndpoint() string
}

// ResponseParser 阻塞响应解析器
//
// 将完整的响应体转换为规范回复；0 个 choice 返回 EmptyChoicesError，
// 没有文本返回 EmptyMessageError。
type ResponseParser interface {
	ParseResponse(body []byte) (*llm.Reply, error)
}

// StreamDecoder 流解码器
//
// 从响应体读取并投递规范回复，遇到终止信号、错误或 EOF 时返回。
// 调用方负责关闭 body 和 out。
type StreamDecoder interface {
	Decode(ctx context.Context, body io.Reader, out chan<- llm.StreamResult)
}

// DecoderFactory 为每个流创建新的解码器（解码器可以持有单流状态）
type DecoderFactory func() StreamDecoder

// ═══════════════════════════════════════════════════════════════════════════
// BaseClient 基础客户端
// ═══════════════════════════════════════════════════════════════════════════

// BaseClient 基础客户端
//
// 封装 HTTP 通信、阻塞执行、流式启动和上游错误归一化。
// 各 Provider 嵌入 BaseClient 复用这些逻辑，自身只负责请求构建。
//
// 本层不做任何重试。
type BaseClient struct {
	config          ProviderConfig
	resty           *resty.Client
	parser          ResponseParser
	newDecoder      DecoderFactory
	endpointBuilder EndpointBuilder
	logger          *zap.Logger
}

// ClientOptions 基础客户端的可选依赖
type ClientOptions struct {
	// Transport 底层传输（通常由 NewTransport 根据代理设置构建）
	Transport http.RoundTripper

	// Logger 日志（nil 时使用 zap.NewNop）
	Logger *zap.Logger

	// Resolver 图片引用的内容缓存（可选）
	Resolver llm.ContentResolver

	// Timeout 整体请求超时，覆盖 Provider 默认值（0 表示不覆盖）
	Timeout time.Duration

	// Headers 额外的请求头，覆盖同名默认头
	Headers map[string]string
}

// Images 返回基于 Resolver 的图片解析器
func (o ClientOptions) Images() *ImageResolver {
	return NewImageResolver(o.Resolver, o.Logger)
}

// NewBaseClient 创建基础客户端
//
// 参数：
//   - config: Provider 特定配置
//   - parser: 阻塞响应解析器
//   - newDecoder: 流解码器工厂
//   - opts: 传输与日志
func NewBaseClient(
	config ProviderConfig,
	parser ResponseParser,
	newDecoder DecoderFactory,
	opts ClientOptions,
) (*BaseClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL, timeout := config.GetDefaults()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	r := resty.New()
	r.SetBaseURL(baseURL)
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	if opts.Transport != nil {
		r.SetTransport(opts.Transport)
	}
	r.SetLogger(logger.Sugar())
	r.SetJSONMarshaler(Marshal)
	r.SetJSONUnmarshaler(Unmarshal)
	r.SetHeaders(config.BuildHeaders())
	r.SetHeaders(opts.Headers)

	return &BaseClient{
		config:     config,
		resty:      r,
		parser:     parser,
		newDecoder: newDecoder,
		logger:     logger.With(zap.String("provider", config.Kind().String())),
	}, nil
}

// SetEndpointBuilder 设置端点构建器
func (c *BaseClient) SetEndpointBuilder(builder EndpointBuilder) {
	c.endpointBuilder = builder
}

// Logger 返回带 provider 字段的日志
func (c *BaseClient) Logger() *zap.Logger {
	return c.logger
}

// Execute 阻塞执行
//
// 通用流程：
//  1. POST 请求体
//  2. 非 2xx / 传输失败 → UpstreamError
//  3. 委托 ResponseParser 解析
func (c *BaseClient) Execute(ctx context.Context, req *llm.WireRequest) (*llm.Reply, error) {
	endpoint := c.getCompleteEndpoint()
	c.logger.Debug("sending request", zap.String("endpoint", redactEndpoint(endpoint)), zap.Int("bytes", len(req.Body)))

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(req.Body).
		Post(endpoint)
	if err != nil {
		return nil, llm.NewUpstreamError(c.config.Kind(), 0, err.Error(), err)
	}

	if resp.StatusCode() >= 300 {
		return nil, c.upstreamError(resp.StatusCode(), resp.Body())
	}

	reply, err := c.parser.ParseResponse(resp.Body())
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// ExecuteStream 流式执行
//
// 通用流程：
//  1. POST 请求体（不解析响应）
//  2. 非 2xx → 读取错误体，关闭连接，同步返回 UpstreamError
//  3. 启动解码 goroutine，返回结果 channel
//
// 注意：
//   - goroutine 负责关闭 body 与 channel
//   - 取消 ctx 会中断底层连接，解码器在下一个挂起点退出
func (c *BaseClient) ExecuteStream(ctx context.Context, req *llm.WireRequest) (<-chan llm.StreamResult, error) {
	endpoint := c.getStreamEndpoint()
	c.logger.Debug("opening stream", zap.String("endpoint", redactEndpoint(endpoint)), zap.Int("bytes", len(req.Body)))

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(req.Body).
		SetDoNotParseResponse(true).
		Post(endpoint)
	if err != nil {
		return nil, llm.NewUpstreamError(c.config.Kind(), 0, err.Error(), err)
	}

	body := resp.RawBody()
	if resp.StatusCode() >= 300 {
		data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		_ = body.Close()
		return nil, c.upstreamError(resp.StatusCode(), data)
	}

	decoder := c.newDecoder()
	out := make(chan llm.StreamResult, 10)
	go func() {
		defer close(out)
		defer func() { _ = body.Close() }()
		decoder.Decode(ctx, body, out)
		c.logger.Debug("stream finished", zap.Error(ctx.Err()))
	}()

	return out, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 辅助方法
// ═══════════════════════════════════════════════════════════════════════════

func (c *BaseClient) upstreamError(status int, body []byte) *llm.UpstreamError {
	detail := ExtractErrorMessage(body)
	c.logger.Warn("upstream returned error status", zap.Int("status", status), zap.String("detail", detail))
	return llm.NewUpstreamError(c.config.Kind(), status, detail, nil)
}

// getCompleteEndpoint 获取 Complete 端点
func (c *BaseClient) getCompleteEndpoint() string {
	if c.endpointBuilder != nil {
		return c.endpointBuilder.BuildCompleteEndpoint()
	}
	return "/chat/completions"
}

// getStreamEndpoint 获取 Stream 端点
func (c *BaseClient) getStreamEndpoint() string {
	if c.endpointBuilder != nil {
		return c.endpointBuilder.BuildStreamEndpoint()
	}
	return "/chat/completions"
}
