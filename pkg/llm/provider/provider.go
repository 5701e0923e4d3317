// Package provider 根据存储的连接配置构建 Provider 客户端
//
// 使用方式：
//
//	client, err := provider.Resolve(llm.GenericConfig{
//	    Provider: "openai",
//	    Config:   `{"apiKey": "sk-xxx", "model": "gpt-4o"}`,
//	}, &llm.ProxySetting{Enabled: true, URL: "http://127.0.0.1:7890"},
//	    provider.WithLogger(logger))
//
// 解析过程不做任何网络 I/O。返回的客户端只用于一次网关调用。
package provider

import (
	"time"

	"go.uber.org/zap"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider/anthropic"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider/gemini"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider/ollama"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider/openai"
)

// ═══════════════════════════════════════════════════════════════════════════
// 选项
// ═══════════════════════════════════════════════════════════════════════════

// Option 解析选项
type Option func(*options)

type options struct {
	logger   *zap.Logger
	resolver llm.ContentResolver
	timeout  time.Duration
	headers  map[string]string
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithContentResolver 设置图片引用的内容缓存
func WithContentResolver(r llm.ContentResolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithTimeout 覆盖 Provider 默认的请求超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHeaders 附加请求头
func WithHeaders(h map[string]string) Option {
	return func(o *options) { o.headers = h }
}

// ═══════════════════════════════════════════════════════════════════════════
// 工厂函数
// ═══════════════════════════════════════════════════════════════════════════

// Resolve 将存储的连接配置与代理设置解析为 Provider 客户端
//
// 错误：
//   - 未知 Provider：UnsupportedProviderError
//   - 配置 JSON 非法、字段类型不符或缺少必需字段：ConfigParseError
//
// 模型缺失不在此处报错，由 BuildRequest 返回 ModelNotSetError。
func Resolve(cfg llm.GenericConfig, proxy *llm.ProxySetting, opts ...Option) (llm.Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	kind := cfg.Kind()
	logger := o.logger.With(zap.String("provider", string(kind)))

	co := core.ClientOptions{
		Logger:   logger,
		Resolver: o.resolver,
		Timeout:  o.timeout,
		Headers:  o.headers,
	}

	var (
		client llm.Client
		err    error
	)
	switch {
	case kind.IsOpenAICompatible():
		c := &openai.Config{}
		if err = core.ParseConfig(kind, cfg.Config, c); err != nil {
			return nil, err
		}
		c.Provider = kind
		co.Transport = core.NewTransport(proxy, logger)
		client, err = asClient(openai.New(c, co))

	case kind == llm.ProviderClaude:
		c := &anthropic.Config{}
		if err = core.ParseConfig(kind, cfg.Config, c); err != nil {
			return nil, err
		}
		co.Transport = core.NewTransport(proxy, logger)
		client, err = asClient(anthropic.New(c, co))

	case kind == llm.ProviderOllama:
		c := &ollama.Config{}
		if err = core.ParseConfig(kind, cfg.Config, c); err != nil {
			return nil, err
		}
		co.Transport = core.NewTransport(proxy, logger)
		client, err = asClient(ollama.New(c, co))

	case kind == llm.ProviderGoogle:
		c := &gemini.Config{}
		if err = core.ParseConfig(kind, cfg.Config, c); err != nil {
			return nil, err
		}
		co.Transport = core.NewTransport(proxy, logger)
		client, err = asClient(gemini.New(c, co))

	default:
		return nil, llm.NewUnsupportedProviderError(cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("provider resolved", zap.String("model", client.Model()))
	return client, nil
}

// asClient 避免把 nil 指针包装成非 nil 接口
func asClient[T llm.Client](c T, err error) (llm.Client, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
