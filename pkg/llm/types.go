package llm

import "context"

// ═══════════════════════════════════════════════════════════════════════════
// Client 接口
// ═══════════════════════════════════════════════════════════════════════════

// Client 已解析的 Provider 客户端句柄
//
// 每个 Provider 协议一个实现，由 provider.Resolve 根据存储的配置构建。
// 句柄的生命周期为一次网关调用，不在并发调用之间共享。
type Client interface {
	// Kind 返回 Provider 类型
	Kind() ProviderKind

	// Model 返回解析出的模型名称（Azure/Google 可能为空）
	Model() string

	// BuildRequest 将规范消息与选项转换为 Provider 的请求体
	BuildRequest(ctx context.Context, messages []Message, opts GenericOptions, defaults Defaults) (*WireRequest, error)

	// Execute 阻塞执行
	Execute(ctx context.Context, req *WireRequest) (*Reply, error)

	// ExecuteStream 流式执行
	//
	// 返回的 channel 按上游顺序投递增量回复，结束后关闭。
	// 取消 ctx 会停止投递并释放底层连接。
	ExecuteStream(ctx context.Context, req *WireRequest) (<-chan StreamResult, error)
}

// WireRequest Provider 请求体
type WireRequest struct {
	Body   []byte
	Stream bool
}

// ═══════════════════════════════════════════════════════════════════════════
// 回复
// ═══════════════════════════════════════════════════════════════════════════

// Reply 规范回复
//
// 阻塞模式下为完整回复；流式模式下 Message 只包含增量文本。
// 未上报的用量字段保持 nil，用于区分"未上报"与"用量为 0"。
type Reply struct {
	Message          string  `json:"message"`
	PromptTokens     *uint32 `json:"prompt_tokens,omitempty"`
	CompletionTokens *uint32 `json:"completion_tokens,omitempty"`
	TotalTokens      *uint32 `json:"total_tokens,omitempty"`
}

// HasUsage 是否携带用量信息
func (r *Reply) HasUsage() bool {
	return r.PromptTokens != nil || r.CompletionTokens != nil || r.TotalTokens != nil
}

// StreamResult 流式序列中的单个元素
type StreamResult struct {
	Reply Reply
	Err   error
}

// Uint32 返回 v 的指针
func Uint32(v uint32) *uint32 { return &v }

// ═══════════════════════════════════════════════════════════════════════════
// 外部协作者
// ═══════════════════════════════════════════════════════════════════════════

// ContentResolver 内容缓存
//
// 将图片引用解析为 (mimetype, base64 或 data URL)。
// 解析失败时网关会降级为空内容，不会中止请求。
type ContentResolver interface {
	Resolve(ctx context.Context, ref, mimeType string) (mime string, payload string, err error)
}

// ContentResolverFunc 函数适配器
type ContentResolverFunc func(ctx context.Context, ref, mimeType string) (string, string, error)

// Resolve 实现 ContentResolver 接口
func (f ContentResolverFunc) Resolve(ctx context.Context, ref, mimeType string) (string, string, error) {
	return f(ctx, ref, mimeType)
}
