package anthropic

import (
	"context"
	"strings"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// Anthropic 协议适配器
// ═══════════════════════════════════════════════════════════════════════════

// Adapter Claude 协议适配器
//
// 关键协议差异：
//  1. 系统提示来自选项的 system 字段，消息数组中的 system 角色是错误
//  2. max_tokens 必填：选项值，否则全局默认值
//  3. Token 字段名：input_tokens, output_tokens（total 由两者相加）
type Adapter struct {
	images *core.ImageResolver
}

// NewAdapter 创建 Claude 协议适配器
func NewAdapter(images *core.ImageResolver) *Adapter {
	if images == nil {
		images = core.NewImageResolver(nil, nil)
	}
	return &Adapter{images: images}
}

// BuildRequest 构建请求体
func (a *Adapter) BuildRequest(
	ctx context.Context,
	model string,
	messages []llm.Message,
	opts llm.GenericOptions,
	defaults llm.Defaults,
) (*llm.WireRequest, error) {
	o, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}

	converted, err := a.convertMessages(ctx, messages)
	if err != nil {
		return nil, err
	}

	req := MessagesRequest{
		Model:       model,
		Messages:    converted,
		System:      o.System,
		MaxTokens:   core.ResolveMaxTokens(o.MaxTokens, defaults),
		Temperature: o.Temperature,
		TopP:        o.TopP,
		TopK:        o.TopK,
		Stream:      o.Stream,
	}
	if o.User != "" {
		req.Metadata = &Metadata{UserID: o.User}
	}

	body, err := core.Marshal(req)
	if err != nil {
		return nil, llm.NewRequestBuildError(err)
	}
	return &llm.WireRequest{Body: body, Stream: o.Stream}, nil
}

// convertMessages 转换消息，遇到 system 角色返回错误
func (a *Adapter) convertMessages(ctx context.Context, messages []llm.Message) ([]Message, error) {
	result := make([]Message, 0, len(messages))

	for i, msg := range messages {
		var role string
		switch msg.Role {
		case llm.RoleSystem:
			return nil, llm.NewClaudeSystemMessageUnsupportedError(i)
		case llm.RoleBot:
			role = "assistant"
		default:
			role = "user"
		}

		blocks := make([]ContentBlock, 0, len(msg.Content))
		for _, p := range msg.Content {
			switch {
			case p.IsText():
				text := p.Text
				blocks = append(blocks, ContentBlock{Type: "text", Text: &text})
			case p.IsImage():
				mime, data := a.images.Base64(ctx, p)
				blocks = append(blocks, ContentBlock{
					Type:   "image",
					Source: &ImageSource{Type: "base64", MediaType: mime, Data: data},
				})
			}
		}
		result = append(result, Message{Role: role, Content: blocks})
	}

	return result, nil
}

// ParseResponse 解析阻塞响应
//
// Claude 没有 choices，content 块等价于候选列表，文本块拼接为回复。
func (a *Adapter) ParseResponse(body []byte) (*llm.Reply, error) {
	var resp MessagesResponse
	if err := core.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewUpstreamError(llm.ProviderClaude, 0, "invalid response body: "+err.Error(), err)
	}

	if len(resp.Content) == 0 {
		return nil, llm.NewEmptyChoicesError(llm.ProviderClaude)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, llm.NewEmptyMessageError(llm.ProviderClaude)
	}

	reply := &llm.Reply{Message: sb.String()}
	if resp.Usage != nil {
		applyUsage(reply, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return reply, nil
}

// applyUsage 写入用量，input 与 output 都存在时计算 total
func applyUsage(r *llm.Reply, input, output *uint32) {
	r.PromptTokens = input
	r.CompletionTokens = output
	if input != nil && output != nil {
		r.TotalTokens = llm.Uint32(*input + *output)
	}
}

// 确保 Adapter 实现了 core.ResponseParser 接口
var _ core.ResponseParser = (*Adapter)(nil)
