package openai

import (
	"context"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// OpenAI 协议适配器
// ═══════════════════════════════════════════════════════════════════════════

// Adapter OpenAI 协议适配器
//
// 负责请求构建与阻塞响应解析，实现 core.ResponseParser 接口。
//
// 关键协议差异：
//  1. 系统消息：字符串 content，内联在消息数组中
//  2. 用户/助手消息：content 数组（text / image_url）
//  3. Azure：模型由部署决定，请求体不带 model，也不请求流式用量
type Adapter struct {
	kind   llm.ProviderKind
	images *core.ImageResolver
}

// NewAdapter 创建 OpenAI 协议适配器
func NewAdapter(kind llm.ProviderKind, images *core.ImageResolver) *Adapter {
	if images == nil {
		images = core.NewImageResolver(nil, nil)
	}
	return &Adapter{kind: kind, images: images}
}

// ═══════════════════════════════════════════════════════════════════════════
// BuildRequest - 规范消息转换为 OpenAI 请求
// ═══════════════════════════════════════════════════════════════════════════

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

	req := ChatRequest{
		Messages:         a.convertMessages(ctx, messages),
		Temperature:      o.Temperature,
		TopP:             o.TopP,
		FrequencyPenalty: o.FrequencyPenalty,
		PresencePenalty:  o.PresencePenalty,
		Stream:           o.Stream,
		User:             o.User,
	}
	if a.kind != llm.ProviderAzure {
		req.Model = model
	}
	if maxTokens := core.ResolveMaxTokens(o.MaxTokens, defaults); maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	if o.Stream && a.kind != llm.ProviderAzure {
		req.StreamOptions = &StreamOptions{IncludeUsage: true}
	}

	body, err := core.Marshal(req)
	if err != nil {
		return nil, llm.NewRequestBuildError(err)
	}
	return &llm.WireRequest{Body: body, Stream: o.Stream}, nil
}

// convertMessages 转换消息
func (a *Adapter) convertMessages(ctx context.Context, messages []llm.Message) []ChatMessage {
	result := make([]ChatMessage, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			result = append(result, ChatMessage{Role: "system", Content: msg.Text()})
			continue
		}

		parts := make([]ContentPart, 0, len(msg.Content))
		for _, p := range msg.Content {
			switch {
			case p.IsText():
				text := p.Text
				parts = append(parts, ContentPart{Type: "text", Text: &text})
			case p.IsImage():
				parts = append(parts, ContentPart{
					Type:     "image_url",
					ImageURL: &ImageURL{URL: a.images.DataURL(ctx, p)},
				})
			}
		}
		result = append(result, ChatMessage{Role: roleName(msg.Role), Content: parts})
	}

	return result
}

// roleName 规范角色映射为 OpenAI 角色
func roleName(r llm.Role) string {
	switch r {
	case llm.RoleBot:
		return "assistant"
	case llm.RoleSystem:
		return "system"
	default:
		return "user"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ParseResponse - 解析阻塞响应
// ═══════════════════════════════════════════════════════════════════════════

// ParseResponse 解析阻塞响应，取第一个 choice
func (a *Adapter) ParseResponse(body []byte) (*llm.Reply, error) {
	var resp ChatResponse
	if err := core.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewUpstreamError(a.kind, 0, "invalid response body: "+err.Error(), err)
	}

	if len(resp.Choices) == 0 {
		return nil, llm.NewEmptyChoicesError(a.kind)
	}

	content := resp.Choices[0].Message.Content
	if content == nil || *content == "" {
		return nil, llm.NewEmptyMessageError(a.kind)
	}

	reply := &llm.Reply{Message: *content}
	applyUsage(reply, resp.Usage)
	return reply, nil
}

// applyUsage 复制用量，未上报的字段保持 nil
func applyUsage(r *llm.Reply, u *Usage) {
	if u == nil {
		return
	}
	r.PromptTokens = u.PromptTokens
	r.CompletionTokens = u.CompletionTokens
	r.TotalTokens = u.TotalTokens
}

// 确保 Adapter 实现了 core.ResponseParser 接口
var _ core.ResponseParser = (*Adapter)(nil)
