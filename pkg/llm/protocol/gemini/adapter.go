package gemini

import (
	"context"
	"strings"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// Gemini 协议适配器
// ═══════════════════════════════════════════════════════════════════════════

// Adapter Gemini 协议适配器
//
// 关键协议差异：
//  1. 角色映射：bot → model
//  2. 系统消息与选项 system 合并进 systemInstruction
//  3. Token 字段名：promptTokenCount, candidatesTokenCount, totalTokenCount
type Adapter struct {
	images *core.ImageResolver
}

// NewAdapter 创建 Gemini 协议适配器
func NewAdapter(images *core.ImageResolver) *Adapter {
	if images == nil {
		images = core.NewImageResolver(nil, nil)
	}
	return &Adapter{images: images}
}

// BuildRequest 构建请求体（模型在端点中，不进入请求体）
func (a *Adapter) BuildRequest(
	ctx context.Context,
	_ string,
	messages []llm.Message,
	opts llm.GenericOptions,
	defaults llm.Defaults,
) (*llm.WireRequest, error) {
	o, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}

	req := GenerateRequest{
		Contents: make([]Content, 0, len(messages)),
		GenerationConfig: &GenerationConfig{
			Temperature: o.Temperature,
			TopP:        o.TopP,
			TopK:        o.TopK,
		},
	}
	if n := core.ResolveMaxTokens(o.MaxTokens, defaults); n > 0 {
		req.GenerationConfig.MaxOutputTokens = &n
	}

	var system []string
	if o.System != "" {
		system = append(system, o.System)
	}

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			system = append(system, msg.Text())
			continue
		}
		role := "user"
		if msg.Role == llm.RoleBot {
			role = "model"
		}
		req.Contents = append(req.Contents, Content{Role: role, Parts: a.convertParts(ctx, msg.Content)})
	}

	if len(system) > 0 {
		text := strings.Join(system, "\n\n")
		req.SystemInstruction = &Content{Parts: []Part{{Text: &text}}}
	}

	body, err := core.Marshal(req)
	if err != nil {
		return nil, llm.NewRequestBuildError(err)
	}
	return &llm.WireRequest{Body: body, Stream: o.Stream}, nil
}

// convertParts 转换内容块
func (a *Adapter) convertParts(ctx context.Context, content []llm.ContentPart) []Part {
	parts := make([]Part, 0, len(content))
	for _, p := range content {
		switch {
		case p.IsText():
			text := p.Text
			parts = append(parts, Part{Text: &text})
		case p.IsImage():
			mime, data := a.images.Base64(ctx, p)
			parts = append(parts, Part{InlineData: &InlineData{MimeType: mime, Data: data}})
		}
	}
	return parts
}

// ParseResponse 解析阻塞响应，取第一个 candidate
func (a *Adapter) ParseResponse(body []byte) (*llm.Reply, error) {
	var resp GenerateResponse
	if err := core.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewUpstreamError(llm.ProviderGoogle, 0, "invalid response body: "+err.Error(), err)
	}

	if len(resp.Candidates) == 0 {
		return nil, llm.NewEmptyChoicesError(llm.ProviderGoogle)
	}

	text := candidateText(resp.Candidates[0])
	if text == "" {
		return nil, llm.NewEmptyMessageError(llm.ProviderGoogle)
	}

	reply := &llm.Reply{Message: text}
	applyUsage(reply, resp.UsageMetadata)
	return reply, nil
}

// candidateText 拼接候选中的文本部件（跳过 thought）
func candidateText(c Candidate) string {
	if c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p.Text != nil && !p.Thought {
			sb.WriteString(*p.Text)
		}
	}
	return sb.String()
}

// applyUsage 复制用量，未上报的字段保持 nil
func applyUsage(r *llm.Reply, u *UsageMetadata) {
	if u == nil {
		return
	}
	r.PromptTokens = u.PromptTokenCount
	r.CompletionTokens = u.CandidatesTokenCount
	r.TotalTokens = u.TotalTokenCount
}

// 确保 Adapter 实现了 core.ResponseParser 接口
var _ core.ResponseParser = (*Adapter)(nil)
