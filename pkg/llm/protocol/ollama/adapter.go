package ollama

import (
	"context"

	"github.com/tidwall/sjson"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// Ollama 协议适配器
// ═══════════════════════════════════════════════════════════════════════════

// Adapter Ollama 协议适配器
type Adapter struct {
	images *core.ImageResolver
}

// NewAdapter 创建 Ollama 协议适配器
func NewAdapter(images *core.ImageResolver) *Adapter {
	if images == nil {
		images = core.NewImageResolver(nil, nil)
	}
	return &Adapter{images: images}
}

// BuildRequest 构建请求体
//
// num_predict = max_tokens，否则全局默认值；num_ctx = 选项值，否则全局上下文长度。
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
		Model:    model,
		Messages: a.convertMessages(ctx, messages),
		Options: RequestOptions{
			Temperature:   o.Temperature,
			TopP:          o.TopP,
			NumCtx:        o.NumCtx,
			TopK:          o.TopK,
			Mirostat:      o.Mirostat,
			MirostatEta:   o.MirostatEta,
			MirostatTau:   o.MirostatTau,
			RepeatLastN:   o.RepeatLastN,
			RepeatPenalty: o.RepeatPenalty,
			Seed:          o.Seed,
			Stop:          o.Stop,
			TfsZ:          o.TfsZ,
		},
		KeepAlive: o.KeepAlive,
	}
	if n := core.ResolveMaxTokens(o.MaxTokens, defaults); n > 0 {
		req.Options.NumPredict = &n
	}
	if req.Options.NumCtx == nil && defaults.ContextLength > 0 {
		req.Options.NumCtx = llm.Uint32(defaults.ContextLength)
	}

	body, err := core.Marshal(req)
	if err != nil {
		return nil, llm.NewRequestBuildError(err)
	}

	// Ollama 缺省流式，stream 必须显式写入
	body, err = sjson.SetBytes(body, "stream", o.Stream)
	if err != nil {
		return nil, llm.NewRequestBuildError(err)
	}

	return &llm.WireRequest{Body: body, Stream: o.Stream}, nil
}

// convertMessages 转换消息：文本拼接为 content，图片放入 images
func (a *Adapter) convertMessages(ctx context.Context, messages []llm.Message) []Message {
	result := make([]Message, 0, len(messages))

	for _, msg := range messages {
		m := Message{Role: roleName(msg.Role), Content: msg.Text()}
		for _, p := range msg.Content {
			if p.IsImage() {
				_, data := a.images.Base64(ctx, p)
				m.Images = append(m.Images, data)
			}
		}
		result = append(result, m)
	}

	return result
}

// roleName 规范角色映射为 Ollama 角色
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

// ParseResponse 解析阻塞响应
func (a *Adapter) ParseResponse(body []byte) (*llm.Reply, error) {
	var resp ChatResponse
	if err := core.Unmarshal(body, &resp); err != nil {
		return nil, llm.NewUpstreamError(llm.ProviderOllama, 0, "invalid response body: "+err.Error(), err)
	}
	if resp.Error != "" {
		return nil, llm.NewUpstreamError(llm.ProviderOllama, 0, resp.Error, nil)
	}

	if resp.Message == nil {
		return nil, llm.NewEmptyChoicesError(llm.ProviderOllama)
	}
	if resp.Message.Content == "" {
		return nil, llm.NewEmptyMessageError(llm.ProviderOllama)
	}

	reply := &llm.Reply{Message: resp.Message.Content}
	applyUsage(reply, &resp)
	return reply, nil
}

// applyUsage prompt_eval_count / eval_count 映射为用量
func applyUsage(r *llm.Reply, resp *ChatResponse) {
	r.PromptTokens = resp.PromptEvalCount
	r.CompletionTokens = resp.EvalCount
	if resp.PromptEvalCount != nil && resp.EvalCount != nil {
		r.TotalTokens = llm.Uint32(*resp.PromptEvalCount + *resp.EvalCount)
	}
}

// 确保 Adapter 实现了 core.ResponseParser 接口
var _ core.ResponseParser = (*Adapter)(nil)
