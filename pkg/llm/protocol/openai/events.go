package openai

import (
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// OpenAI SSE 事件处理器
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler OpenAI SSE 事件处理器
//
// 实现 core.EventHandler 接口。
//
// OpenAI 流式格式：
//   - 无显式事件类型（eventType 总是空字符串）
//   - 数据结构：choices[i].delta.content
//   - 不含 choices 的 chunk 携带最终用量
//   - 含 error 字段的 chunk 终止流
//   - 终止信号：data: [DONE]
type EventHandler struct{}

// NewEventHandler 创建 OpenAI 事件处理器
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// HandleEvent 处理 OpenAI 流式 chunk
//
// 每个非空 delta.content 产生一个回复；零 choice 的 chunk 产生一个空文本加用量的回复。
func (h *EventHandler) HandleEvent(_ string, data []byte) ([]llm.Reply, bool, error) {
	var chunk ChatChunk
	if err := core.Unmarshal(data, &chunk); err != nil {
		return nil, false, llm.NewStreamDecodeError(string(data), err)
	}

	if e := chunk.Error; e != nil {
		msg := e.Message
		if msg == "" {
			msg = "stream terminated by provider"
		}
		kind := e.Type
		if kind == "" {
			kind = "error"
		}
		return nil, false, llm.NewStreamTerminatedByProviderError(kind, msg)
	}

	if len(chunk.Choices) == 0 {
		r := llm.Reply{}
		applyUsage(&r, chunk.Usage)
		return []llm.Reply{r}, false, nil
	}

	var result []llm.Reply
	for _, choice := range chunk.Choices {
		if c := choice.Delta.Content; c != nil && *c != "" {
			result = append(result, llm.Reply{Message: *c})
		}
	}

	// 部分兼容服务把用量附在最后一个带 choice 的 chunk 上
	if chunk.Usage != nil {
		r := llm.Reply{}
		applyUsage(&r, chunk.Usage)
		result = append(result, r)
	}

	return result, false, nil
}

// ShouldStopOnData 检查 [DONE] 终止信号
func (h *EventHandler) ShouldStopOnData(data string) bool {
	return data == "[DONE]"
}

// 确保 EventHandler 实现了 core.EventHandler 接口
var _ core.EventHandler = (*EventHandler)(nil)
