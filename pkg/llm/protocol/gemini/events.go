package gemini

import (
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// Gemini SSE 事件处理器
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler Gemini SSE 事件处理器
//
// 实现 core.EventHandler 接口。
//
// Gemini 流式格式：
//   - 无事件类型，每个 data 帧是一个完整的 GenerateResponse
//   - 无终止哨兵，EOF 即结束
//   - 带 finishReason 的帧上报最终用量
//   - 含 error 字段的帧终止流
type EventHandler struct{}

// NewEventHandler 创建 Gemini 事件处理器
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// HandleEvent 处理一个响应帧
func (h *EventHandler) HandleEvent(_ string, data []byte) ([]llm.Reply, bool, error) {
	var resp GenerateResponse
	if err := core.Unmarshal(data, &resp); err != nil {
		return nil, false, llm.NewStreamDecodeError(string(data), err)
	}

	if e := resp.Error; e != nil {
		kind := e.Status
		if kind == "" {
			kind = "error"
		}
		msg := e.Message
		if msg == "" {
			msg = "stream terminated by provider"
		}
		return nil, false, llm.NewStreamTerminatedByProviderError(kind, msg)
	}

	var result []llm.Reply
	finished := false
	for _, c := range resp.Candidates {
		if text := candidateText(c); text != "" {
			result = append(result, llm.Reply{Message: text})
		}
		if c.FinishReason != "" {
			finished = true
		}
	}

	if finished && resp.UsageMetadata != nil {
		r := llm.Reply{}
		applyUsage(&r, resp.UsageMetadata)
		result = append(result, r)
	}

	return result, false, nil
}

// ShouldStopOnData Gemini 没有数据终止哨兵
func (h *EventHandler) ShouldStopOnData(string) bool {
	return false
}

// 确保 EventHandler 实现了 core.EventHandler 接口
var _ core.EventHandler = (*EventHandler)(nil)
