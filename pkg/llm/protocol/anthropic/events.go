package anthropic

import (
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// Anthropic SSE 事件处理器
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler Claude 命名事件处理器
//
// 持有单个流的状态（message_start 上报的 input_tokens），每个流创建一个新实例。
type EventHandler struct {
	inputTokens *uint32
}

// NewEventHandler 创建 Claude 事件处理器
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// HandleEvent 处理 Claude 流式事件
func (h *EventHandler) HandleEvent(eventType string, data []byte) ([]llm.Reply, bool, error) {
	switch eventType {
	case "message_start":
		// 只用于补全 input_tokens，解析失败时忽略
		var ev messageStartEvent
		if err := core.Unmarshal(data, &ev); err != nil {
			return nil, false, nil
		}
		if ev.Message.Usage != nil {
			h.inputTokens = ev.Message.Usage.InputTokens
		}
		return nil, false, nil

	case "content_block_delta":
		var ev contentBlockDeltaEvent
		if err := core.Unmarshal(data, &ev); err != nil {
			return nil, false, llm.NewStreamDecodeError(string(data), err)
		}
		// thinking_delta / input_json_delta 不产生文本
		if ev.Delta.Text == "" {
			return nil, false, nil
		}
		return []llm.Reply{{Message: ev.Delta.Text}}, false, nil

	case "message_delta":
		var ev messageDeltaEvent
		if err := core.Unmarshal(data, &ev); err != nil {
			return nil, false, llm.NewStreamDecodeError(string(data), err)
		}
		r := llm.Reply{}
		if ev.Usage != nil {
			input := ev.Usage.InputTokens
			if input == nil {
				input = h.inputTokens
			}
			applyUsage(&r, input, ev.Usage.OutputTokens)
		}
		return []llm.Reply{r}, false, nil

	case "message_stop":
		return nil, true, nil

	case "error":
		var ev errorEvent
		if err := core.Unmarshal(data, &ev); err != nil {
			return nil, false, llm.NewStreamDecodeError(string(data), err)
		}
		msg := ev.Error.Message
		if msg == "" {
			msg = "stream terminated by provider"
		}
		return nil, false, llm.NewStreamTerminatedByProviderError(ev.Error.Type, msg)

	default:
		// ping / content_block_start / content_block_stop 及未知事件
		return nil, false, nil
	}
}

// ShouldStopOnData Claude 以事件类型终止，不使用数据哨兵
func (h *EventHandler) ShouldStopOnData(string) bool {
	return false
}

// 确保 EventHandler 实现了 core.EventHandler 接口
var _ core.EventHandler = (*EventHandler)(nil)
