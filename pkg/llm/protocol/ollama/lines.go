package ollama

import (
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// LineHandler Ollama 流式单行处理器
//
// 实现 core.LineHandler 接口。每行是一个完整的 ChatResponse。
type LineHandler struct{}

// NewLineHandler 创建行处理器
func NewLineHandler() *LineHandler {
	return &LineHandler{}
}

// HandleLine 处理一行
//
//   - message.content 非空：文本增量
//   - done: 空文本 + 用量，并结束流
//   - error 字段：上游终止
func (h *LineHandler) HandleLine(line []byte) ([]llm.Reply, bool, error) {
	var chunk ChatResponse
	if err := core.Unmarshal(line, &chunk); err != nil {
		return nil, false, llm.NewStreamDecodeError(string(line), err)
	}

	if chunk.Error != "" {
		return nil, false, llm.NewStreamTerminatedByProviderError("error", chunk.Error)
	}

	var result []llm.Reply
	if chunk.Message != nil && chunk.Message.Content != "" {
		result = append(result, llm.Reply{Message: chunk.Message.Content})
	}

	if chunk.Done {
		r := llm.Reply{}
		applyUsage(&r, &chunk)
		result = append(result, r)
		return result, true, nil
	}

	return result, false, nil
}

// 确保 LineHandler 实现了 core.LineHandler 接口
var _ core.LineHandler = (*LineHandler)(nil)
