package core

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// ═══════════════════════════════════════════════════════════════════════════
// SSE 事件处理器接口
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler SSE 事件处理器接口
//
// 每个协议族实现此接口来处理特有的 SSE 事件格式。
//
// 协议差异示例：
//   - OpenAI: 无显式事件类型，总是 "data:" 前缀，[DONE] 终止
//   - Anthropic: 有显式事件类型（event:），message_stop 终止，error 事件报错
//   - Gemini: 无事件类型，无终止信号，EOF 即结束
type EventHandler interface {
	// HandleEvent 处理单个 SSE 事件
	//
	// 参数：
	//   - eventType: 事件类型（OpenAI/Gemini 为空，Anthropic 有值）
	//   - data: 原始 data 内容
	//
	// 返回：
	//   - replies: 转换后的规范回复（一个事件可能产生 0..N 个）
	//   - stop: 是否正常结束流
	//   - err: 终止性错误（解码失败或上游 error 事件）
	HandleEvent(eventType string, data []byte) (replies []llm.Reply, stop bool, err error)

	// ShouldStopOnData 检查原始 data 是否为终止信号（OpenAI [DONE]）
	ShouldStopOnData(data string) bool
}

// ═══════════════════════════════════════════════════════════════════════════
// SSE 解析器
// ═══════════════════════════════════════════════════════════════════════════

// SSEParser SSE (Server-Sent Events) 解析器
//
// SSE 格式：
//
//	event: event_type
//	data: {"key": "value"}
//
//	data: {"key": "value"}
//
// 与宽松解析不同，handler 返回的解码错误会终止流，而不是被静默忽略。
type SSEParser struct {
	provider llm.ProviderKind
	handler  EventHandler
}

// NewSSEParser 创建 SSE 解析器
func NewSSEParser(provider llm.ProviderKind, handler EventHandler) *SSEParser {
	return &SSEParser{provider: provider, handler: handler}
}

// Decode 解析 SSE 流，实现 StreamDecoder 接口
//
// 行为：
//   - 空行结束当前事件（重置 event 类型）
//   - 注释行（":" 开头）与未知字段忽略
//   - ShouldStopOnData / handler stop / EOF 时正常结束
//   - handler 错误或读取错误作为最后一个元素投递
//   - ctx 取消时立即返回，不再投递
func (p *SSEParser) Decode(ctx context.Context, body io.Reader, out chan<- llm.StreamResult) {
	scanner := newLineScanner(body)
	var currentEvent string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			currentEvent = ""
			continue
		}

		// 格式: event: message_start
		if after, ok := strings.CutPrefix(line, "event:"); ok {
			currentEvent = strings.TrimSpace(after)
			continue
		}

		// 格式: data: {"key": "value"}
		after, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data := strings.TrimPrefix(after, " ")

		if p.handler.ShouldStopOnData(strings.TrimSpace(data)) {
			return
		}

		replies, stop, err := p.handler.HandleEvent(currentEvent, []byte(data))
		for _, r := range replies {
			if !Emit(ctx, out, llm.StreamResult{Reply: r}) {
				return
			}
		}
		if err != nil {
			Emit(ctx, out, llm.StreamResult{Err: err})
			return
		}
		if stop {
			return
		}
	}

	emitReadError(ctx, out, p.provider, scanner.Err())
}

// ═══════════════════════════════════════════════════════════════════════════
// 投递辅助
// ═══════════════════════════════════════════════════════════════════════════

// Emit 投递一个结果，ctx 已取消时放弃并返回 false
func Emit(ctx context.Context, out chan<- llm.StreamResult, r llm.StreamResult) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case out <- r:
		return true
	}
}

// emitReadError 投递读取错误；取消导致的错误不投递
func emitReadError(ctx context.Context, out chan<- llm.StreamResult, provider llm.ProviderKind, err error) {
	if err == nil || ctx.Err() != nil {
		return
	}
	Emit(ctx, out, llm.StreamResult{Err: llm.NewUpstreamError(provider, 0, "stream interrupted: "+err.Error(), err)})
}

// newLineScanner 创建按行扫描的 Scanner，单行上限 4MB
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 4<<20)
	return scanner
}
