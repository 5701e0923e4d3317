package core

import (
	"bytes"
	"context"
	"io"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// LineHandler 换行分隔 JSON 的单行处理器
//
// 每行是一个完整的 JSON 对象，代表一轮生成。
type LineHandler interface {
	// HandleLine 处理一行
	//
	// 返回：
	//   - replies: 规范回复
	//   - done: 上游标记的最后一块
	//   - err: 解析失败（终止流，不尝试重新同步）
	HandleLine(line []byte) (replies []llm.Reply, done bool, err error)
}

// NDJSONDecoder 换行分隔 JSON 流解码器（Ollama）
//
// 以换行作为帧边界，不依赖底层传输每次恰好交付一个完整对象。
type NDJSONDecoder struct {
	provider llm.ProviderKind
	handler  LineHandler
}

// NewNDJSONDecoder 创建 NDJSON 解码器
func NewNDJSONDecoder(provider llm.ProviderKind, handler LineHandler) *NDJSONDecoder {
	return &NDJSONDecoder{provider: provider, handler: handler}
}

// Decode 实现 StreamDecoder 接口
func (d *NDJSONDecoder) Decode(ctx context.Context, body io.Reader, out chan<- llm.StreamResult) {
	scanner := newLineScanner(body)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		replies, done, err := d.handler.HandleLine(line)
		for _, r := range replies {
			if !Emit(ctx, out, llm.StreamResult{Reply: r}) {
				return
			}
		}
		if err != nil {
			Emit(ctx, out, llm.StreamResult{Err: err})
			return
		}
		if done {
			return
		}
	}

	emitReadError(ctx, out, d.provider, scanner.Err())
}
