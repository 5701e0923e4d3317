package anthropic

// MessagesRequest Messages API 请求体
type MessagesRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   uint32    `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	TopK        *uint32   `json:"top_k,omitempty"`
	Stream      bool      `json:"stream"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

// Metadata 请求元数据
type Metadata struct {
	UserID string `json:"user_id"`
}

// Message 请求消息
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock 内容块（text / image）
type ContentBlock struct {
	Type   string       `json:"type"`
	Text   *string      `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource base64 图片
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// MessagesResponse 阻塞响应
type MessagesResponse struct {
	ID         string          `json:"id"`
	Model      string          `json:"model"`
	Content    []ResponseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Usage      *Usage          `json:"usage,omitempty"`
}

// ResponseBlock 响应内容块
type ResponseBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage Token 用量（没有 total 字段）
type Usage struct {
	InputTokens  *uint32 `json:"input_tokens,omitempty"`
	OutputTokens *uint32 `json:"output_tokens,omitempty"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式事件
// ═══════════════════════════════════════════════════════════════════════════

// messageStartEvent event: message_start
type messageStartEvent struct {
	Message struct {
		Usage *Usage `json:"usage"`
	} `json:"message"`
}

// contentBlockDeltaEvent event: content_block_delta
type contentBlockDeltaEvent struct {
	Index int `json:"index"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// messageDeltaEvent event: message_delta
type messageDeltaEvent struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage *Usage `json:"usage"`
}

// errorEvent event: error
type errorEvent struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
