package openai

// ═══════════════════════════════════════════════════════════════════════════
// 请求
// ═══════════════════════════════════════════════════════════════════════════

// ChatRequest Chat Completions 请求体
type ChatRequest struct {
	Model            string         `json:"model,omitempty"`
	Messages         []ChatMessage  `json:"messages"`
	Temperature      float64        `json:"temperature"`
	TopP             float64        `json:"top_p"`
	MaxTokens        *uint32        `json:"max_tokens,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty"`
	PresencePenalty  float64        `json:"presence_penalty"`
	Stream           bool           `json:"stream"`
	StreamOptions    *StreamOptions `json:"stream_options,omitempty"`
	User             string         `json:"user,omitempty"`
}

// ChatMessage 请求消息
//
// Content 为 string（system）或 []ContentPart（user / assistant）。
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart 多模态内容块
type ContentPart struct {
	Type     string    `json:"type"`
	Text     *string   `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 图片地址（data URL）
type ImageURL struct {
	URL string `json:"url"`
}

// StreamOptions 流式选项
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ═══════════════════════════════════════════════════════════════════════════
// 响应
// ═══════════════════════════════════════════════════════════════════════════

// ChatResponse 阻塞响应
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice 阻塞响应中的候选
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage 响应消息
type ResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// Usage Token 用量
type Usage struct {
	PromptTokens     *uint32 `json:"prompt_tokens,omitempty"`
	CompletionTokens *uint32 `json:"completion_tokens,omitempty"`
	TotalTokens      *uint32 `json:"total_tokens,omitempty"`
}

// ChatChunk 流式 chunk
type ChatChunk struct {
	ID      string        `json:"id"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
	Error   *StreamError  `json:"error,omitempty"`
}

// StreamError 流中途的错误帧（OpenRouter / DeepSeek / Azure）
type StreamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    any    `json:"code"`
}

// ChunkChoice 流式候选
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta 增量内容
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content"`
}
