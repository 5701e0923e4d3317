package gemini

// GenerateRequest generateContent 请求体
type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content 一轮对话内容
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part 内容部件（text / inline_data）
type Part struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
	Thought    bool        `json:"thought,omitempty"`
}

// InlineData 内联 base64 数据
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerationConfig 生成参数
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            *uint32 `json:"topK,omitempty"`
	MaxOutputTokens *uint32 `json:"maxOutputTokens,omitempty"`
}

// GenerateResponse 响应（阻塞与流式帧共用）
type GenerateResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
	Error         *StreamError   `json:"error,omitempty"`
}

// StreamError 流中途的错误帧
type StreamError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Candidate 候选
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index"`
}

// UsageMetadata Token 用量
type UsageMetadata struct {
	PromptTokenCount     *uint32 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount *uint32 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      *uint32 `json:"totalTokenCount,omitempty"`
}
