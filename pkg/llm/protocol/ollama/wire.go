package ollama

// ChatRequest /api/chat 请求体
//
// stream 不在结构体中，由构建器单独写入，保证 false 也出现在请求体里。
type ChatRequest struct {
	Model     string         `json:"model"`
	Messages  []Message      `json:"messages"`
	Options   RequestOptions `json:"options"`
	KeepAlive any            `json:"keep_alive,omitempty"`
}

// Message 请求/响应消息
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// RequestOptions 模型运行参数
type RequestOptions struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	NumPredict    *uint32  `json:"num_predict,omitempty"`
	NumCtx        *uint32  `json:"num_ctx,omitempty"`
	TopK          *uint32  `json:"top_k,omitempty"`
	Mirostat      *uint8   `json:"mirostat,omitempty"`
	MirostatEta   *float64 `json:"mirostat_eta,omitempty"`
	MirostatTau   *float64 `json:"mirostat_tau,omitempty"`
	RepeatLastN   *int32   `json:"repeat_last_n,omitempty"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
	Stop          []string `json:"stop,omitempty"`
	TfsZ          *float64 `json:"tfs_z,omitempty"`
}

// ChatResponse 阻塞响应，也是流式的单行对象
type ChatResponse struct {
	Model           string   `json:"model"`
	CreatedAt       string   `json:"created_at"`
	Message         *Message `json:"message,omitempty"`
	Done            bool     `json:"done"`
	DoneReason      string   `json:"done_reason,omitempty"`
	PromptEvalCount *uint32  `json:"prompt_eval_count,omitempty"`
	EvalCount       *uint32  `json:"eval_count,omitempty"`
	Error           string   `json:"error,omitempty"`
}
