package llm

// ═══════════════════════════════════════════════════════════════════════════
// 存储层配置
// ═══════════════════════════════════════════════════════════════════════════

// GenericConfig 存储的 Provider 连接配置
//
// Config 为原始 JSON，字段集因 Provider 而异：
//
//	{"apiKey": "sk-xxx", "model": "gpt-4o", "endpoint": "https://..."}
//	{"apiKey": "xxx", "endpoint": "https://x.openai.azure.com", "apiVersion": "2024-02-01", "deploymentId": "gpt4"}
type GenericConfig struct {
	Provider string `json:"provider" mapstructure:"provider"`
	Config   string `json:"config" mapstructure:"config"`
}

// Kind 返回解析后的 Provider 类型
func (c GenericConfig) Kind() ProviderKind {
	return ParseProviderKind(c.Provider)
}

// GenericOptions 存储的会话级选项
//
// Options 为原始 JSON，按 Provider 延迟解析为对应的类型化选项。
type GenericOptions struct {
	Provider string `json:"provider" mapstructure:"provider"`
	Options  string `json:"options" mapstructure:"options"`
}

// ProxySetting 代理设置
//
// HTTP 与 HTTPS 同时为 true 或同时为 false 时代理所有协议；
// 只设置其中一个时只代理对应 scheme 的请求。
type ProxySetting struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	HTTP    bool   `json:"http" mapstructure:"http"`
	HTTPS   bool   `json:"https" mapstructure:"https"`
}

// Defaults 调用方提供的全局数值默认值
type Defaults struct {
	// MaxTokens 选项未指定 max_tokens 时使用
	MaxTokens uint32 `json:"max_tokens" mapstructure:"max_tokens"`

	// ContextLength 本地推理 Provider 的上下文长度（0 表示不发送）
	ContextLength uint32 `json:"context_length" mapstructure:"context_length"`
}
