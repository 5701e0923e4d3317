package llm

import "strings"

// ProviderKind LLM Provider 类型（封闭枚举）
type ProviderKind string

const (
	// ProviderOpenAI OpenAI 原生 API
	ProviderOpenAI ProviderKind = "openai"

	// ProviderAzure Azure OpenAI（模型由 deployment 决定）
	ProviderAzure ProviderKind = "azure"

	// ProviderClaude Anthropic Claude
	ProviderClaude ProviderKind = "claude"

	// ProviderOllama Ollama 本地推理
	ProviderOllama ProviderKind = "ollama"

	// ProviderOpenrouter OpenRouter 聚合服务（OpenAI 兼容）
	ProviderOpenrouter ProviderKind = "openrouter"

	// ProviderDeepseek DeepSeek（OpenAI 兼容）
	ProviderDeepseek ProviderKind = "deepseek"

	// ProviderXai xAI Grok（OpenAI 兼容）
	ProviderXai ProviderKind = "xai"

	// ProviderGoogle Google Gemini（模型编码在端点中）
	ProviderGoogle ProviderKind = "google"

	// ProviderCustom 自定义 OpenAI 兼容端点
	ProviderCustom ProviderKind = "custom"

	// ProviderUnsupported 未知 Provider
	ProviderUnsupported ProviderKind = "unsupported"
)

// SupportedKinds 返回全部受支持的 Provider 类型
func SupportedKinds() []ProviderKind {
	return []ProviderKind{
		ProviderOpenAI, ProviderAzure, ProviderClaude, ProviderOllama, ProviderOpenrouter,
		ProviderDeepseek, ProviderXai, ProviderGoogle, ProviderCustom,
	}
}

// ParseProviderKind 解析 Provider 字符串，未知值映射为 ProviderUnsupported
func ParseProviderKind(s string) ProviderKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return ProviderOpenAI
	case "azure":
		return ProviderAzure
	case "claude", "anthropic":
		return ProviderClaude
	case "ollama":
		return ProviderOllama
	case "openrouter":
		return ProviderOpenrouter
	case "deepseek":
		return ProviderDeepseek
	case "xai", "grok":
		return ProviderXai
	case "google", "gemini":
		return ProviderGoogle
	case "custom":
		return ProviderCustom
	default:
		return ProviderUnsupported
	}
}

// String 返回字符串表示
func (k ProviderKind) String() string {
	return string(k)
}

// IsOpenAICompatible 判断是否使用 OpenAI Chat Completions 协议
func (k ProviderKind) IsOpenAICompatible() bool {
	switch k {
	case ProviderOpenAI, ProviderAzure, ProviderOpenrouter, ProviderDeepseek,
		ProviderXai, ProviderCustom:
		return true
	default:
		return false
	}
}

// RequiresModel 模型是否必须在配置中给出
//
// Azure 与 Google 在端点/部署层面编码模型。
func (k ProviderKind) RequiresModel() bool {
	return k != ProviderAzure && k != ProviderGoogle
}

// DefaultEndpoint 返回默认端点
func (k ProviderKind) DefaultEndpoint() string {
	switch k {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderOpenrouter:
		return "https://openrouter.ai/api/v1"
	case ProviderDeepseek:
		return "https://api.deepseek.com"
	case ProviderXai:
		return "https://api.x.ai/v1"
	case ProviderClaude:
		return "https://api.anthropic.com/v1"
	case ProviderOllama:
		return "http://localhost:11434"
	case ProviderGoogle:
		return "https://generativelanguage.googleapis.com"
	default:
		return ""
	}
}
