package gemini

import (
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// Options Gemini 会话选项
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        *uint32 `json:"top_k,omitempty"`
	MaxTokens   *uint32 `json:"max_tokens,omitempty"`
	Stream      bool    `json:"stream"`
	System      string  `json:"system,omitempty"`
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		Temperature: 1.0,
		TopP:        1.0,
		Stream:      false,
	}
}

// ParseOptions 解析会话选项，缺省字段取默认值
func ParseOptions(opts llm.GenericOptions) (Options, error) {
	o := DefaultOptions()
	if err := core.ParseOptions(opts.Options, &o); err != nil {
		return Options{}, err
	}
	return o, nil
}
