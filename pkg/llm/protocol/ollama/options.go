package ollama

import (
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// Options Ollama 会话选项
type Options struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	Stream        bool     `json:"stream"`
	MaxTokens     *uint32  `json:"max_tokens,omitempty"`
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
	KeepAlive     any      `json:"keep_alive,omitempty"`
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
