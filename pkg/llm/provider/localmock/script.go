package localmock

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

//go:embed scripts/default.yaml
var defaultScriptYAML []byte

// Script 脚本文件结构
type Script struct {
	// Provider 客户端报告的 Provider 类型，默认 custom
	Provider string `yaml:"provider" json:"provider"`

	// Model 客户端报告的模型名称
	Model string `yaml:"model" json:"model"`

	// Delay 流式增量之间的间隔（如 "100ms"）
	Delay string `yaml:"delay" json:"delay"`

	// Turns 依次使用的轮次，用完后循环
	Turns []Turn `yaml:"turns" json:"turns"`
}

// Turn 单轮响应
type Turn struct {
	// User 用户消息（仅用于文档说明）
	User string `yaml:"user,omitempty" json:"user,omitempty"`

	// Reply 阻塞回复文本（支持模板）
	Reply string `yaml:"reply,omitempty" json:"reply,omitempty"`

	// Chunks 流式增量；为空时按单词切分 Reply
	Chunks []string `yaml:"chunks,omitempty" json:"chunks,omitempty"`

	// Usage 用量；为空时回复不携带用量
	Usage *Usage `yaml:"usage,omitempty" json:"usage,omitempty"`

	// Error 非空时本轮以 UpstreamError 失败
	Error string `yaml:"error,omitempty" json:"error,omitempty"`

	// StreamError 非空时在增量之后以上游 error 事件终止流
	StreamError string `yaml:"stream_error,omitempty" json:"stream_error,omitempty"`

	// Hang 为 true 时增量之后一直挂起，直到调用方取消
	Hang bool `yaml:"hang,omitempty" json:"hang,omitempty"`
}

// Usage 脚本中的用量
type Usage struct {
	Prompt     uint32 `yaml:"prompt" json:"prompt"`
	Completion uint32 `yaml:"completion" json:"completion"`
}

// LoadScriptFile 从文件加载脚本（.yaml / .yml / .json）
func LoadScriptFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script file: %w", err)
	}
	return LoadScriptFromBytes(data, filepath.Ext(path))
}

// LoadScriptFromBytes 从字节数据加载脚本
func LoadScriptFromBytes(data []byte, format string) (*Script, error) {
	s := &Script{}

	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := core.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s (expected yaml, yml, or json)", format)
	}

	if s.Delay != "" {
		if _, err := time.ParseDuration(s.Delay); err != nil {
			return nil, fmt.Errorf("invalid delay %q: %w", s.Delay, err)
		}
	}

	return s, nil
}

// LoadDefaultScript 加载内嵌的默认脚本
func LoadDefaultScript() (*Script, error) {
	return LoadScriptFromBytes(defaultScriptYAML, "yaml")
}

// ═══════════════════════════════════════════════════════════════════════════
// 模板渲染
// ═══════════════════════════════════════════════════════════════════════════

// templateData 回复模板可用的数据
type templateData struct {
	Input string
	Turn  int
}

// render 渲染回复模板，失败时原样返回
func render(text string, data templateData) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	tmpl, err := template.New("reply").Parse(text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return text
	}
	return buf.String()
}

// lastUserText 最后一条 user 消息的文本
func lastUserText(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}

// splitWords 按单词切分，后续单词带前导空格："a b" → ["a", " b"]
func splitWords(text string) []string {
	words := strings.Fields(text)
	for i := 1; i < len(words); i++ {
		words[i] = " " + words[i]
	}
	return words
}
