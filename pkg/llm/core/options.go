package core

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// ParseOptions 将会话选项 JSON 解析到 dst
//
// dst 应预先填好默认值，JSON 中出现的字段覆盖默认值。
// 空字符串视为 "{}"；解析失败返回携带原始字符串的 OptionsParseError。
func ParseOptions(raw string, dst any) error {
	src := strings.TrimSpace(raw)
	if src == "" {
		src = "{}"
	}
	if err := Unmarshal([]byte(src), dst); err != nil {
		return llm.NewOptionsParseError(raw, err)
	}
	return nil
}

// ParseConfig 将存储的连接配置 JSON 解析到 dst
//
// 配置存储使用 camelCase 键（apiKey），同时接受 snake_case（api_key）。
func ParseConfig(kind llm.ProviderKind, raw string, dst any) error {
	src := []byte(strings.TrimSpace(raw))
	if len(src) == 0 {
		return llm.NewConfigParseError(kind, "config is empty", nil)
	}
	if !gjson.ValidBytes(src) || !gjson.ParseBytes(src).IsObject() {
		return llm.NewConfigParseError(kind, "config must be a json object", nil)
	}

	src, err := camelizeKeys(src)
	if err != nil {
		return llm.NewConfigParseError(kind, "invalid json", err)
	}
	if err := Unmarshal(src, dst); err != nil {
		return llm.NewConfigParseError(kind, "invalid json", err)
	}
	return nil
}

// camelizeKeys 为顶层 snake_case 键补充 camelCase 副本（已存在的 camelCase 键优先）
func camelizeKeys(src []byte) ([]byte, error) {
	type kv struct {
		key string
		raw string
	}
	var pending []kv
	root := gjson.ParseBytes(src)
	root.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if !strings.Contains(key, "_") {
			return true
		}
		camel := snakeToCamel(key)
		if !root.Get(gjson.Escape(camel)).Exists() {
			pending = append(pending, kv{key: camel, raw: v.Raw})
		}
		return true
	})

	var err error
	for _, p := range pending {
		if src, err = sjson.SetRawBytes(src, gjson.Escape(p.key), []byte(p.raw)); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// snakeToCamel api_key → apiKey, deployment_id → deploymentId
func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	var sb strings.Builder
	sb.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return sb.String()
}

// ResolveMaxTokens max_tokens 解析顺序：选项值，否则调用方全局默认值
func ResolveMaxTokens(opt *uint32, defaults llm.Defaults) uint32 {
	if opt != nil {
		return *opt
	}
	return defaults.MaxTokens
}
