package core

import (
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// maxErrorBody 错误响应体最多读取的字节数
const maxErrorBody = 64 << 10

// errorMessagePaths 常见的上游错误消息位置
//
//	OpenAI / Anthropic / Gemini: {"error": {"message": "..."}}
//	Ollama:                      {"error": "..."}
//	其他聚合服务:                 {"message": "..."} / {"detail": "..."}
var errorMessagePaths = []string{"error.message", "error", "message", "detail"}

// ExtractErrorMessage 从上游错误响应体中提取可读消息
//
// 找不到结构化字段时返回截断后的原始响应体。
func ExtractErrorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			r := gjson.GetBytes(body, path)
			if r.Type == gjson.String && r.String() != "" {
				return r.String()
			}
		}
	}

	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}

// redactEndpoint 去掉端点中的 key 查询参数（Gemini 使用 ?key=）
func redactEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
