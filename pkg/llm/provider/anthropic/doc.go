// Package anthropic 提供 Claude Messages API 的 Provider 客户端
//
// # 配置
//
//	{"apiKey": "sk-ant-xxx", "model": "claude-3-5-sonnet-20241022", "apiVersion": "2023-06-01"}
//
// apiVersion 作为 anthropic-version 请求头发送，为空时使用 2023-06-01。
//
// # 系统提示
//
// 系统提示通过会话选项的 system 字段传入：
//
//	{"system": "You are a helpful assistant.", "max_tokens": 1024}
//
// 消息数组中出现 system 角色会返回 [llm.ClaudeSystemMessageUnsupportedError]。
package anthropic
