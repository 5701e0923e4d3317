// Package anthropic 实现 Claude Messages API 协议
//
// # 协议特点
//
//   - 系统提示：独立的 system 字段，消息数组中不允许出现 system 角色
//   - max_tokens：必填，永远不为 null
//   - 图片：{"type": "image", "source": {"type": "base64", "media_type": ..., "data": ...}}
//   - 认证：x-api-key 与 anthropic-version 请求头
//
// # 流式格式
//
// 命名事件 SSE：
//
//	event: message_start          → 记录 input_tokens
//	event: content_block_delta    → 文本增量
//	event: message_delta          → 空文本 + 用量
//	event: message_stop           → 结束
//	event: error                  → 上游终止
//
// 其他事件（ping、content_block_start 等）忽略。
package anthropic
