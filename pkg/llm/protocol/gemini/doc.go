// Package gemini 实现 Google Gemini generateContent 协议
//
// # 协议特点
//
//   - 内容格式：Content{Role, Parts[]}，角色 user / model
//   - 系统消息：提升到独立的 systemInstruction 字段
//   - 图片：{"inline_data": {"mime_type": ..., "data": ...}}
//   - 模型编码在端点路径中：models/{model}:generateContent
//   - 认证方式：API Key 作为查询参数 ?key=XXX
//
// # 请求格式示例
//
//	{
//	  "systemInstruction": {"parts": [{"text": "..."}]},
//	  "contents": [
//	    {"role": "user", "parts": [{"text": "..."}]},
//	    {"role": "model", "parts": [{"text": "..."}]}
//	  ],
//	  "generationConfig": {"temperature": 1, "topP": 1, "maxOutputTokens": 1024}
//	}
//
// # 流式格式
//
// :streamGenerateContent?alt=sse 返回 SSE，每个 data 帧是一个完整的响应对象，
// 没有终止哨兵，EOF 即结束；带 finishReason 的最后一帧携带用量。
package gemini
