// Package gemini 提供 Google Gemini API 的 Provider 客户端
//
// # 配置
//
//	{"apiKey": "AIza...", "model": "gemini-2.0-flash", "apiVersion": "v1beta"}
//
// 模型编码在端点路径中，认证使用 ?key= 查询参数：
//
//	POST /{apiVersion}/models/{model}:generateContent?key=...
//	POST /{apiVersion}/models/{model}:streamGenerateContent?alt=sse&key=...
//
// model 为空时使用 [DefaultModel]，apiVersion 为空时使用 [DefaultAPIVersion]。
package gemini
