// Package ollama 提供 Ollama 本地推理服务的 Provider 客户端
//
// # 配置
//
//	{"endpoint": "http://localhost:11434", "model": "llama3"}
//
// 无需认证。阻塞与流式都使用 POST /api/chat，流式响应为换行分隔的 JSON。
package ollama
