// Package ollama 实现 Ollama 本地推理协议（/api/chat）
//
// # 协议特点
//
//   - 采样参数放在 options 对象中（num_predict、num_ctx、mirostat 等）
//   - 图片为不带 data URL 前缀的纯 base64，挂在消息的 images 字段
//   - stream 缺省为 true：非流式请求必须显式发送 "stream": false
//   - 无需认证
//
// # 流式格式
//
// 换行分隔的 JSON 对象，每行一轮生成，"done": true 的对象携带用量并结束流：
//
//	{"message":{"role":"assistant","content":"Hel"},"done":false}
//	{"message":{"role":"assistant","content":"lo"},"done":false}
//	{"message":{"role":"assistant","content":""},"done":true,"prompt_eval_count":26,"eval_count":2}
package ollama
