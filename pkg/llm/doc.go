// Package llm 定义多 Provider 聊天网关的规范数据模型
//
// 本包不做任何 I/O，只定义各层共享的类型与契约：
//   - [Message] / [ContentPart]: 规范消息（文本与图片块，三种角色）
//   - [GenericConfig] / [GenericOptions]: 设置存储中的原始 JSON 配置与选项
//   - [ProxySetting] / [Defaults]: 代理设置与调用方全局默认值
//   - [Reply] / [StreamResult]: 规范回复与流式序列元素
//   - [Client]: 每种协议一个实现的客户端契约
//   - [ContentResolver]: 图片引用的内容缓存协作者
//
// 完整使用示例请参考 example_test.go。
//
// # Provider 类型
//
// [ProviderKind] 是封闭枚举，未知字符串解析为 ProviderUnsupported：
//   - OpenAI 协议族：openai、azure、openrouter、deepseek、xai、custom
//   - claude：命名事件 SSE
//   - ollama：换行分隔 JSON
//   - google：Gemini generateContent
//
// # 错误
//
// 所有错误都嵌入 [BaseError] 并支持 errors.Is/As，按阶段划分：
//   - 配置解析：ConfigParseError、UnsupportedProviderError、ModelNotSetError
//   - 请求构建：OptionsParseError、ClaudeSystemMessageUnsupportedError
//   - 响应：EmptyChoicesError、EmptyMessageError、UpstreamError
//   - 流式：StreamDecodeError、StreamTerminatedByProviderError
//
// # 子包
//
//   - [pkg/llm/core]: 传输、阻塞执行、SSE / NDJSON 解码
//   - [pkg/llm/protocol]: 各协议的线上结构、请求构建与事件处理
//   - [pkg/llm/provider]: 由存储配置解析客户端
//   - [pkg/llm/gateway]: 调用执行与取消控制
//
// # 包文件组织
//
//   - types.go: Client 接口、Reply、StreamResult、ContentResolver
//   - message.go: Role、ContentPart、Message
//   - config.go: GenericConfig、GenericOptions、ProxySetting、Defaults
//   - provider_type.go: ProviderKind 枚举
//   - errors.go: 错误类型
package llm
