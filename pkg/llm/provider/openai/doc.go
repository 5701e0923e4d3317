// Package openai 提供 OpenAI 兼容协议族的 Provider 客户端
//
// 一个 [Client] 类型服务六种 Provider，差异只在端点与认证：
//
//   - OpenAI:     https://api.openai.com/v1, Authorization: Bearer
//   - Azure:      {endpoint}/openai/deployments/{deploymentId}/chat/completions?api-version=..., api-key 头
//   - OpenRouter: https://openrouter.ai/api/v1
//   - DeepSeek:   https://api.deepseek.com
//   - xAI:        https://api.x.ai/v1
//   - Custom:     用户提供的兼容端点
//
// # 快速开始
//
//	client, err := openai.New(&openai.Config{
//	    Provider: llm.ProviderOpenAI,
//	    APIKey:   "sk-xxx",
//	    Model:    "gpt-4o",
//	}, core.ClientOptions{})
//
//	req, err := client.BuildRequest(ctx, messages, opts, llm.Defaults{MaxTokens: 1024})
//	reply, err := client.Execute(ctx, req)
//
// 通常不直接调用 New，而是通过 provider.Resolve 从存储的配置构建。
package openai
