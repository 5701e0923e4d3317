// Package openai 实现 OpenAI Chat Completions 协议族
//
// OpenAI、Azure、OpenRouter、DeepSeek、xAI 以及自定义兼容端点共用此协议。
//
// # 请求格式示例
//
//	{
//	  "model": "gpt-4o",
//	  "messages": [
//	    {"role": "system", "content": "You are helpful."},
//	    {"role": "user", "content": [
//	      {"type": "text", "text": "What is this?"},
//	      {"type": "image_url", "image_url": {"url": "data:image/png;base64,..."}}
//	    ]}
//	  ],
//	  "temperature": 1,
//	  "top_p": 1,
//	  "max_tokens": 1024,
//	  "frequency_penalty": 0,
//	  "presence_penalty": 0,
//	  "stream": true,
//	  "stream_options": {"include_usage": true}
//	}
//
// # 流式格式
//
// 每个 SSE data 帧是一个 chunk，choices[i].delta.content 为文本增量，
// 不含 choices 的 chunk 携带最终用量，data: [DONE] 结束流。
package openai
