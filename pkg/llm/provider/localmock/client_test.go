package localmock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

func userMessages(text string) []llm.Message {
	return []llm.Message{llm.NewTextMessage(llm.RoleUser, text)}
}

func build(t *testing.T, c *Client, text, options string) *llm.WireRequest {
	t.Helper()
	req, err := c.BuildRequest(context.Background(), userMessages(text), llm.GenericOptions{Options: options}, llm.Defaults{})
	require.NoError(t, err)
	return req
}

func collect(t *testing.T, stream <-chan llm.StreamResult) ([]llm.Reply, error) {
	t.Helper()
	var replies []llm.Reply
	for r := range stream {
		if r.Err != nil {
			return replies, r.Err
		}
		replies = append(replies, r.Reply)
	}
	return replies, nil
}

func TestClient_DefaultScript(t *testing.T) {
	c := New()
	assert.Equal(t, llm.ProviderCustom, c.Kind())
	assert.Equal(t, "localmock", c.Model())

	t.Run("第一轮渲染模板", func(t *testing.T) {
		reply, err := c.Execute(context.Background(), build(t, c, "ping", ""))
		require.NoError(t, err)
		assert.Equal(t, "Hello! You said: ping", reply.Message)
		assert.Equal(t, uint32(14), *reply.TotalTokens)
	})

	t.Run("第二轮拼接增量", func(t *testing.T) {
		reply, err := c.Execute(context.Background(), build(t, c, "joke", ""))
		require.NoError(t, err)
		assert.Equal(t, "Why did the gopher cross the road?", reply.Message)
	})

	t.Run("第三轮上游错误", func(t *testing.T) {
		_, err := c.Execute(context.Background(), build(t, c, "x", ""))
		require.Error(t, err)
		assert.True(t, llm.IsUpstreamError(err))
		assert.Contains(t, err.Error(), "mock upstream unavailable")
	})

	t.Run("轮次循环", func(t *testing.T) {
		reply, err := c.Execute(context.Background(), build(t, c, "again", ""))
		require.NoError(t, err)
		assert.Equal(t, "Hello! You said: again", reply.Message)
	})
}

func TestClient_BuildRequest(t *testing.T) {
	t.Run("记录调用", func(t *testing.T) {
		c := New(WithTurns(Turn{Reply: "ok"}))
		req := build(t, c, "hello", `{"stream": true}`)

		assert.True(t, req.Stream)
		assert.Equal(t, "hello", gjson.GetBytes(req.Body, "input").String())
		assert.Equal(t, int64(1), gjson.GetBytes(req.Body, "turn").Int())

		require.Equal(t, 1, c.CallCount())
		last := c.LastCall()
		require.NotNil(t, last)
		assert.True(t, last.Stream)
		assert.Equal(t, "hello", last.Messages[0].Text())
	})

	t.Run("非法选项", func(t *testing.T) {
		c := New(WithTurns(Turn{Reply: "ok"}))
		_, err := c.BuildRequest(context.Background(), nil, llm.GenericOptions{Options: "{not json"}, llm.Defaults{})
		assert.True(t, llm.IsOptionsParseError(err))
		assert.Equal(t, 0, c.CallCount())
	})

	t.Run("Reset", func(t *testing.T) {
		c := New(WithTurns(Turn{Reply: "a"}, Turn{Reply: "b"}))
		_ = build(t, c, "1", "")
		c.Reset()
		assert.Empty(t, c.Calls())
		assert.Nil(t, c.LastCall())

		reply, err := c.Execute(context.Background(), build(t, c, "2", ""))
		require.NoError(t, err)
		assert.Equal(t, "a", reply.Message)
	})
}

func TestClient_ExecuteStream(t *testing.T) {
	t.Run("按单词切分并附带用量", func(t *testing.T) {
		c := New(WithTurns(Turn{Reply: "one two three", Usage: &Usage{Prompt: 3, Completion: 2}}))
		stream, err := c.ExecuteStream(context.Background(), build(t, c, "go", `{"stream":true}`))
		require.NoError(t, err)

		replies, err := collect(t, stream)
		require.NoError(t, err)
		require.Len(t, replies, 4)
		assert.Equal(t, "one", replies[0].Message)
		assert.Equal(t, " two", replies[1].Message)
		assert.Equal(t, " three", replies[2].Message)
		assert.Empty(t, replies[3].Message)
		assert.Equal(t, uint32(5), *replies[3].TotalTokens)
	})

	t.Run("上游 error 事件", func(t *testing.T) {
		c := New(WithTurns(Turn{Chunks: []string{"partial"}, StreamError: "overloaded"}))
		stream, err := c.ExecuteStream(context.Background(), build(t, c, "go", ""))
		require.NoError(t, err)

		replies, err := collect(t, stream)
		require.Len(t, replies, 1)
		assert.True(t, llm.IsStreamTerminatedByProviderError(err))
	})

	t.Run("Error 同步返回", func(t *testing.T) {
		c := New(WithTurns(Turn{Error: "down"}))
		_, err := c.ExecuteStream(context.Background(), build(t, c, "go", ""))
		assert.True(t, llm.IsUpstreamError(err))
	})

	t.Run("Hang 直到取消", func(t *testing.T) {
		c := New(WithTurns(Turn{Chunks: []string{"first"}, Hang: true}))
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := c.ExecuteStream(ctx, build(t, c, "go", ""))
		require.NoError(t, err)

		first := <-stream
		assert.Equal(t, "first", first.Reply.Message)

		cancel()
		select {
		case _, ok := <-stream:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("stream not closed after cancel")
		}
	})

	t.Run("延迟期间取消", func(t *testing.T) {
		c := New(WithTurns(Turn{Chunks: []string{"a", "b"}}), WithDelay(time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := c.ExecuteStream(ctx, build(t, c, "go", ""))
		require.NoError(t, err)

		<-stream
		cancel()
		_, ok := <-stream
		assert.False(t, ok)
	})
}

func TestWithError(t *testing.T) {
	boom := errors.New("boom")
	c := New(WithError(boom))

	_, err := c.Execute(context.Background(), build(t, c, "x", ""))
	assert.ErrorIs(t, err, boom)

	_, err = c.ExecuteStream(context.Background(), build(t, c, "x", ""))
	assert.ErrorIs(t, err, boom)
}

func TestLoadScript(t *testing.T) {
	t.Run("JSON 文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chat.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"provider":"claude","model":"m","delay":"5ms","turns":[{"reply":"hey"}]}`), 0o600))

		c := New(WithScriptFile(path))
		assert.Equal(t, llm.ProviderClaude, c.Kind())
		assert.Equal(t, "m", c.Model())
		assert.Equal(t, 5*time.Millisecond, c.delay)
	})

	t.Run("文件不存在", func(t *testing.T) {
		c := New(WithScriptFile(filepath.Join(t.TempDir(), "missing.yaml")))
		_, err := c.Execute(context.Background(), &llm.WireRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load script file")
	})

	t.Run("非法 delay", func(t *testing.T) {
		_, err := LoadScriptFromBytes([]byte("delay: soon\n"), "yaml")
		assert.Error(t, err)
	})

	t.Run("不支持的格式", func(t *testing.T) {
		_, err := LoadScriptFromBytes([]byte(""), ".toml")
		assert.Error(t, err)
	})
}

func TestRender(t *testing.T) {
	assert.Equal(t, "turn 2: hi", render("turn {{.Turn}}: {{.Input}}", templateData{Input: "hi", Turn: 2}))
	assert.Equal(t, "plain", render("plain", templateData{}))
	assert.Equal(t, "{{.Broken", render("{{.Broken", templateData{}))
}
