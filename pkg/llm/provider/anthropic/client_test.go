package anthropic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

func TestNew(t *testing.T) {
	t.Run("缺少 apiKey", func(t *testing.T) {
		_, err := New(&Config{Model: "claude"}, core.ClientOptions{})
		assert.True(t, llm.IsConfigParseError(err))
	})

	t.Run("模型缺失在构建时报错", func(t *testing.T) {
		client, err := New(&Config{APIKey: "k"}, core.ClientOptions{})
		require.NoError(t, err)
		_, err = client.BuildRequest(context.Background(), nil, llm.GenericOptions{}, llm.Defaults{})
		assert.True(t, llm.IsModelNotSetError(err))
	})
}

func TestClient_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2024-01-01", r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "Be brief.", gjson.GetBytes(body, "system").String())
		assert.Equal(t, int64(300), gjson.GetBytes(body, "max_tokens").Int())

		fmt.Fprint(w, `{"content":[{"type":"text","text":"Ahoy"}],"usage":{"input_tokens":5,"output_tokens":1}}`)
	}))
	defer server.Close()

	client, err := New(&Config{APIKey: "sk-ant", Model: "claude-3-haiku", APIVersion: "2024-01-01", Endpoint: server.URL}, core.ClientOptions{})
	require.NoError(t, err)

	req, err := client.BuildRequest(context.Background(),
		[]llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
		llm.GenericOptions{Options: `{"system": "Be brief."}`},
		llm.Defaults{MaxTokens: 300})
	require.NoError(t, err)

	reply, err := client.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Ahoy", reply.Message)
	assert.Equal(t, uint32(6), *reply.TotalTokens)
}

func TestClient_ExecuteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"message\":{\"usage\":{\"input_tokens\":9}}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"delta\":{\"type\":\"text_delta\",\"text\":\"Hi\"}}\n\n")
		fmt.Fprint(w, "event: message_delta\ndata: {\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":1}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {}\n\n")
	}))
	defer server.Close()

	client, err := New(&Config{APIKey: "k", Model: "claude", Endpoint: server.URL}, core.ClientOptions{})
	require.NoError(t, err)
	req, err := client.BuildRequest(context.Background(), []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
		llm.GenericOptions{Options: `{"stream": true}`}, llm.Defaults{MaxTokens: 10})
	require.NoError(t, err)

	// 同一客户端连续两个流，input_tokens 状态不串流
	for range 2 {
		stream, err := client.ExecuteStream(context.Background(), req)
		require.NoError(t, err)

		var replies []llm.Reply
		for r := range stream {
			require.NoError(t, r.Err)
			replies = append(replies, r.Reply)
		}
		require.Len(t, replies, 2)
		assert.Equal(t, "Hi", replies[0].Message)
		assert.Equal(t, uint32(10), *replies[1].TotalTokens)
	}
}
