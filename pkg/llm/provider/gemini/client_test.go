package gemini

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

func TestClient_Endpoints(t *testing.T) {
	client, err := New(&Config{APIKey: "AIza", Model: "gemini-1.5-pro", APIVersion: "v1"}, core.ClientOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/v1/models/gemini-1.5-pro:generateContent?key=AIza", client.BuildCompleteEndpoint())
	assert.Equal(t, "/v1/models/gemini-1.5-pro:streamGenerateContent?alt=sse&key=AIza", client.BuildStreamEndpoint())

	t.Run("默认模型与版本", func(t *testing.T) {
		c, err := New(&Config{APIKey: "k"}, core.ClientOptions{})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, c.Model())
		assert.Contains(t, c.BuildCompleteEndpoint(), "/"+DefaultAPIVersion+"/models/"+DefaultModel)
	})

	t.Run("缺少 apiKey", func(t *testing.T) {
		_, err := New(&Config{Model: "m"}, core.ClientOptions{})
		assert.True(t, llm.IsConfigParseError(err))
	})
}

func TestClient_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "Hi", gjson.GetBytes(body, "contents.0.parts.0.text").String())

		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello!"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":2,"totalTokenCount":4}}`)
	}))
	defer server.Close()

	client, err := New(&Config{APIKey: "secret", Endpoint: server.URL}, core.ClientOptions{})
	require.NoError(t, err)

	req, err := client.BuildRequest(context.Background(), []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")}, llm.GenericOptions{}, llm.Defaults{})
	require.NoError(t, err)

	reply, err := client.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply.Message)
	assert.Equal(t, uint32(4), *reply.TotalTokens)
}

func TestClient_ExecuteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"A\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"B\"}]},\"finishReason\":\"STOP\"}]}\n\n")
	}))
	defer server.Close()

	client, err := New(&Config{APIKey: "k", Endpoint: server.URL}, core.ClientOptions{})
	require.NoError(t, err)
	req, err := client.BuildRequest(context.Background(), []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
		llm.GenericOptions{Options: `{"stream": true}`}, llm.Defaults{})
	require.NoError(t, err)

	stream, err := client.ExecuteStream(context.Background(), req)
	require.NoError(t, err)

	var text string
	for r := range stream {
		require.NoError(t, r.Err)
		text += r.Reply.Message
	}
	assert.Equal(t, "AB", text)
}
