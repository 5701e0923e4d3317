package core_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// ═══════════════════════════════════════════════════════════════════════════
// Mock 实现
// ═══════════════════════════════════════════════════════════════════════════

// mockConfig Mock 配置实现
type mockConfig struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

func (m *mockConfig) Validate() error {
	if m.apiKey == "" {
		return llm.NewConfigParseError(llm.ProviderCustom, "missing apiKey", nil)
	}
	return nil
}

func (m *mockConfig) GetDefaults() (string, time.Duration) {
	return m.baseURL, m.timeout
}

func (m *mockConfig) BuildHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + m.apiKey,
		"Content-Type":  "application/json",
		"X-Client":      "core-test",
	}
}

func (m *mockConfig) Kind() llm.ProviderKind {
	return llm.ProviderCustom
}

// mockParser 把响应体原样作为回复文本
type mockParser struct{}

func (mockParser) ParseResponse(body []byte) (*llm.Reply, error) {
	if len(body) == 0 {
		return nil, llm.NewEmptyMessageError(llm.ProviderCustom)
	}
	return &llm.Reply{Message: string(body)}, nil
}

// mockEndpoints 自定义端点
type mockEndpoints struct{}

func (mockEndpoints) BuildCompleteEndpoint() string { return "/v2/complete" }
func (mockEndpoints) BuildStreamEndpoint() string   { return "/v2/stream" }

func newTestClient(t *testing.T, baseURL string, opts core.ClientOptions) (*core.BaseClient, *atomic.Int32) {
	t.Helper()
	var decoders atomic.Int32
	client, err := core.NewBaseClient(
		&mockConfig{apiKey: "sk-test", baseURL: baseURL},
		mockParser{},
		func() core.StreamDecoder {
			decoders.Add(1)
			return core.NewSSEParser(llm.ProviderCustom, &mockEventHandler{stopOnData: "[DONE]"})
		},
		opts,
	)
	require.NoError(t, err)
	return client, &decoders
}

// ═══════════════════════════════════════════════════════════════════════════
// 构造
// ═══════════════════════════════════════════════════════════════════════════

func TestNewBaseClient(t *testing.T) {
	t.Run("配置校验失败", func(t *testing.T) {
		client, err := core.NewBaseClient(&mockConfig{}, mockParser{}, nil, core.ClientOptions{})
		assert.Nil(t, client)
		assert.True(t, llm.IsConfigParseError(err))
	})

	t.Run("默认 Nop 日志", func(t *testing.T) {
		client, _ := newTestClient(t, "http://127.0.0.1", core.ClientOptions{})
		assert.NotNil(t, client.Logger())
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// 阻塞执行
// ═══════════════════════════════════════════════════════════════════════════

func TestBaseClient_Execute(t *testing.T) {
	t.Run("请求体与请求头", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "override", r.Header.Get("X-Client"))

			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"model":"m","n":1}`, string(body))
			fmt.Fprint(w, "pong")
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, core.ClientOptions{Headers: map[string]string{"X-Client": "override"}})
		reply, err := client.Execute(context.Background(), &llm.WireRequest{Body: []byte(`{"model":"m","n":1}`)})

		require.NoError(t, err)
		assert.Equal(t, "pong", reply.Message)
	})

	t.Run("非 2xx 提取上游消息", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
		}))
		defer server.Close()

		obs, logs := observer.New(zapcore.WarnLevel)
		client, _ := newTestClient(t, server.URL, core.ClientOptions{Logger: zap.New(obs)})
		_, err := client.Execute(context.Background(), &llm.WireRequest{Body: []byte(`{}`)})

		upstream, ok := llm.GetUpstreamError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
		assert.Equal(t, "Incorrect API key provided", upstream.Detail)
		assert.Equal(t, llm.ProviderCustom, upstream.Provider)

		entries := logs.FilterMessage("upstream returned error status").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "custom", entries[0].ContextMap()["provider"])
	})

	t.Run("解析器错误原样返回", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, core.ClientOptions{})
		_, err := client.Execute(context.Background(), &llm.WireRequest{Body: []byte(`{}`)})
		assert.True(t, llm.IsEmptyMessageError(err))
	})

	t.Run("连接失败", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, _ := newTestClient(t, url, core.ClientOptions{})
		_, err := client.Execute(context.Background(), &llm.WireRequest{Body: []byte(`{}`)})

		require.True(t, llm.IsUpstreamError(err))
		assert.Equal(t, 0, llm.GetStatusCode(err))
	})

	t.Run("超时覆盖", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, core.ClientOptions{Timeout: 50 * time.Millisecond})
		start := time.Now()
		_, err := client.Execute(context.Background(), &llm.WireRequest{Body: []byte(`{}`)})

		assert.True(t, llm.IsUpstreamError(err))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("自定义端点", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, r.URL.Path)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, core.ClientOptions{})
		client.SetEndpointBuilder(mockEndpoints{})
		reply, err := client.Execute(context.Background(), &llm.WireRequest{Body: []byte(`{}`)})

		require.NoError(t, err)
		assert.Equal(t, "/v2/complete", reply.Message)
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式执行
// ═══════════════════════════════════════════════════════════════════════════

func TestBaseClient_ExecuteStream(t *testing.T) {
	t.Run("每个流使用新的解码器", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/stream", r.URL.Path)
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: a\n\ndata: b\n\ndata: [DONE]\n\n")
		}))
		defer server.Close()

		client, decoders := newTestClient(t, server.URL, core.ClientOptions{})
		client.SetEndpointBuilder(mockEndpoints{})

		for range 2 {
			stream, err := client.ExecuteStream(context.Background(), &llm.WireRequest{Body: []byte(`{}`), Stream: true})
			require.NoError(t, err)

			var got []string
			for r := range stream {
				require.NoError(t, r.Err)
				got = append(got, r.Reply.Message)
			}
			assert.Equal(t, []string{"a", "b"}, got)
		}
		assert.Equal(t, int32(2), decoders.Load())
	})

	t.Run("非 2xx 同步返回", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"rate limited"}`)
		}))
		defer server.Close()

		client, decoders := newTestClient(t, server.URL, core.ClientOptions{})
		stream, err := client.ExecuteStream(context.Background(), &llm.WireRequest{Body: []byte(`{}`), Stream: true})

		assert.Nil(t, stream)
		assert.Equal(t, http.StatusTooManyRequests, llm.GetStatusCode(err))
		assert.Contains(t, err.Error(), "rate limited")
		assert.Equal(t, int32(0), decoders.Load())
	})

	t.Run("取消释放连接", func(t *testing.T) {
		released := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "data: a\n\n")
			w.(http.Flusher).Flush()
			<-r.Context().Done()
			close(released)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, core.ClientOptions{})
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := client.ExecuteStream(ctx, &llm.WireRequest{Body: []byte(`{}`), Stream: true})
		require.NoError(t, err)

		first := <-stream
		assert.Equal(t, "a", first.Reply.Message)
		cancel()

		for range stream {
		}
		select {
		case <-released:
		case <-time.After(2 * time.Second):
			t.Fatal("connection not released")
		}
	})
}
