package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider/localmock"
)

// ═══════════════════════════════════════════════════════════════════════════
// 测试辅助
// ═══════════════════════════════════════════════════════════════════════════

// recorder 记录全部通知；onData 在每个 data 通知之后同步调用
type recorder struct {
	mu     sync.Mutex
	items  []Notification
	onData func(Notification)
}

func (r *recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	r.items = append(r.items, n)
	cb := r.onData
	r.mu.Unlock()

	if cb != nil && n.Kind == NotifyData {
		cb(n)
	}
	return nil
}

func (r *recorder) kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationKind, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.Kind)
	}
	return out
}

func (r *recorder) count(kind NotificationKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[len(r.items)-1]
}

func mockController(turns ...localmock.Turn) *Controller {
	return New(WithResolver(func(llm.GenericConfig, *llm.ProxySetting) (llm.Client, error) {
		return localmock.New(localmock.WithTurns(turns...)), nil
	}))
}

func chatRequest(options string) Request {
	return Request{
		Config:   llm.GenericConfig{Provider: "custom"},
		Options:  llm.GenericOptions{Options: options},
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
	}
}

const streamOn = `{"stream": true}`

// ═══════════════════════════════════════════════════════════════════════════
// 正常完成
// ═══════════════════════════════════════════════════════════════════════════

func TestController_Blocking(t *testing.T) {
	ctrl := mockController(localmock.Turn{Reply: "Hello there", Usage: &localmock.Usage{Prompt: 4, Completion: 2}})
	sink := &recorder{}

	result := ctrl.Run(context.Background(), chatRequest(""), sink, nil)

	require.NoError(t, result.Err)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "Hello there", result.Reply.Message)
	assert.Equal(t, uint32(6), *result.Reply.TotalTokens)
	assert.NotEmpty(t, result.CallID)

	assert.Equal(t, []NotificationKind{NotifyStart, NotifyData, NotifyDone}, sink.kinds())
	done := sink.last()
	require.NotNil(t, done.Reply)
	assert.Equal(t, "Hello there", done.Reply.Message)
	assert.Equal(t, result.CallID, done.CallID)
}

func TestController_Stream(t *testing.T) {
	ctrl := mockController(localmock.Turn{
		Chunks: []string{"Hi", " there"},
		Usage:  &localmock.Usage{Prompt: 5, Completion: 2},
	})
	sink := &recorder{}
	stop := NewSignal()

	result := ctrl.Run(context.Background(), chatRequest(streamOn), sink, stop)

	require.NoError(t, result.Err)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, "Hi there", result.Reply.Message)
	assert.Equal(t, uint32(5), *result.Reply.PromptTokens)
	assert.Equal(t, uint32(7), *result.Reply.TotalTokens)

	// 用量回复不产生空的 data 通知
	assert.Equal(t, []NotificationKind{NotifyStart, NotifyData, NotifyData, NotifyDone}, sink.kinds())
	assert.Equal(t, 0, stop.Listeners())
}

// ═══════════════════════════════════════════════════════════════════════════
// 取消
// ═══════════════════════════════════════════════════════════════════════════

func TestController_CancelAfterFirstReply(t *testing.T) {
	ctrl := mockController(localmock.Turn{Chunks: []string{"Hi", " there"}, Hang: true})
	stop := NewSignal()

	var listenersWhileRunning int
	sink := &recorder{}
	sink.onData = func(Notification) {
		listenersWhileRunning = stop.Listeners()
		stop.Raise()
	}

	call := ctrl.Start(context.Background(), chatRequest(streamOn), sink, stop)
	result := call.Wait()

	assert.Equal(t, StateCancelled, result.State)
	assert.Equal(t, StateCancelled, call.State())
	assert.ErrorIs(t, result.Err, context.Canceled)

	assert.Equal(t, 1, listenersWhileRunning)
	assert.Equal(t, 0, stop.Listeners())

	assert.Equal(t, 1, sink.count(NotifyStart))
	assert.Equal(t, 1, sink.count(NotifyStopped))
	assert.Equal(t, 0, sink.count(NotifyDone))
	assert.Equal(t, 0, sink.count(NotifyError))
	assert.Equal(t, NotifyStopped, sink.last().Kind)
	assert.Equal(t, "Hi", result.Reply.Message)
}

func TestController_Prepare(t *testing.T) {
	t.Run("Idle 到 Running 再到终态", func(t *testing.T) {
		ctrl := mockController(localmock.Turn{Reply: "Hello"})
		sink := &recorder{}
		stop := NewSignal()

		call := ctrl.Prepare(context.Background(), chatRequest(""), sink, stop)
		assert.Equal(t, StateIdle, call.State())
		assert.Empty(t, sink.kinds())
		assert.Equal(t, 0, stop.Listeners())

		require.True(t, call.Start())
		assert.False(t, call.Start())

		result := call.Wait()
		assert.Equal(t, StateCompleted, result.State)
		assert.Equal(t, "Hello", result.Reply.Message)
		assert.Equal(t, []NotificationKind{NotifyStart, NotifyData, NotifyDone}, sink.kinds())
		assert.False(t, call.Start())
	})

	t.Run("Idle 时取消，启动后以 Cancelled 结束", func(t *testing.T) {
		ctrl := mockController(localmock.Turn{Chunks: []string{"a"}, Hang: true})
		sink := &recorder{}

		call := ctrl.Prepare(context.Background(), chatRequest(streamOn), sink, nil)
		call.Cancel()
		assert.Equal(t, StateIdle, call.State())

		require.True(t, call.Start())
		result := call.Wait()
		assert.Equal(t, StateCancelled, result.State)
		assert.ErrorIs(t, result.Err, context.Canceled)
		assert.Equal(t, 0, sink.count(NotifyData))
		assert.Equal(t, NotifyStopped, sink.last().Kind)
	})
}

func TestController_CallCancel(t *testing.T) {
	ctrl := mockController(localmock.Turn{Chunks: []string{"a"}, Hang: true})
	sink := &recorder{}
	started := make(chan struct{})
	sink.onData = func(Notification) { close(started) }

	call := ctrl.Start(context.Background(), chatRequest(streamOn), sink, nil)
	assert.Equal(t, StateRunning, call.State())

	<-started
	call.Cancel()

	select {
	case <-call.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("call did not finish after cancel")
	}
	assert.Equal(t, StateCancelled, call.Wait().State)
	assert.Equal(t, []NotificationKind{NotifyStart, NotifyData, NotifyStopped}, sink.kinds())

	// 终态之后取消无效果
	call.Cancel()
	assert.Equal(t, StateCancelled, call.State())
}

func TestController_ParentContextCancelled(t *testing.T) {
	ctrl := mockController(localmock.Turn{Chunks: []string{"a"}, Hang: true})
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recorder{}
	sink.onData = func(Notification) { cancel() }

	result := ctrl.Run(ctx, chatRequest(streamOn), sink, nil)

	assert.Equal(t, StateCancelled, result.State)
	assert.Equal(t, NotifyStopped, sink.last().Kind)
}

func TestController_CancelAfterCompletion(t *testing.T) {
	ctrl := mockController(localmock.Turn{Reply: "ok"})
	stop := NewSignal()
	sink := &recorder{}

	result := ctrl.Run(context.Background(), chatRequest(""), sink, stop)
	stop.Raise()

	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, 1, sink.count(NotifyDone))
	assert.Equal(t, 0, sink.count(NotifyStopped))
}

// ═══════════════════════════════════════════════════════════════════════════
// 失败
// ═══════════════════════════════════════════════════════════════════════════

func TestController_Failures(t *testing.T) {
	t.Run("未知 Provider", func(t *testing.T) {
		stop := NewSignal()
		sink := &recorder{}
		result := New().Run(context.Background(), Request{Config: llm.GenericConfig{Provider: "cohere"}}, sink, stop)

		assert.Equal(t, StateFailed, result.State)
		assert.True(t, llm.IsUnsupportedProviderError(result.Err))
		assert.Equal(t, []NotificationKind{NotifyStart, NotifyError}, sink.kinds())
		assert.Equal(t, result.Err.Error(), sink.last().Text)
		assert.Equal(t, ErrorPrefix+result.Err.Error(), sink.last().Display())
		assert.Equal(t, 0, stop.Listeners())
	})

	t.Run("选项非法", func(t *testing.T) {
		sink := &recorder{}
		result := mockController(localmock.Turn{Reply: "x"}).Run(context.Background(), chatRequest("{not json"), sink, nil)

		assert.Equal(t, StateFailed, result.State)
		assert.True(t, llm.IsOptionsParseError(result.Err))
		assert.Equal(t, NotifyError, sink.last().Kind)
	})

	t.Run("上游错误", func(t *testing.T) {
		sink := &recorder{}
		result := mockController(localmock.Turn{Error: "quota exceeded"}).Run(context.Background(), chatRequest(""), sink, nil)

		assert.Equal(t, StateFailed, result.State)
		assert.True(t, llm.IsUpstreamError(result.Err))
		assert.Contains(t, sink.last().Text, "quota exceeded")
	})

	t.Run("流中途终止保留部分文本", func(t *testing.T) {
		sink := &recorder{}
		result := mockController(localmock.Turn{Chunks: []string{"par", "tial"}, StreamError: "overloaded"}).
			Run(context.Background(), chatRequest(streamOn), sink, nil)

		assert.Equal(t, StateFailed, result.State)
		assert.True(t, llm.IsStreamTerminatedByProviderError(result.Err))
		assert.Equal(t, "partial", result.Reply.Message)
		assert.Equal(t, []NotificationKind{NotifyStart, NotifyData, NotifyData, NotifyError}, sink.kinds())
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Sink 投递
// ═══════════════════════════════════════════════════════════════════════════

func TestController_SinkRetry(t *testing.T) {
	t.Run("失败一次后重试成功", func(t *testing.T) {
		obs, logs := observer.New(zapcore.WarnLevel)
		ctrl := New(
			WithLogger(zap.New(obs)),
			WithResolver(func(llm.GenericConfig, *llm.ProxySetting) (llm.Client, error) {
				return localmock.New(localmock.WithTurns(localmock.Turn{Reply: "ok"})), nil
			}),
		)

		var (
			mu       sync.Mutex
			attempts = map[NotificationKind]int{}
		)
		sink := SinkFunc(func(_ context.Context, n Notification) error {
			mu.Lock()
			defer mu.Unlock()
			attempts[n.Kind]++
			if attempts[n.Kind] == 1 {
				return errors.New("sink busy")
			}
			return nil
		})

		result := ctrl.Run(context.Background(), chatRequest(""), sink, nil)
		assert.Equal(t, StateCompleted, result.State)
		assert.Equal(t, 2, attempts[NotifyStart])
		assert.Equal(t, 2, attempts[NotifyData])
		assert.Equal(t, 2, attempts[NotifyDone])
		assert.Equal(t, 0, logs.FilterMessage("notification dropped").Len())
	})

	t.Run("重试仍失败则丢弃", func(t *testing.T) {
		obs, logs := observer.New(zapcore.WarnLevel)
		ctrl := New(
			WithLogger(zap.New(obs)),
			WithResolver(func(llm.GenericConfig, *llm.ProxySetting) (llm.Client, error) {
				return localmock.New(localmock.WithTurns(localmock.Turn{Reply: "ok"})), nil
			}),
		)

		var calls int
		sink := SinkFunc(func(context.Context, Notification) error {
			calls++
			return errors.New("sink gone")
		})

		result := ctrl.Run(context.Background(), chatRequest(""), sink, nil)
		assert.Equal(t, StateCompleted, result.State)
		assert.Equal(t, 6, calls)

		dropped := logs.FilterMessage("notification dropped").All()
		require.Len(t, dropped, 3)
		assert.Equal(t, "start", dropped[0].ContextMap()["kind"])
		assert.Equal(t, result.CallID, dropped[0].ContextMap()["call_id"])
	})

	t.Run("nil sink", func(t *testing.T) {
		result := mockController(localmock.Turn{Reply: "ok"}).Run(context.Background(), chatRequest(""), nil, nil)
		assert.Equal(t, StateCompleted, result.State)
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// 经由 HTTP 的端到端调用
// ═══════════════════════════════════════════════════════════════════════════

func TestController_HTTPStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2,\"total_tokens\":5}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	req := chatRequest(streamOn)
	req.Config = llm.GenericConfig{Provider: "custom", Config: fmt.Sprintf(`{"endpoint": %q, "model": "m"}`, server.URL)}

	sink := &recorder{}
	result := New().Run(context.Background(), req, sink, nil)

	require.NoError(t, result.Err)
	assert.Equal(t, "Hello", result.Reply.Message)
	assert.Equal(t, uint32(5), *result.Reply.TotalTokens)
	assert.Equal(t, []NotificationKind{NotifyStart, NotifyData, NotifyData, NotifyDone}, sink.kinds())
}

func TestController_HTTPCancelReleasesConnection(t *testing.T) {
	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		w.(http.Flusher).Flush()

		<-r.Context().Done()
		close(released)
	}))
	defer server.Close()

	req := chatRequest(streamOn)
	req.Config = llm.GenericConfig{Provider: "custom", Config: fmt.Sprintf(`{"endpoint": %q, "model": "m"}`, server.URL)}

	stop := NewSignal()
	sink := &recorder{}
	sink.onData = func(Notification) { stop.Raise() }

	result := New().Run(context.Background(), req, sink, stop)
	assert.Equal(t, StateCancelled, result.State)
	assert.Equal(t, 1, sink.count(NotifyStopped))
	assert.Equal(t, 0, sink.count(NotifyDone))
	assert.Equal(t, 0, stop.Listeners())

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream connection not released")
	}
}
