package gateway

import (
	"context"
	"sync"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// ═══════════════════════════════════════════════════════════════════════════
// 调用状态
// ═══════════════════════════════════════════════════════════════════════════

// State 调用状态
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

// String 返回字符串表示
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal 是否为终态
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// ═══════════════════════════════════════════════════════════════════════════
// 通知
// ═══════════════════════════════════════════════════════════════════════════

// NotificationKind 通知类型
type NotificationKind string

const (
	NotifyStart   NotificationKind = "start"
	NotifyData    NotificationKind = "data"
	NotifyDone    NotificationKind = "done"
	NotifyStopped NotificationKind = "stopped"
	NotifyError   NotificationKind = "error"
)

// IsTerminal 是否为终止通知
func (k NotificationKind) IsTerminal() bool {
	return k == NotifyDone || k == NotifyStopped || k == NotifyError
}

// ErrorPrefix 调用方展示错误消息时使用的前缀，用于和模型输出区分
const ErrorPrefix = "[error] "

// Notification 投递给 Sink 的通知
type Notification struct {
	CallID string           `json:"call_id"`
	Kind   NotificationKind `json:"kind"`

	// Text data 为增量文本，error 为原样的错误消息
	Text string `json:"text,omitempty"`

	// Reply done 时携带聚合后的回复（含用量）
	Reply *llm.Reply `json:"reply,omitempty"`
}

// Display 返回用于会话记录的文本，error 带 ErrorPrefix
func (n Notification) Display() string {
	if n.Kind == NotifyError {
		return ErrorPrefix + n.Text
	}
	return n.Text
}

// Sink 通知接收方
//
// Notify 失败时控制器会在本地重试一次，仍失败则丢弃该通知并记录日志。
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc 函数适配器
type SinkFunc func(ctx context.Context, n Notification) error

// Notify 实现 Sink 接口
func (f SinkFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// nopSink 丢弃所有通知
type nopSink struct{}

func (nopSink) Notify(context.Context, Notification) error { return nil }

// ═══════════════════════════════════════════════════════════════════════════
// 取消源
// ═══════════════════════════════════════════════════════════════════════════

// CancelSource 外部停止信号（如 UI 的停止按钮）
//
// Subscribe 注册监听器并返回注销函数；注销函数必须可以重复调用。
type CancelSource interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Signal 进程内的 CancelSource 实现
//
// Raise 通知当前所有监听器；之后注册的监听器不会收到之前的信号。
type Signal struct {
	mu        sync.Mutex
	next      uint64
	listeners map[uint64]func()
}

// NewSignal 创建停止信号
func NewSignal() *Signal {
	return &Signal{listeners: make(map[uint64]func())}
}

// Subscribe 实现 CancelSource 接口
func (s *Signal) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Raise 触发信号
func (s *Signal) Raise() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Listeners 返回当前注册的监听器数量
func (s *Signal) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// ═══════════════════════════════════════════════════════════════════════════
// 请求与结果
// ═══════════════════════════════════════════════════════════════════════════

// Request 一次聊天调用的输入，全部由设置存储以普通值提供
type Request struct {
	Config   llm.GenericConfig
	Options  llm.GenericOptions
	Proxy    *llm.ProxySetting
	Messages []llm.Message
	Defaults llm.Defaults
}

// Result 调用结果
type Result struct {
	CallID string
	State  State

	// Reply 聚合后的文本与最后一次上报的用量；失败或取消时为已收到的部分
	Reply llm.Reply

	// Err Failed 时的错误；Cancelled 时为 context.Canceled
	Err error
}

var (
	_ CancelSource = (*Signal)(nil)
	_ Sink         = SinkFunc(nil)
)
