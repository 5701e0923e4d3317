package gateway

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider"
)

// ═══════════════════════════════════════════════════════════════════════════
// 控制器
// ═══════════════════════════════════════════════════════════════════════════

// ResolveFunc 把存储的配置解析为客户端，每次调用都会调用一次
type ResolveFunc func(cfg llm.GenericConfig, proxy *llm.ProxySetting) (llm.Client, error)

// Controller 执行与取消控制器
//
// Controller 本身无可变状态，可以被并发调用；每次调用的状态都在 [Call] 中。
type Controller struct {
	resolve      ResolveFunc
	logger       *zap.Logger
	providerOpts []provider.Option
}

// Option 配置选项函数
type Option func(*Controller)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithResolver 替换客户端解析函数（默认 provider.Resolve）
func WithResolver(fn ResolveFunc) Option {
	return func(c *Controller) {
		c.resolve = fn
	}
}

// WithProviderOptions 传给默认解析函数的选项
func WithProviderOptions(opts ...provider.Option) Option {
	return func(c *Controller) {
		c.providerOpts = append(c.providerOpts, opts...)
	}
}

// New 创建控制器
func New(opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.resolve == nil {
		popts := append([]provider.Option{provider.WithLogger(c.logger)}, c.providerOpts...)
		c.resolve = func(cfg llm.GenericConfig, proxy *llm.ProxySetting) (llm.Client, error) {
			return provider.Resolve(cfg, proxy, popts...)
		}
	}
	return c
}

// Prepare 创建一次调用但不启动，返回的 Call 处于 Idle
//
// 调用 [Call.Start] 后才会执行；未启动的调用 Wait 会一直阻塞。
// sink 与 cancel 可以为 nil。ctx 被取消等同于触发停止信号。
func (c *Controller) Prepare(ctx context.Context, req Request, sink Sink, cancel CancelSource) *Call {
	if sink == nil {
		sink = nopSink{}
	}

	callCtx, abort := context.WithCancel(ctx)
	call := &Call{
		id:    uuid.NewString(),
		abort: abort,
		done:  make(chan struct{}),
	}
	call.state.Store(int32(StateIdle))
	call.launch = func() {
		go c.run(callCtx, call, req, sink, cancel)
	}
	return call
}

// Start 启动一次调用并立即返回，返回的 Call 处于 Running
func (c *Controller) Start(ctx context.Context, req Request, sink Sink, cancel CancelSource) *Call {
	call := c.Prepare(ctx, req, sink, cancel)
	call.Start()
	return call
}

// Run 执行一次调用并等待结束
func (c *Controller) Run(ctx context.Context, req Request, sink Sink, cancel CancelSource) Result {
	return c.Start(ctx, req, sink, cancel).Wait()
}

// run 调用的后台任务
func (c *Controller) run(ctx context.Context, call *Call, req Request, sink Sink, cancel CancelSource) {
	defer close(call.done)
	defer call.abort()

	logger := c.logger.With(
		zap.String("call_id", call.id),
		zap.String("provider", req.Config.Provider),
	)

	if cancel != nil {
		unsubscribe := cancel.Subscribe(call.Cancel)
		defer unsubscribe()
	}

	n := &notifier{
		ctx:    context.WithoutCancel(ctx),
		callID: call.id,
		sink:   sink,
		logger: logger,
	}
	n.send(Notification{Kind: NotifyStart})
	logger.Debug("call started", zap.Int("messages", len(req.Messages)))

	reply, err := c.execute(ctx, req, func(text string) {
		if ctx.Err() == nil {
			n.send(Notification{Kind: NotifyData, Text: text})
		}
	})

	result := Result{CallID: call.id, Reply: reply}
	switch {
	case call.cancelRequested.Load() || ctx.Err() != nil:
		result.State = StateCancelled
		result.Err = context.Canceled
	case err != nil:
		result.State = StateFailed
		result.Err = err
	default:
		result.State = StateCompleted
	}

	if !call.finish(result.State) {
		// 终态只能设置一次
		logger.Error("call already finished", zap.Stringer("state", call.State()))
		return
	}
	call.result = result

	switch result.State {
	case StateCancelled:
		logger.Info("call cancelled", zap.Int("received", len(reply.Message)))
		n.send(Notification{Kind: NotifyStopped})
	case StateFailed:
		logger.Warn("call failed", zap.Error(err))
		n.send(Notification{Kind: NotifyError, Text: err.Error()})
	default:
		logger.Debug("call completed", zap.Int("length", len(reply.Message)))
		final := reply
		n.send(Notification{Kind: NotifyDone, Reply: &final})
	}
}

// execute 解析客户端并执行；返回聚合后的回复
func (c *Controller) execute(ctx context.Context, req Request, onText func(string)) (llm.Reply, error) {
	var agg llm.Reply

	client, err := c.resolve(req.Config, req.Proxy)
	if err != nil {
		return agg, err
	}

	wire, err := client.BuildRequest(ctx, req.Messages, req.Options, req.Defaults)
	if err != nil {
		return agg, err
	}

	if !wire.Stream {
		reply, err := client.Execute(ctx, wire)
		if err != nil {
			return agg, err
		}
		onText(reply.Message)
		return *reply, nil
	}

	stream, err := client.ExecuteStream(ctx, wire)
	if err != nil {
		return agg, err
	}

	for {
		select {
		case <-ctx.Done():
			return agg, ctx.Err()
		case r, ok := <-stream:
			if !ok {
				return agg, nil
			}
			if ctx.Err() != nil {
				return agg, ctx.Err()
			}
			if r.Err != nil {
				return agg, r.Err
			}
			merge(&agg, r.Reply)
			if r.Reply.Message != "" {
				onText(r.Reply.Message)
			}
		}
	}
}

// merge 追加增量文本，用量以最后一次上报为准
func merge(agg *llm.Reply, delta llm.Reply) {
	agg.Message += delta.Message
	if delta.HasUsage() {
		agg.PromptTokens = delta.PromptTokens
		agg.CompletionTokens = delta.CompletionTokens
		agg.TotalTokens = delta.TotalTokens
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 调用句柄
// ═══════════════════════════════════════════════════════════════════════════

// Call 一次进行中的调用
type Call struct {
	id              string
	state           atomic.Int32
	cancelRequested atomic.Bool
	abort           context.CancelFunc
	launch          func()
	done            chan struct{}
	result          Result
}

// ID 调用 ID（uuid）
func (c *Call) ID() string {
	return c.id
}

// State 当前状态
func (c *Call) State() State {
	return State(c.state.Load())
}

// Start Idle → Running 并在后台执行；只有第一次调用生效
func (c *Call) Start() bool {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return false
	}
	c.launch()
	return true
}

// Cancel 请求取消，立即中止进行中的请求；终态之后调用无效果
//
// Idle 状态下取消的调用启动后直接以 Cancelled 结束。
func (c *Call) Cancel() {
	if c.State().IsTerminal() {
		return
	}
	c.cancelRequested.Store(true)
	c.abort()
}

// Done 调用结束时关闭
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait 等待调用结束并返回结果
func (c *Call) Wait() Result {
	<-c.done
	return c.result
}

// finish Running → 终态
func (c *Call) finish(s State) bool {
	return c.state.CompareAndSwap(int32(StateRunning), int32(s))
}

// ═══════════════════════════════════════════════════════════════════════════
// 通知投递
// ═══════════════════════════════════════════════════════════════════════════

// notifier 带一次本地重试的通知投递
type notifier struct {
	ctx    context.Context
	callID string
	sink   Sink
	logger *zap.Logger
}

// send 投递通知；重试一次后仍失败则丢弃
func (n *notifier) send(msg Notification) {
	msg.CallID = n.callID

	err := n.sink.Notify(n.ctx, msg)
	if err == nil {
		return
	}
	n.logger.Debug("notification failed, retrying", zap.String("kind", string(msg.Kind)), zap.Error(err))

	if err = n.sink.Notify(n.ctx, msg); err != nil {
		n.logger.Warn("notification dropped", zap.String("kind", string(msg.Kind)), zap.Error(err))
	}
}
