package localmock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/core"
)

// CallRecord 记录一次请求构建的详情
type CallRecord struct {
	Messages []llm.Message
	Options  llm.GenericOptions
	Stream   bool
	Time     time.Time
}

// Client 脚本驱动的内存 Provider
//
// 实现 [llm.Client] 接口，不做任何网络 I/O，用于测试控制器与 CLI 演示。
type Client struct {
	mu      sync.Mutex
	script  *Script
	delay   time.Duration
	err     error
	calls   []CallRecord
	counter int
}

// Option 配置选项函数
type Option func(*Client)

// New 创建脚本客户端
//
// 无参数时使用内嵌的默认脚本。
//
//	client := localmock.New()
//	client := localmock.New(localmock.WithScriptFile("chat.yaml"))
//	client := localmock.New(localmock.WithTurns(localmock.Turn{Reply: "hi"}))
func New(opts ...Option) *Client {
	c := &Client{}

	if len(opts) == 0 {
		s, err := LoadDefaultScript()
		if err != nil {
			c.err = err
		}
		applyScript(c, s)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.script == nil {
		c.script = &Script{}
	}
	return c
}

// WithScript 使用脚本对象
func WithScript(s *Script) Option {
	return func(c *Client) {
		applyScript(c, s)
	}
}

// WithScriptFile 从文件加载脚本；加载失败时每次调用都返回该错误
func WithScriptFile(path string) Option {
	return func(c *Client) {
		s, err := LoadScriptFile(path)
		if err != nil {
			c.err = fmt.Errorf("load script file: %w", err)
			return
		}
		applyScript(c, s)
	}
}

// WithTurns 直接设置轮次
func WithTurns(turns ...Turn) Option {
	return func(c *Client) {
		if c.script == nil {
			c.script = &Script{}
		}
		c.script.Turns = turns
	}
}

// WithDelay 设置流式增量之间的间隔
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// WithError 设置每次调用都返回的错误
func WithError(err error) Option {
	return func(c *Client) {
		c.err = err
	}
}

// applyScript 应用脚本到客户端
func applyScript(c *Client, s *Script) {
	if s == nil {
		return
	}
	c.script = s
	if s.Delay != "" {
		if d, err := time.ParseDuration(s.Delay); err == nil {
			c.delay = d
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// llm.Client 接口实现
// ═══════════════════════════════════════════════════════════════════════════

// Kind 返回脚本声明的 Provider 类型，默认 custom
func (c *Client) Kind() llm.ProviderKind {
	if c.script.Provider == "" {
		return llm.ProviderCustom
	}
	return llm.ParseProviderKind(c.script.Provider)
}

// Model 返回脚本声明的模型名称
func (c *Client) Model() string {
	return c.script.Model
}

// BuildRequest 记录调用并生成请求体
//
// 请求体只用于日志与断言，不会离开进程。
func (c *Client) BuildRequest(
	_ context.Context,
	messages []llm.Message,
	opts llm.GenericOptions,
	_ llm.Defaults,
) (*llm.WireRequest, error) {
	var o struct {
		Stream bool `json:"stream"`
	}
	if err := core.ParseOptions(opts.Options, &o); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.counter++
	turn := c.counter
	c.calls = append(c.calls, CallRecord{
		Messages: messages,
		Options:  opts,
		Stream:   o.Stream,
		Time:     time.Now(),
	})
	c.mu.Unlock()

	body, err := core.Marshal(mockRequest{
		Model:  c.Model(),
		Turn:   turn,
		Input:  lastUserText(messages),
		Stream: o.Stream,
	})
	if err != nil {
		return nil, llm.NewRequestBuildError(err)
	}
	return &llm.WireRequest{Body: body, Stream: o.Stream}, nil
}

// mockRequest 脚本客户端的请求体
type mockRequest struct {
	Model  string `json:"model"`
	Turn   int    `json:"turn"`
	Input  string `json:"input"`
	Stream bool   `json:"stream"`
}

// Execute 返回当前轮次的完整回复
func (c *Client) Execute(ctx context.Context, req *llm.WireRequest) (*llm.Reply, error) {
	turn, data, err := c.next(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, llm.NewUpstreamError(c.Kind(), 0, err.Error(), err)
	}
	if turn.Error != "" {
		return nil, llm.NewUpstreamError(c.Kind(), 0, turn.Error, nil)
	}

	text := replyText(turn, data)
	if text == "" {
		return nil, llm.NewEmptyMessageError(c.Kind())
	}

	reply := &llm.Reply{Message: text}
	applyUsage(reply, turn.Usage)
	return reply, nil
}

// ExecuteStream 按脚本逐个投递增量
func (c *Client) ExecuteStream(ctx context.Context, req *llm.WireRequest) (<-chan llm.StreamResult, error) {
	turn, data, err := c.next(req)
	if err != nil {
		return nil, err
	}
	if turn.Error != "" {
		return nil, llm.NewUpstreamError(c.Kind(), 0, turn.Error, nil)
	}

	chunks := turn.Chunks
	if len(chunks) == 0 {
		chunks = splitWords(replyText(turn, data))
	}

	c.mu.Lock()
	delay := c.delay
	c.mu.Unlock()

	out := make(chan llm.StreamResult)
	go func() {
		defer close(out)

		for i, chunk := range chunks {
			if i > 0 && !sleep(ctx, delay) {
				return
			}
			if !core.Emit(ctx, out, llm.StreamResult{Reply: llm.Reply{Message: chunk}}) {
				return
			}
		}

		if turn.Hang {
			<-ctx.Done()
			return
		}

		if turn.StreamError != "" {
			core.Emit(ctx, out, llm.StreamResult{Err: llm.NewStreamTerminatedByProviderError("mock_error", turn.StreamError)})
			return
		}

		if turn.Usage != nil {
			r := llm.Reply{}
			applyUsage(&r, turn.Usage)
			core.Emit(ctx, out, llm.StreamResult{Reply: r})
		}
	}()

	return out, nil
}

// next 取出下一轮；脚本错误或 WithError 优先
func (c *Client) next(req *llm.WireRequest) (Turn, templateData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return Turn{}, templateData{}, c.err
	}

	var mr mockRequest
	if req != nil {
		_ = core.Unmarshal(req.Body, &mr)
	}
	data := templateData{Input: mr.Input, Turn: mr.Turn}

	if len(c.script.Turns) == 0 {
		return Turn{Reply: "This is a mock response."}, data, nil
	}
	idx := max(mr.Turn-1, 0) % len(c.script.Turns)
	return c.script.Turns[idx], data, nil
}

// replyText 渲染回复；只有 Chunks 时拼接增量
func replyText(turn Turn, data templateData) string {
	if turn.Reply != "" {
		return render(turn.Reply, data)
	}
	var text string
	for _, ch := range turn.Chunks {
		text += ch
	}
	return text
}

// applyUsage 脚本用量映射为回复用量
func applyUsage(r *llm.Reply, u *Usage) {
	if u == nil {
		return
	}
	r.PromptTokens = llm.Uint32(u.Prompt)
	r.CompletionTokens = llm.Uint32(u.Completion)
	r.TotalTokens = llm.Uint32(u.Prompt + u.Completion)
}

// sleep 等待 d，ctx 取消时返回 false
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 调用记录
// ═══════════════════════════════════════════════════════════════════════════

// Calls 返回全部调用记录
func (c *Client) Calls() []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CallRecord(nil), c.calls...)
}

// CallCount 返回调用次数
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// LastCall 返回最后一次调用记录
func (c *Client) LastCall() *CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return nil
	}
	last := c.calls[len(c.calls)-1]
	return &last
}

// Reset 清空调用记录，轮次从头开始
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
	c.counter = 0
}

// 确保 Client 实现了 llm.Client 接口
var _ llm.Client = (*Client)(nil)
