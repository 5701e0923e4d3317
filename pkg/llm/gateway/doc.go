// Package gateway 负责一次聊天调用的执行与取消
//
// 每次调用按存储的配置解析出独立的 Provider 客户端，在后台 goroutine 中执行，
// 并把规范输出以通知的形式投递给调用方的 Sink：
//
//	start → data(text)* → done | stopped | error(message)
//
// 调用状态机：
//
//	Idle → Running → Completed | Cancelled | Failed
//
// [Controller.Prepare] 返回 Idle 状态的调用，[Call.Start] 将其切换到 Running；
// [Controller.Start] 两步合一。
// 终态互斥且只设置一次。进入 Running 时在 CancelSource 上注册一个监听器，
// 无论以何种终态退出都会注销。取消与自然完成竞争时，取消胜出会抑制 done 通知。
//
// 使用方式：
//
//	ctrl := gateway.New(gateway.WithLogger(logger))
//	stop := gateway.NewSignal()
//
//	call := ctrl.Start(ctx, gateway.Request{
//	    Config:   llm.GenericConfig{Provider: "openai", Config: `{"apiKey":"sk-xxx","model":"gpt-4o"}`},
//	    Options:  llm.GenericOptions{Options: `{"stream":true}`},
//	    Messages: history,
//	}, sink, stop)
//
//	// UI 的停止按钮
//	stop.Raise()
//
//	result := call.Wait()
package gateway
