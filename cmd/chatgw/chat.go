package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/lwmacct/251218-go-pkg-chatgw/internal/logger"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/gateway"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider"
	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm/provider/localmock"
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send one prompt and print the reply",
	Long: `Send one prompt to the configured provider and print the reply.

Press Ctrl-C while a reply is streaming to stop it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	flags := chatCmd.Flags()
	flags.Bool("stream", false, "stream the reply")
	flags.String("system", "", "system prompt")
	flags.StringSlice("image", nil, "attach an image file (repeatable)")
	flags.Bool("mock", false, "use the built-in scripted provider")
	flags.String("script", "", "use a scripted provider loaded from a YAML/JSON file")
	flags.Bool("usage", false, "print token usage to stderr")

	_ = viper.BindPFlag("system", flags.Lookup("system"))
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	req, err := buildRequest(cmd, cfg, args)
	if err != nil {
		return err
	}

	ctrl, err := newController(cmd, cfg, log)
	if err != nil {
		return err
	}

	stop := gateway.NewSignal()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			stop.Raise()
		}
	}()

	out := cmd.OutOrStdout()
	showUsage, _ := cmd.Flags().GetBool("usage")
	result := ctrl.Run(cmd.Context(), req, newPrintSink(out, cmd.ErrOrStderr(), showUsage), stop)

	if result.State == gateway.StateFailed {
		return errors.New("chat failed")
	}
	return nil
}

// newController 根据标志选择真实 Provider 或脚本 Provider
func newController(cmd *cobra.Command, cfg *Config, log *zap.Logger) (*gateway.Controller, error) {
	opts := []gateway.Option{gateway.WithLogger(log)}

	mock, _ := cmd.Flags().GetBool("mock")
	script, _ := cmd.Flags().GetString("script")
	switch {
	case script != "":
		opts = append(opts, gateway.WithResolver(func(llm.GenericConfig, *llm.ProxySetting) (llm.Client, error) {
			return localmock.New(localmock.WithScriptFile(script)), nil
		}))
	case mock:
		opts = append(opts, gateway.WithResolver(func(llm.GenericConfig, *llm.ProxySetting) (llm.Client, error) {
			return localmock.New(), nil
		}))
	}

	popts := []provider.Option{provider.WithContentResolver(fileResolver)}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
		popts = append(popts, provider.WithTimeout(d))
	}
	opts = append(opts, gateway.WithProviderOptions(popts...))

	return gateway.New(opts...), nil
}

// buildRequest 由配置和命令行参数构建网关请求
func buildRequest(cmd *cobra.Command, cfg *Config, args []string) (gateway.Request, error) {
	gc, err := cfg.GenericConfig()
	if err != nil {
		return gateway.Request{}, err
	}
	opts, err := cfg.GenericOptions()
	if err != nil {
		return gateway.Request{}, err
	}

	if cmd.Flags().Changed("stream") {
		stream, _ := cmd.Flags().GetBool("stream")
		if opts.Options, err = setStream(opts.Options, stream); err != nil {
			return gateway.Request{}, err
		}
	}

	var messages []llm.Message
	if cfg.System != "" {
		messages = append(messages, llm.NewTextMessage(llm.RoleSystem, cfg.System))
	}

	user := llm.NewTextMessage(llm.RoleUser, strings.Join(args, " "))
	images, _ := cmd.Flags().GetStringSlice("image")
	for _, path := range images {
		user.Content = append(user.Content, llm.ImageRefPart(path, ""))
	}
	messages = append(messages, user)

	return gateway.Request{
		Config:   gc,
		Options:  opts,
		Proxy:    &cfg.Proxy,
		Messages: messages,
		Defaults: cfg.Defaults,
	}, nil
}

// setStream 覆盖选项 JSON 中的 stream 字段
func setStream(options string, stream bool) (string, error) {
	if strings.TrimSpace(options) == "" {
		options = "{}"
	}
	out, err := sjson.Set(options, "stream", stream)
	if err != nil {
		return "", fmt.Errorf("options: %w", err)
	}
	return out, nil
}

// fileResolver 把图片引用当作本地文件路径解析
var fileResolver = llm.ContentResolverFunc(func(_ context.Context, ref, mimeType string) (string, string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", "", err
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType, base64.StdEncoding.EncodeToString(data), nil
})

// ═══════════════════════════════════════════════════════════════════════════
// 输出
// ═══════════════════════════════════════════════════════════════════════════

// newPrintSink 把通知写到终端
func newPrintSink(out, errOut io.Writer, showUsage bool) gateway.Sink {
	return gateway.SinkFunc(func(_ context.Context, n gateway.Notification) error {
		var err error
		switch n.Kind {
		case gateway.NotifyData:
			_, err = io.WriteString(out, n.Text)
		case gateway.NotifyDone:
			_, err = fmt.Fprintln(out)
			if err == nil && showUsage && n.Reply != nil && n.Reply.HasUsage() {
				_, err = fmt.Fprintf(errOut, "usage: prompt=%s completion=%s total=%s\n",
					count(n.Reply.PromptTokens), count(n.Reply.CompletionTokens), count(n.Reply.TotalTokens))
			}
		case gateway.NotifyStopped:
			_, err = fmt.Fprintln(out, "\n[stopped]")
		case gateway.NotifyError:
			_, err = fmt.Fprintln(errOut, n.Display())
		}
		return err
	})
}

func count(v *uint32) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
