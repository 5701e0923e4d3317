package core

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// ═══════════════════════════════════════════════════════════════════════════
// 代理感知的 HTTP 传输
// ═══════════════════════════════════════════════════════════════════════════

// NewTransport 根据代理设置构建 HTTP 传输
//
// 代理规则：
//   - proxy 为 nil 或未启用：直连
//   - HTTP 与 HTTPS 同时为 true 或同时为 false：所有请求走代理
//   - 只有 HTTP：仅 http:// 请求走代理
//   - 只有 HTTPS：仅 https:// 请求走代理
//
// 代理构建失败不是致命错误：记录警告并回退为直连。
func NewTransport(proxy *llm.ProxySetting, logger *zap.Logger) *http.Transport {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := defaultTransport()
	if proxy == nil || !proxy.Enabled {
		return t
	}

	fn, err := proxyFunc(proxy)
	if err != nil {
		logger.Warn("proxy setting ignored, using direct connection",
			zap.String("proxy", proxy.URL), zap.Error(err))
		return t
	}

	t.Proxy = fn
	return t
}

// proxyFunc 构建按 scheme 过滤的代理函数
func proxyFunc(proxy *llm.ProxySetting) (func(*http.Request) (*url.URL, error), error) {
	if proxy.URL == "" {
		return nil, errors.New("proxy url is empty")
	}

	u, err := url.Parse(proxy.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("proxy url must include scheme and host")
	}

	all := proxy.HTTP == proxy.HTTPS
	return func(req *http.Request) (*url.URL, error) {
		if all {
			return u, nil
		}
		switch req.URL.Scheme {
		case "http":
			if proxy.HTTP {
				return u, nil
			}
		case "https":
			if proxy.HTTPS {
				return u, nil
			}
		}
		return nil, nil
	}, nil
}

// defaultTransport 返回 http.DefaultTransport 的克隆，不使用环境变量代理
func defaultTransport() *http.Transport {
	base, _ := http.DefaultTransport.(*http.Transport)
	if base == nil {
		return &http.Transport{}
	}
	t := base.Clone()
	t.Proxy = nil
	t.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return t
}
