package core

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lwmacct/251218-go-pkg-chatgw/pkg/llm"
)

// ═══════════════════════════════════════════════════════════════════════════
// 图片内容解析
// ═══════════════════════════════════════════════════════════════════════════

// ImageResolver 将图片块物化为 base64 / data URL
//
// 内联字节直接编码；引用通过内容缓存解析。
// 任何失败都降级为空内容，不会中止请求。
type ImageResolver struct {
	resolver llm.ContentResolver
	logger   *zap.Logger
}

// NewImageResolver 创建图片解析器，resolver 可以为 nil
func NewImageResolver(resolver llm.ContentResolver, logger *zap.Logger) *ImageResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageResolver{resolver: resolver, logger: logger}
}

// Base64 返回 (mimetype, 纯 base64)；失败时 base64 为空
func (r *ImageResolver) Base64(ctx context.Context, part llm.ContentPart) (string, string) {
	mime, payload := r.resolve(ctx, part)
	return mime, stripDataURL(payload)
}

// DataURL 返回 data:<mime>;base64,<data>；失败时为空字符串
func (r *ImageResolver) DataURL(ctx context.Context, part llm.ContentPart) string {
	mime, payload := r.resolve(ctx, part)
	if payload == "" || strings.HasPrefix(payload, "data:") {
		return payload
	}
	return "data:" + mime + ";base64," + payload
}

func (r *ImageResolver) resolve(ctx context.Context, part llm.ContentPart) (string, string) {
	mime := part.MimeType

	if len(part.Data) > 0 {
		if mime == "" {
			mime = http.DetectContentType(part.Data)
		}
		return mime, base64.StdEncoding.EncodeToString(part.Data)
	}

	if part.Ref == "" || r.resolver == nil {
		r.logger.Debug("image part has no data and no resolver, sending empty payload", zap.String("ref", part.Ref))
		return mime, ""
	}

	resolvedMime, payload, err := r.resolver.Resolve(ctx, part.Ref, part.MimeType)
	if err != nil {
		r.logger.Warn("content cache miss, sending empty image payload", zap.String("ref", part.Ref), zap.Error(err))
		return mime, ""
	}
	if resolvedMime != "" {
		mime = resolvedMime
	}
	return mime, payload
}

// stripDataURL 去掉 data URL 前缀，只保留 base64 部分
func stripDataURL(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if _, after, ok := strings.Cut(payload, ","); ok {
		return after
	}
	return ""
}
