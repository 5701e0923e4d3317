package llm

import (
	"errors"
	"fmt"
)

// ═══════════════════════════════════════════════════════════════════════════
// 错误类型
// ═══════════════════════════════════════════════════════════════════════════

// ErrorType 错误类型
type ErrorType string

const (
	ErrTypeConfigParse         ErrorType = "config_parse_error"
	ErrTypeUnsupportedProvider ErrorType = "unsupported_provider"
	ErrTypeModelNotSet         ErrorType = "model_not_set"
	ErrTypeOptionsParse        ErrorType = "options_parse_error"
	ErrTypeClaudeSystemMessage ErrorType = "claude_system_message_unsupported"
	ErrTypeEmptyChoices        ErrorType = "empty_choices"
	ErrTypeEmptyMessage        ErrorType = "empty_message"
	ErrTypeUpstream            ErrorType = "upstream_error"
	ErrTypeStreamDecode        ErrorType = "stream_decode_error"
	ErrTypeStreamTerminated    ErrorType = "stream_terminated_by_provider"
	ErrTypeInvalidRole         ErrorType = "invalid_role"
	ErrTypeRequestBuild        ErrorType = "request_build_error"
)

// ═══════════════════════════════════════════════════════════════════════════
// 基础错误
// ═══════════════════════════════════════════════════════════════════════════

// BaseError 基础错误实现
type BaseError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *BaseError) Unwrap() error {
	return e.Err
}

// ═══════════════════════════════════════════════════════════════════════════
// 配置解析阶段
// ═══════════════════════════════════════════════════════════════════════════

// ConfigParseError 存储的配置 JSON 与 Provider 期望的结构不匹配
type ConfigParseError struct {
	*BaseError

	Provider ProviderKind
}

// NewConfigParseError 创建配置解析错误
func NewConfigParseError(provider ProviderKind, message string, err error) *ConfigParseError {
	return &ConfigParseError{
		BaseError: &BaseError{
			Type:    ErrTypeConfigParse,
			Message: fmt.Sprintf("%s config: %s", provider, message),
			Err:     err,
		},
		Provider: provider,
	}
}

// UnsupportedProviderError 未知 Provider
type UnsupportedProviderError struct {
	*BaseError

	Provider string
}

// NewUnsupportedProviderError 创建未知 Provider 错误
func NewUnsupportedProviderError(provider string) *UnsupportedProviderError {
	return &UnsupportedProviderError{
		BaseError: &BaseError{
			Type:    ErrTypeUnsupportedProvider,
			Message: fmt.Sprintf("provider %q is not supported", provider),
		},
		Provider: provider,
	}
}

// ModelNotSetError 需要模型的 Provider 未配置模型
type ModelNotSetError struct {
	*BaseError

	Provider ProviderKind
}

// NewModelNotSetError 创建模型未设置错误
func NewModelNotSetError(provider ProviderKind) *ModelNotSetError {
	return &ModelNotSetError{
		BaseError: &BaseError{
			Type:    ErrTypeModelNotSet,
			Message: fmt.Sprintf("model is not set for provider %s", provider),
		},
		Provider: provider,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 请求构建阶段
// ═══════════════════════════════════════════════════════════════════════════

// OptionsParseError 会话选项 JSON 解析失败
type OptionsParseError struct {
	*BaseError

	// Raw 原始选项字符串
	Raw string
}

// NewOptionsParseError 创建选项解析错误
func NewOptionsParseError(raw string, err error) *OptionsParseError {
	return &OptionsParseError{
		BaseError: &BaseError{
			Type:    ErrTypeOptionsParse,
			Message: fmt.Sprintf("invalid options %q", raw),
			Err:     err,
		},
		Raw: raw,
	}
}

// ClaudeSystemMessageUnsupportedError Claude 消息数组中出现 system 角色
type ClaudeSystemMessageUnsupportedError struct {
	*BaseError

	Index int
}

// NewClaudeSystemMessageUnsupportedError 创建 Claude system 消息错误
func NewClaudeSystemMessageUnsupportedError(index int) *ClaudeSystemMessageUnsupportedError {
	return &ClaudeSystemMessageUnsupportedError{
		BaseError: &BaseError{
			Type:    ErrTypeClaudeSystemMessage,
			Message: fmt.Sprintf("message %d has role system; claude takes the system prompt as a separate field", index),
		},
		Index: index,
	}
}

// RequestBuildError 请求体序列化失败
type RequestBuildError struct {
	*BaseError
}

// NewRequestBuildError 创建请求构建错误
func NewRequestBuildError(err error) *RequestBuildError {
	return &RequestBuildError{
		BaseError: &BaseError{
			Type:    ErrTypeRequestBuild,
			Message: "failed to build request",
			Err:     err,
		},
	}
}

// InvalidRoleError 未知的整数角色
type InvalidRoleError struct {
	*BaseError

	Value int
}

// NewInvalidRoleError 创建角色错误
func NewInvalidRoleError(v int) *InvalidRoleError {
	return &InvalidRoleError{
		BaseError: &BaseError{
			Type:    ErrTypeInvalidRole,
			Message: fmt.Sprintf("unknown role value %d", v),
		},
		Value: v,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 响应阶段
// ═══════════════════════════════════════════════════════════════════════════

// EmptyChoicesError 上游返回 0 个 choice
type EmptyChoicesError struct {
	*BaseError
}

// NewEmptyChoicesError 创建空 choices 错误
func NewEmptyChoicesError(provider ProviderKind) *EmptyChoicesError {
	return &EmptyChoicesError{
		BaseError: &BaseError{
			Type:    ErrTypeEmptyChoices,
			Message: fmt.Sprintf("%s returned no choices", provider),
		},
	}
}

// EmptyMessageError 选中的 choice 没有文本内容
type EmptyMessageError struct {
	*BaseError
}

// NewEmptyMessageError 创建空消息错误
func NewEmptyMessageError(provider ProviderKind) *EmptyMessageError {
	return &EmptyMessageError{
		BaseError: &BaseError{
			Type:    ErrTypeEmptyMessage,
			Message: fmt.Sprintf("%s returned a message without text content", provider),
		},
	}
}

// UpstreamError 传输层失败（连接失败、非 2xx、响应反序列化失败）
type UpstreamError struct {
	*BaseError

	Provider   ProviderKind
	StatusCode int    // 0 表示未收到 HTTP 响应
	Detail     string // Provider 返回的错误消息
}

// NewUpstreamError 创建上游错误
func NewUpstreamError(provider ProviderKind, statusCode int, detail string, err error) *UpstreamError {
	var msg string
	switch {
	case statusCode > 0:
		msg = fmt.Sprintf("%s returned status %d: %s", provider, statusCode, detail)
	case detail != "":
		msg = fmt.Sprintf("%s: %s", provider, detail)
	default:
		msg = fmt.Sprintf("%s request failed", provider)
	}
	return &UpstreamError{
		BaseError: &BaseError{
			Type:    ErrTypeUpstream,
			Message: msg,
			Err:     err,
		},
		Provider:   provider,
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 流式阶段
// ═══════════════════════════════════════════════════════════════════════════

// StreamDecodeError 流中出现无法解析的块或事件
type StreamDecodeError struct {
	*BaseError

	// Chunk 出错的原始数据
	Chunk string
}

// NewStreamDecodeError 创建流解码错误
func NewStreamDecodeError(chunk string, err error) *StreamDecodeError {
	return &StreamDecodeError{
		BaseError: &BaseError{
			Type:    ErrTypeStreamDecode,
			Message: "malformed stream chunk",
			Err:     err,
		},
		Chunk: chunk,
	}
}

// StreamTerminatedByProviderError 上游显式发送 error 事件
type StreamTerminatedByProviderError struct {
	*BaseError

	Kind string // 上游错误类型，如 overloaded_error
}

// NewStreamTerminatedByProviderError 创建上游终止错误
func NewStreamTerminatedByProviderError(kind, message string) *StreamTerminatedByProviderError {
	return &StreamTerminatedByProviderError{
		BaseError: &BaseError{
			Type:    ErrTypeStreamTerminated,
			Message: message,
		},
		Kind: kind,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 错误匹配函数（支持 errors.Is/As）
// ═══════════════════════════════════════════════════════════════════════════

// IsConfigParseError 检查是否为配置解析错误
func IsConfigParseError(err error) bool {
	var e *ConfigParseError
	return errors.As(err, &e)
}

// IsUnsupportedProviderError 检查是否为未知 Provider 错误
func IsUnsupportedProviderError(err error) bool {
	var e *UnsupportedProviderError
	return errors.As(err, &e)
}

// IsModelNotSetError 检查是否为模型未设置错误
func IsModelNotSetError(err error) bool {
	var e *ModelNotSetError
	return errors.As(err, &e)
}

// IsOptionsParseError 检查是否为选项解析错误
func IsOptionsParseError(err error) bool {
	var e *OptionsParseError
	return errors.As(err, &e)
}

// IsClaudeSystemMessageUnsupportedError 检查是否为 Claude system 消息错误
func IsClaudeSystemMessageUnsupportedError(err error) bool {
	var e *ClaudeSystemMessageUnsupportedError
	return errors.As(err, &e)
}

// IsEmptyChoicesError 检查是否为空 choices 错误
func IsEmptyChoicesError(err error) bool {
	var e *EmptyChoicesError
	return errors.As(err, &e)
}

// IsEmptyMessageError 检查是否为空消息错误
func IsEmptyMessageError(err error) bool {
	var e *EmptyMessageError
	return errors.As(err, &e)
}

// IsUpstreamError 检查是否为上游错误
func IsUpstreamError(err error) bool {
	var e *UpstreamError
	return errors.As(err, &e)
}

// IsStreamDecodeError 检查是否为流解码错误
func IsStreamDecodeError(err error) bool {
	var e *StreamDecodeError
	return errors.As(err, &e)
}

// IsStreamTerminatedByProviderError 检查是否为上游终止错误
func IsStreamTerminatedByProviderError(err error) bool {
	var e *StreamTerminatedByProviderError
	return errors.As(err, &e)
}

// IsInvalidRoleError 检查是否为未知角色错误
func IsInvalidRoleError(err error) bool {
	var e *InvalidRoleError
	return errors.As(err, &e)
}

// GetUpstreamError 提取 UpstreamError（如果存在）
func GetUpstreamError(err error) (*UpstreamError, bool) {
	var e *UpstreamError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetStatusCode 提取 HTTP 状态码（如果是上游错误）
func GetStatusCode(err error) int {
	if e, ok := GetUpstreamError(err); ok {
		return e.StatusCode
	}
	return 0
}
