package llm

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// 角色定义
// ═══════════════════════════════════════════════════════════════════════════

// Role 消息角色
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// RoleFromInt 将存储层的整数角色转换为 Role
//
// 存储层约定：0=User, 1=Bot, 2=System。未知值返回 [InvalidRoleError]。
func RoleFromInt(v int) (Role, error) {
	switch v {
	case 0:
		return RoleUser, nil
	case 1:
		return RoleBot, nil
	case 2:
		return RoleSystem, nil
	default:
		return "", NewInvalidRoleError(v)
	}
}

// Int 返回存储层使用的整数值
func (r Role) Int() int {
	switch r {
	case RoleBot:
		return 1
	case RoleSystem:
		return 2
	default:
		return 0
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 内容块
// ═══════════════════════════════════════════════════════════════════════════

// PartType 内容块类型
type PartType string

const (
	PartTypeText  PartType = "text"
	PartTypeImage PartType = "image"
)

// ContentPart 消息内容块（文本或图片）
//
// 图片可以携带原始字节（Data），也可以只携带内容缓存中的引用（Ref）。
// 引用在构建请求时通过 [ContentResolver] 解析为 base64 / data URL。
type ContentPart struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
}

// TextPart 创建文本块
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart 创建内联字节图片块
func ImagePart(data []byte, mimeType string) ContentPart {
	return ContentPart{Type: PartTypeImage, Data: data, MimeType: mimeType}
}

// ImageRefPart 创建引用内容缓存的图片块
func ImageRefPart(ref, mimeType string) ContentPart {
	return ContentPart{Type: PartTypeImage, Ref: ref, MimeType: mimeType}
}

// IsText 是否为文本块
func (p ContentPart) IsText() bool { return p.Type == PartTypeText }

// IsImage 是否为图片块
func (p ContentPart) IsImage() bool { return p.Type == PartTypeImage }

// ═══════════════════════════════════════════════════════════════════════════
// 消息结构
// ═══════════════════════════════════════════════════════════════════════════

// Message 对话消息
type Message struct {
	Role    Role          `json:"role"`
	Content []ContentPart `json:"content"`
}

// NewTextMessage 创建纯文本消息
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentPart{TextPart(text)}}
}

// Text 拼接消息中的全部文本块
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// HasImages 检查消息是否包含图片块
func (m *Message) HasImages() bool {
	for _, p := range m.Content {
		if p.IsImage() {
			return true
		}
	}
	return false
}

// String 实现 fmt.Stringer，便于日志输出
func (m Message) String() string {
	return fmt.Sprintf("%s(%d parts)", m.Role, len(m.Content))
}
