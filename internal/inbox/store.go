package inbox

import (
	"context"
	"io"

	"message-center/internal/model"
	"message-center/pkg/inboxclient"
)

// Store 收件箱控制器依赖的消息存取契约
// pkg/inboxclient.Client 是生产实现，测试中用内存实现替代
type Store interface {
	// ListMessages 按方向获取消息列表，服务端保证按创建时间倒序
	ListMessages(ctx context.Context, direction string) ([]model.Message, error)
	// SendMessage 发送消息，服务端分配ID/时间并冗余双方身份
	SendMessage(ctx context.Context, req inboxclient.SendMessageRequest) (*model.Message, error)
	// MarkRead 标记消息为已读，重复标记为无操作
	MarkRead(ctx context.Context, messageID uint) error
	// DeleteMessage 物理删除消息
	DeleteMessage(ctx context.Context, messageID uint) error
	// UploadAttachment 上传附件并返回完整描述（暂存状态）
	UploadAttachment(ctx context.Context, filename string, content io.Reader, contentType string) (*model.Attachment, error)
	// ListUsers 获取用户目录，用于收件人解析
	ListUsers(ctx context.Context) ([]model.UserSummary, error)
	// UnreadCount 获取未读消息数量
	UnreadCount(ctx context.Context) (int64, error)
}
