package model

import (
	"time"
)

// 消息状态
// 仅有 unread/read 两种状态，接收者首次打开时一次性翻转
const (
	StatusUnread = "unread"
	StatusRead   = "read"
)

// 列表方向
const (
	DirectionInbox = "inbox" // 收件箱（receiver 为当前用户）
	DirectionSent  = "sent"  // 已发送（sender 为当前用户）
)

// Message 站内消息模型
// 发送方/接收方的姓名、邮箱、角色在写入时冗余保存，用户之后改名不影响历史消息
// ParentID 表示回复关系，ThreadID 仅作可选分组，回复不依赖它
// 删除为物理删除，不保留软删除字段

type Message struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	SenderID      uint         `gorm:"not null;index;comment:发送者ID" json:"senderId"`
	SenderName    string       `gorm:"type:varchar(64);not null;comment:发送者姓名" json:"senderName"`
	SenderEmail   string       `gorm:"type:varchar(128);comment:发送者邮箱" json:"senderEmail"`
	SenderRole    string       `gorm:"type:varchar(32);comment:发送者角色" json:"senderRole"`
	ReceiverID    uint         `gorm:"not null;index;comment:接收者ID" json:"receiverId"`
	ReceiverName  string       `gorm:"type:varchar(64);not null;comment:接收者姓名" json:"receiverName"`
	ReceiverEmail string       `gorm:"type:varchar(128);comment:接收者邮箱" json:"receiverEmail"`
	ReceiverRole  string       `gorm:"type:varchar(32);comment:接收者角色" json:"receiverRole"`
	Subject       string       `gorm:"type:varchar(255);not null;comment:主题" json:"subject"`
	Content       string       `gorm:"type:text;not null;comment:正文" json:"content"`
	ThreadID      *uint        `gorm:"index;comment:会话分组ID(可选)" json:"threadId"`
	ParentID      *uint        `gorm:"index;comment:被回复消息ID" json:"parentId"`
	Status        string       `gorm:"type:varchar(32);not null;default:'unread';comment:消息状态" json:"status"`
	CreatedAt     time.Time    `gorm:"comment:创建时间" json:"createdAt"`
	ReadAt        *time.Time   `gorm:"comment:首次阅读时间" json:"readAt"`
	Attachments   []Attachment `gorm:"foreignKey:MessageID" json:"attachments"`
}

func (Message) TableName() string { return "message" }

// IsUnread 消息是否未读
func (m *Message) IsUnread() bool { return m.Status == StatusUnread }
