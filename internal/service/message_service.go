package service

import (
	"strings"
	"time"

	"message-center/internal/model"
	"message-center/internal/repository"
	"message-center/pkg/apperr"
	"message-center/pkg/redis"
)

// MessageService 消息服务
// 负责发送校验、身份冗余、已读翻转与未读计数同步
type MessageService struct {
	messageRepo *repository.MessageRepository
	userRepo    *repository.UserRepository
}

// NewMessageService 创建MessageService实例
func NewMessageService(messageRepo *repository.MessageRepository, userRepo *repository.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SendMessageInput 发送消息入参
type SendMessageInput struct {
	ReceiverID    uint
	Subject       string
	Content       string
	ParentID      *uint
	ThreadID      *uint
	AttachmentIDs []uint
}

// SendMessage 发送消息
// 服务端分配ID与创建时间，写入时冗余双方身份字段
// 新消息始终为未读状态，接收者未读计数加一
func (s *MessageService) SendMessage(identity model.Identity, input SendMessageInput) (*model.Message, error) {
	// 校验必填字段
	if input.ReceiverID == 0 {
		return nil, apperr.Validation("receiver is required")
	}
	subject := strings.TrimSpace(input.Subject)
	content := strings.TrimSpace(input.Content)
	if subject == "" {
		return nil, apperr.Validation("subject is required")
	}
	if content == "" {
		return nil, apperr.Validation("content is required")
	}

	// 不能给自己发消息
	if input.ReceiverID == identity.ID {
		return nil, apperr.Validation("cannot send message to yourself")
	}

	// 检查接收者是否存在
	receiver, err := s.userRepo.GetByID(input.ReceiverID)
	if err != nil {
		return nil, err
	}

	// 创建消息，双方身份字段在写入时固化
	message := &model.Message{
		SenderID:      identity.ID,
		SenderName:    identity.Name,
		SenderEmail:   identity.Email,
		SenderRole:    identity.Role,
		ReceiverID:    receiver.ID,
		ReceiverName:  receiver.Name,
		ReceiverEmail: receiver.Email,
		ReceiverRole:  receiver.Role,
		Subject:       subject,
		Content:       content,
		ParentID:      input.ParentID,
		ThreadID:      input.ThreadID,
		Status:        model.StatusUnread,
	}

	// 保存消息并绑定暂存附件
	if err := s.messageRepo.Create(message, input.AttachmentIDs); err != nil {
		return nil, err
	}

	// 增加接收者未读消息计数（Redis不可用时走数据库回源，忽略错误）
	_ = redis.IncrementUnreadCount(receiver.ID)

	return message, nil
}

// ListMessages 按方向获取当前用户的消息列表
func (s *MessageService) ListMessages(direction string, identity model.Identity) ([]*model.Message, error) {
	return s.messageRepo.ListByDirection(direction, identity.ID)
}

// MarkRead 标记消息为已读
// 只有收件人可以标记；已读消息重复标记为无操作，read_at 不变
func (s *MessageService) MarkRead(messageID uint, identity model.Identity) error {
	message, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		return err
	}

	// 不在当前用户收件箱内的消息视为不存在
	if message.ReceiverID != identity.ID {
		return apperr.NotFound("message not found")
	}

	// 已读则无需重复操作
	if !message.IsUnread() {
		return nil
	}

	if err := s.messageRepo.MarkRead(messageID, time.Now()); err != nil {
		return err
	}

	// 减少未读消息计数
	_ = redis.DecrementUnreadCount(identity.ID)

	return nil
}

// DeleteMessage 删除消息（物理删除，不可恢复）
// 发送方与接收方都可以删除自己参与的消息
func (s *MessageService) DeleteMessage(messageID uint, identity model.Identity) error {
	message, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		return err
	}

	// 非参与方视为不存在
	if message.SenderID != identity.ID && message.ReceiverID != identity.ID {
		return apperr.NotFound("message not found")
	}

	if err := s.messageRepo.Delete(messageID); err != nil {
		return err
	}

	// 删除未读消息时同步减少接收者未读计数
	if message.IsUnread() {
		_ = redis.DecrementUnreadCount(message.ReceiverID)
	}

	return nil
}

// GetUnreadCount 获取未读消息数量（优先从Redis获取）
func (s *MessageService) GetUnreadCount(identity model.Identity) (int64, error) {
	// 优先从Redis获取，-1 表示key不存在
	count, err := redis.GetUnreadCount(identity.ID)
	if err == nil && count >= 0 {
		return count, nil
	}

	// Redis未命中或不可用，从数据库获取并同步到Redis
	dbCount, err := s.messageRepo.CountUnread(identity.ID)
	if err != nil {
		return 0, err
	}

	_ = redis.SetUnreadCount(identity.ID, dbCount)

	return dbCount, nil
}
