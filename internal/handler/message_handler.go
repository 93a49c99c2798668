package handler

import (
	"net/http"

	"message-center/internal/model"
	"message-center/internal/service"
	"message-center/pkg/jwt"
	"message-center/pkg/response"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler 创建MessageHandler实例
func NewMessageHandler(s *service.MessageService) *MessageHandler {
	return &MessageHandler{service: s}
}

// ListMessages 获取消息列表
// GET /api/messages?type=inbox|sent，默认收件箱
func (h *MessageHandler) ListMessages(c *gin.Context) {
	identity, ok := jwt.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "身份信息缺失")
		return
	}

	direction := c.DefaultQuery("type", model.DirectionInbox)

	messages, err := h.service.ListMessages(direction, identity)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// 保证返回空数组而不是null
	if messages == nil {
		messages = []*model.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage 发送消息
// POST /api/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	identity, ok := jwt.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "身份信息缺失")
		return
	}

	// 绑定请求参数
	// attachments 为上传接口返回的附件描述，这里只取ID做绑定
	type req struct {
		ReceiverID  uint               `json:"receiverId"`
		Subject     string             `json:"subject"`
		Content     string             `json:"content"`
		ParentID    *uint              `json:"parentId"`
		ThreadID    *uint              `json:"threadId"`
		Attachments []model.Attachment `json:"attachments"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	attachmentIDs := make([]uint, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		if a.ID != 0 {
			attachmentIDs = append(attachmentIDs, a.ID)
		}
	}

	message, err := h.service.SendMessage(identity, service.SendMessageInput{
		ReceiverID:    r.ReceiverID,
		Subject:       r.Subject,
		Content:       r.Content,
		ParentID:      r.ParentID,
		ThreadID:      r.ThreadID,
		AttachmentIDs: attachmentIDs,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// MarkRead 标记消息为已读
// PATCH /api/messages，body为{messageId, status}，status仅支持read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	identity, ok := jwt.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "身份信息缺失")
		return
	}

	type req struct {
		MessageID uint   `json:"messageId"`
		Status    string `json:"status"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if r.MessageID == 0 {
		response.BadRequest(c, "messageId is required")
		return
	}
	if r.Status != model.StatusRead {
		response.BadRequest(c, "only status 'read' is supported")
		return
	}

	if err := h.service.MarkRead(r.MessageID, identity); err != nil {
		response.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMessage 删除消息
// DELETE /api/messages，body为{messageId}
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	identity, ok := jwt.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "身份信息缺失")
		return
	}

	type req struct {
		MessageID uint `json:"messageId"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if r.MessageID == 0 {
		response.BadRequest(c, "messageId is required")
		return
	}

	if err := h.service.DeleteMessage(r.MessageID, identity); err != nil {
		response.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUnreadCount 获取未读消息数量
// GET /api/messages/unread-count
func (h *MessageHandler) GetUnreadCount(c *gin.Context) {
	identity, ok := jwt.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "身份信息缺失")
		return
	}

	count, err := h.service.GetUnreadCount(identity)
	if err != nil {
		response.InternalError(c, "获取未读消息数量失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}
