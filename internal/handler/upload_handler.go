package handler

import (
	"net/http"

	"message-center/internal/service"
	"message-center/pkg/response"

	"github.com/gin-gonic/gin"
)

// UploadHandler 附件上传处理器
type UploadHandler struct {
	service *service.UploadService
}

// NewUploadHandler 创建UploadHandler实例
func NewUploadHandler(s *service.UploadService) *UploadHandler {
	return &UploadHandler{service: s}
}

// UploadAttachment 上传附件
// POST /api/messages/upload，multipart字段名为file
func (h *UploadHandler) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	attachment, err := h.service.SaveAttachment(fileHeader)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}
