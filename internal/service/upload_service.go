package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"message-center/config"
	"message-center/internal/model"
	"message-center/internal/repository"
	"message-center/pkg/apperr"
)

// UploadService 附件上传服务
// 附件先独立存储并落库（暂存状态），发送消息时才绑定到消息
// 对核心而言存储是不透明协作方，这里用本地磁盘实现
type UploadService struct {
	attachmentRepo *repository.AttachmentRepository
	cfg            config.UploadConfig
}

// NewUploadService 创建UploadService实例
func NewUploadService(attachmentRepo *repository.AttachmentRepository, cfg config.UploadConfig) *UploadService {
	return &UploadService{attachmentRepo: attachmentRepo, cfg: cfg}
}

// SaveAttachment 校验并保存上传的附件，返回完整的附件描述
func (s *UploadService) SaveAttachment(fileHeader *multipart.FileHeader) (*model.Attachment, error) {
	if fileHeader == nil {
		return nil, apperr.Upload("file is required")
	}

	// 大小限制
	maxSize := int64(s.cfg.MaxSizeMB) * 1024 * 1024
	if maxSize > 0 && fileHeader.Size > maxSize {
		return nil, apperr.Upload(fmt.Sprintf("file exceeds %dMB limit", s.cfg.MaxSizeMB))
	}

	// MIME类型限制（配置为空表示不限制）
	contentType := fileHeader.Header.Get("Content-Type")
	if len(s.cfg.AllowedTypes) > 0 && !s.typeAllowed(contentType) {
		return nil, apperr.Upload("file type not allowed: " + contentType)
	}

	// 保存到本地磁盘，文件名加时间戳前缀避免冲突
	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return nil, apperr.Internal("创建上传目录失败", err)
	}

	originalName := filepath.Base(fileHeader.Filename)
	storedName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), originalName)
	dstPath := filepath.Join(s.cfg.Dir, storedName)

	src, err := fileHeader.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpload, "读取上传文件失败", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, apperr.Internal("保存上传文件失败", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, apperr.Internal("写入上传文件失败", err)
	}

	// 落库为暂存附件
	attachment := &model.Attachment{
		Name: originalName,
		Size: fileHeader.Size,
		Type: contentType,
		URL:  strings.TrimRight(s.cfg.BaseURL, "/") + "/" + storedName,
	}
	if err := s.attachmentRepo.Create(attachment); err != nil {
		return nil, err
	}

	return attachment, nil
}

// typeAllowed 检查MIME类型是否在白名单内
func (s *UploadService) typeAllowed(contentType string) bool {
	for _, t := range s.cfg.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}
