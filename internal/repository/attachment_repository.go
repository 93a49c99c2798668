package repository

import (
	"errors"

	"message-center/internal/model"
	"message-center/pkg/apperr"

	"gorm.io/gorm"
)

// AttachmentRepository 附件数据仓储
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建AttachmentRepository实例
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create 落库一条暂存附件（MessageID 为空）
func (r *AttachmentRepository) Create(attachment *model.Attachment) error {
	return r.db.Create(attachment).Error
}

// GetByID 根据ID获取附件
func (r *AttachmentRepository) GetByID(id uint) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attachment not found")
		}
		return nil, err
	}
	return &a, nil
}
