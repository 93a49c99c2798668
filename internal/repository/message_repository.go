package repository

import (
	"errors"
	"time"

	"message-center/internal/model"
	"message-center/pkg/apperr"

	"gorm.io/gorm"
)

// MessageRepository 消息数据仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建MessageRepository实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建消息并绑定暂存附件
// 附件在上传时已独立落库，这里只把归属权转移到新消息上
// 只认领尚未绑定的附件，避免一个附件被两条消息引用
func (r *MessageRepository) Create(message *model.Message, attachmentIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		if len(attachmentIDs) > 0 {
			if err := tx.Model(&model.Attachment{}).
				Where("id IN ? AND message_id IS NULL", attachmentIDs).
				Update("message_id", message.ID).Error; err != nil {
				return err
			}
			// 回读绑定后的附件列表
			if err := tx.Where("message_id = ?", message.ID).
				Find(&message.Attachments).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByID 根据ID获取消息（含附件）
func (r *MessageRepository) GetByID(id uint) (*model.Message, error) {
	var message model.Message
	err := r.db.Preload("Attachments").First(&message, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, err
	}
	return &message, nil
}

// ListByDirection 按方向获取某个用户的消息列表
// inbox 为收到的消息，sent 为发出的消息，始终按创建时间倒序
func (r *MessageRepository) ListByDirection(direction string, userID uint) ([]*model.Message, error) {
	var messages []*model.Message

	query := r.db.Preload("Attachments").Order("created_at DESC, id DESC")
	switch direction {
	case model.DirectionInbox:
		query = query.Where("receiver_id = ?", userID)
	case model.DirectionSent:
		query = query.Where("sender_id = ?", userID)
	default:
		return nil, apperr.Validation("invalid direction")
	}

	err := query.Find(&messages).Error
	return messages, err
}

// MarkRead 标记消息为已读并记录首次阅读时间
// 只更新仍处于未读状态的行，重复调用不会覆盖 read_at
func (r *MessageRepository) MarkRead(messageID uint, readAt time.Time) error {
	return r.db.Model(&model.Message{}).
		Where("id = ? AND status = ?", messageID, model.StatusUnread).
		Updates(map[string]interface{}{
			"status":  model.StatusRead,
			"read_at": readAt,
		}).Error
}

// Delete 物理删除消息及其附件记录
func (r *MessageRepository) Delete(messageID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).
			Delete(&model.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, messageID).Error
	})
}

// CountUnread 获取用户收件箱的未读消息数量
func (r *MessageRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("receiver_id = ? AND status = ?", userID, model.StatusUnread).
		Count(&count).Error
	return count, err
}
