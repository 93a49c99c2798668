package inbox

import (
	"context"

	"message-center/internal/model"
	"message-center/pkg/apperr"
)

// RecipientStrategy 收件人解析策略
// 后台人员显式从用户目录中选择收件人；
// 客户不做选择，自动解析到目录中的第一个后台人员
type RecipientStrategy interface {
	// Options 返回可供选择的收件人；返回nil表示该角色不提供选择
	Options(ctx context.Context, store Store) ([]model.UserSummary, error)
	// DefaultRecipient 返回草稿的默认收件人，0表示必须显式选择
	DefaultRecipient(ctx context.Context, store Store) (uint, error)
}

// StaffRecipientStrategy 后台策略：可以给任意用户发消息
type StaffRecipientStrategy struct {
	identity model.Identity
}

// NewStaffRecipientStrategy 创建后台收件人策略
func NewStaffRecipientStrategy(identity model.Identity) *StaffRecipientStrategy {
	return &StaffRecipientStrategy{identity: identity}
}

// Options 返回除自己以外的全部用户
func (s *StaffRecipientStrategy) Options(ctx context.Context, store Store) ([]model.UserSummary, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		if u.ID != s.identity.ID {
			options = append(options, u)
		}
	}
	return options, nil
}

// DefaultRecipient 后台人员必须显式选择收件人
func (s *StaffRecipientStrategy) DefaultRecipient(ctx context.Context, store Store) (uint, error) {
	return 0, nil
}

// CustomerRecipientStrategy 客户策略：自动解析到第一个后台人员
// 多个后台人员时取目录顺序中的第一个，不做额外的分配策略
type CustomerRecipientStrategy struct{}

// NewCustomerRecipientStrategy 创建客户收件人策略
func NewCustomerRecipientStrategy() *CustomerRecipientStrategy {
	return &CustomerRecipientStrategy{}
}

// Options 客户不提供收件人选择
func (s *CustomerRecipientStrategy) Options(ctx context.Context, store Store) ([]model.UserSummary, error) {
	return nil, nil
}

// DefaultRecipient 取用户目录中第一个admin/super_admin
// 目录中没有后台人员时发送失败，由上层提示用户
func (s *CustomerRecipientStrategy) DefaultRecipient(ctx context.Context, store Store) (uint, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	for _, u := range users {
		if u.IsStaff() {
			return u.ID, nil
		}
	}
	return 0, apperr.Validation("no staff available to receive the message")
}
