package inbox

import (
	"context"
	"fmt"
	"io"

	"message-center/internal/model"
	"message-center/pkg/apperr"
	"message-center/pkg/inboxclient"

	"go.uber.org/zap"
)

// Notifier 用户可见的提示通道（对应页面上的toast）
type Notifier interface {
	Notify(message string)
}

// NotifierFunc 函数式Notifier适配器
type NotifierFunc func(message string)

// Notify 实现Notifier
func (f NotifierFunc) Notify(message string) { f(message) }

// Draft 草稿状态
// 附件在选择文件时立即上传并暂存到这里，发送前移除只是从本地列表删掉
type Draft struct {
	ReceiverID  uint
	Subject     string
	Content     string
	ParentID    *uint
	Attachments []model.Attachment
}

// Controller 收件箱视图控制器
// 管理端与客户端共用同一个状态机，差异只在收件人解析策略
// 与页面事件循环一致，所有方法都在单个goroutine中调用，不加锁
// 每次变更操作成功后刷新列表与未读计数，保证角标与列表不长期偏离
type Controller struct {
	store    Store
	tracker  *Tracker
	strategy RecipientStrategy
	notifier Notifier
	identity model.Identity
	log      *zap.Logger

	tab        string
	messages   []model.Message
	selectedID uint
	readMarked map[uint]bool // 已触发过标记已读的消息，防止重复调用
	compose    *Draft
	reply      *Draft
}

// NewController 创建Controller实例，初始位于收件箱标签页
func NewController(store Store, tracker *Tracker, strategy RecipientStrategy, notifier Notifier, identity model.Identity, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &Controller{
		store:      store,
		tracker:    tracker,
		strategy:   strategy,
		notifier:   notifier,
		identity:   identity,
		log:        log,
		tab:        model.DirectionInbox,
		readMarked: make(map[uint]bool),
	}
}

// ActiveTab 当前标签页
func (c *Controller) ActiveTab() string { return c.tab }

// Messages 当前标签页的消息列表
func (c *Controller) Messages() []model.Message { return c.messages }

// UnreadCount 角标显示的未读数量
func (c *Controller) UnreadCount() int64 { return c.tracker.Count() }

// Identity 当前身份
func (c *Controller) Identity() model.Identity { return c.identity }

// Selected 当前打开的消息，未打开时返回nil
func (c *Controller) Selected() *model.Message {
	if c.selectedID == 0 {
		return nil
	}
	for i := range c.messages {
		if c.messages[i].ID == c.selectedID {
			return &c.messages[i]
		}
	}
	return nil
}

// SwitchTab 切换标签页并重新拉取列表
// 切换后不保留另一个标签页的选中状态
func (c *Controller) SwitchTab(ctx context.Context, tab string) error {
	if tab != model.DirectionInbox && tab != model.DirectionSent {
		return apperr.Validation("invalid tab: " + tab)
	}

	c.tab = tab
	c.selectedID = 0
	return c.Refresh(ctx)
}

// Refresh 重新拉取当前标签页的消息列表
// 失败时保留旧列表并提示用户
func (c *Controller) Refresh(ctx context.Context) error {
	messages, err := c.store.ListMessages(ctx, c.tab)
	if err != nil {
		c.notifier.Notify("获取消息列表失败")
		return err
	}
	c.messages = messages
	return nil
}

// Select 打开一条消息
// 在收件箱内首次打开未读消息时触发一次标记已读并刷新未读计数；
// 标记失败只记日志不打断阅读，本地仍按已读展示（可接受的轻微不一致）
func (c *Controller) Select(ctx context.Context, messageID uint) (*model.Message, error) {
	var message *model.Message
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			message = &c.messages[i]
			break
		}
	}
	if message == nil {
		return nil, apperr.NotFound("message not found")
	}

	c.selectedID = messageID

	if c.tab == model.DirectionInbox && message.IsUnread() && !c.readMarked[messageID] {
		c.readMarked[messageID] = true
		if err := c.store.MarkRead(ctx, messageID); err != nil {
			c.log.Warn("标记已读失败",
				zap.Uint("message_id", messageID),
				zap.Error(err),
			)
		}
		message.Status = model.StatusRead
		_ = c.tracker.Refresh(ctx)
	}

	return message, nil
}

// StartCompose 打开写信面板
func (c *Controller) StartCompose() *Draft {
	if c.compose == nil {
		c.compose = &Draft{}
	}
	return c.compose
}

// ComposeDraft 当前写信草稿，未打开时返回nil
func (c *Controller) ComposeDraft() *Draft { return c.compose }

// CancelCompose 取消写信，丢弃草稿
func (c *Controller) CancelCompose() { c.compose = nil }

// RecipientOptions 可选收件人列表（由角色策略决定，客户角色返回nil）
func (c *Controller) RecipientOptions(ctx context.Context) ([]model.UserSummary, error) {
	options, err := c.strategy.Options(ctx, c.store)
	if err != nil {
		c.notifier.Notify("获取收件人列表失败")
		return nil, err
	}
	return options, nil
}

// StageComposeAttachment 为写信草稿暂存附件（立即上传）
func (c *Controller) StageComposeAttachment(ctx context.Context, filename string, content io.Reader, contentType string) error {
	if c.compose == nil {
		return apperr.Validation("no compose draft open")
	}
	return c.stageAttachment(ctx, c.compose, filename, content, contentType)
}

// RemoveComposeAttachment 从写信草稿中移除暂存附件（仅本地移除）
func (c *Controller) RemoveComposeAttachment(index int) {
	if c.compose != nil {
		c.compose.Attachments = removeAttachment(c.compose.Attachments, index)
	}
}

// SubmitCompose 发送写信草稿
// 收件人/主题/正文缺失时在本地拒绝，不发起网络调用；
// 发送失败时保留草稿供重试，成功后关闭面板并刷新列表与未读计数
func (c *Controller) SubmitCompose(ctx context.Context) (*model.Message, error) {
	if c.compose == nil {
		return nil, apperr.Validation("no compose draft open")
	}

	draft := c.compose

	// 主题与正文先在本地校验，避免无意义的网络调用
	if err := validateDraftText(draft); err != nil {
		c.notifier.Notify(err.Error())
		return nil, err
	}

	// 客户角色在发送时隐式解析收件人
	if draft.ReceiverID == 0 {
		receiverID, err := c.strategy.DefaultRecipient(ctx, c.store)
		if err != nil {
			c.notifier.Notify("暂无可用的客服接收消息")
			return nil, err
		}
		draft.ReceiverID = receiverID
	}

	if draft.ReceiverID == 0 {
		err := apperr.Validation("请选择收件人")
		c.notifier.Notify(err.Error())
		return nil, err
	}

	message, err := c.store.SendMessage(ctx, inboxclient.SendMessageRequest{
		ReceiverID:  draft.ReceiverID,
		Subject:     draft.Subject,
		Content:     draft.Content,
		ParentID:    draft.ParentID,
		Attachments: draft.Attachments,
	})
	if err != nil {
		c.notifier.Notify("消息发送失败")
		return nil, err
	}

	c.compose = nil
	_ = c.Refresh(ctx)
	_ = c.tracker.Refresh(ctx)
	return message, nil
}

// StartReply 对当前打开的消息发起回复
// 仅收件箱内的消息可以回复；主题加 Re: 前缀，收件人为原发送者
func (c *Controller) StartReply() (*Draft, error) {
	if c.tab != model.DirectionInbox {
		return nil, apperr.Validation("reply is only available in the inbox")
	}
	selected := c.Selected()
	if selected == nil {
		return nil, apperr.Validation("no message selected")
	}

	if c.reply == nil {
		parentID := selected.ID
		c.reply = &Draft{
			ReceiverID: selected.SenderID,
			Subject:    "Re: " + selected.Subject,
			ParentID:   &parentID,
		}
	}
	return c.reply, nil
}

// ReplyDraft 当前回复草稿，未打开时返回nil
func (c *Controller) ReplyDraft() *Draft { return c.reply }

// CancelReply 取消回复，丢弃草稿
func (c *Controller) CancelReply() { c.reply = nil }

// StageReplyAttachment 为回复草稿暂存附件（立即上传）
func (c *Controller) StageReplyAttachment(ctx context.Context, filename string, content io.Reader, contentType string) error {
	if c.reply == nil {
		return apperr.Validation("no reply draft open")
	}
	return c.stageAttachment(ctx, c.reply, filename, content, contentType)
}

// RemoveReplyAttachment 从回复草稿中移除暂存附件（仅本地移除）
func (c *Controller) RemoveReplyAttachment(index int) {
	if c.reply != nil {
		c.reply.Attachments = removeAttachment(c.reply.Attachments, index)
	}
}

// SubmitReply 发送回复
// 正文缺失时在本地拒绝；失败保留草稿，成功后关闭回复面板并刷新
func (c *Controller) SubmitReply(ctx context.Context) (*model.Message, error) {
	if c.reply == nil {
		return nil, apperr.Validation("no reply draft open")
	}

	draft := c.reply
	if err := validateDraft(draft); err != nil {
		c.notifier.Notify(err.Error())
		return nil, err
	}

	message, err := c.store.SendMessage(ctx, inboxclient.SendMessageRequest{
		ReceiverID:  draft.ReceiverID,
		Subject:     draft.Subject,
		Content:     draft.Content,
		ParentID:    draft.ParentID,
		Attachments: draft.Attachments,
	})
	if err != nil {
		c.notifier.Notify("回复发送失败")
		return nil, err
	}

	c.reply = nil
	_ = c.Refresh(ctx)
	_ = c.tracker.Refresh(ctx)
	return message, nil
}

// Delete 删除消息，需要用户确认
// confirm 返回false时放弃操作；成功后关闭被删除消息的详情并刷新
func (c *Controller) Delete(ctx context.Context, messageID uint, confirm func() bool) error {
	if confirm != nil && !confirm() {
		return nil
	}

	if err := c.store.DeleteMessage(ctx, messageID); err != nil {
		c.notifier.Notify("消息删除失败")
		return err
	}

	if c.selectedID == messageID {
		c.selectedID = 0
	}
	_ = c.Refresh(ctx)
	_ = c.tracker.Refresh(ctx)
	return nil
}

// stageAttachment 上传附件并追加到草稿
func (c *Controller) stageAttachment(ctx context.Context, draft *Draft, filename string, content io.Reader, contentType string) error {
	attachment, err := c.store.UploadAttachment(ctx, filename, content, contentType)
	if err != nil {
		c.notifier.Notify(fmt.Sprintf("附件 %s 上传失败", filename))
		return err
	}
	draft.Attachments = append(draft.Attachments, *attachment)
	return nil
}

// validateDraft 发送前的本地校验
func validateDraft(draft *Draft) error {
	if draft.ReceiverID == 0 {
		return apperr.Validation("请选择收件人")
	}
	return validateDraftText(draft)
}

// validateDraftText 校验主题与正文
func validateDraftText(draft *Draft) error {
	if draft.Subject == "" {
		return apperr.Validation("请填写主题")
	}
	if draft.Content == "" {
		return apperr.Validation("请填写正文")
	}
	return nil
}

// removeAttachment 从暂存列表中移除指定下标的附件
func removeAttachment(attachments []model.Attachment, index int) []model.Attachment {
	if index < 0 || index >= len(attachments) {
		return attachments
	}
	return append(attachments[:index], attachments[index+1:]...)
}
