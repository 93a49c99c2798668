package inboxclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"message-center/internal/model"
	"message-center/pkg/apperr"
)

// Client 消息中心HTTP客户端
// 实现收件箱控制器所需的全部存取操作
// 错误按HTTP状态码还原为业务错误类别
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New 创建客户端实例
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetToken 设置访问令牌
func (c *Client) SetToken(token string) {
	c.token = token
}

// SendMessageRequest 发送消息请求体
// attachments 为上传接口返回的附件描述
type SendMessageRequest struct {
	ReceiverID  uint               `json:"receiverId"`
	Subject     string             `json:"subject"`
	Content     string             `json:"content"`
	ParentID    *uint              `json:"parentId,omitempty"`
	ThreadID    *uint              `json:"threadId,omitempty"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// Register 注册并保存返回的令牌
func (c *Client) Register(ctx context.Context, name, email, password, role string) (model.UserSummary, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     role,
	}
	var out struct {
		User        model.UserSummary `json:"user"`
		AccessToken string            `json:"accessToken"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return model.UserSummary{}, err
	}
	c.token = out.AccessToken
	return out.User, nil
}

// Login 登录并保存返回的令牌
func (c *Client) Login(ctx context.Context, email, password string) (model.UserSummary, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var out struct {
		User        model.UserSummary `json:"user"`
		AccessToken string            `json:"accessToken"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return model.UserSummary{}, err
	}
	c.token = out.AccessToken
	return out.User, nil
}

// ListMessages 按方向获取消息列表
func (c *Client) ListMessages(ctx context.Context, direction string) ([]model.Message, error) {
	var out struct {
		Messages []model.Message `json:"messages"`
	}
	path := "/api/messages?type=" + direction
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage 发送消息
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*model.Message, error) {
	var out model.Message
	if err := c.doJSON(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead 标记消息为已读
func (c *Client) MarkRead(ctx context.Context, messageID uint) error {
	body := map[string]interface{}{
		"messageId": messageID,
		"status":    model.StatusRead,
	}
	return c.doJSON(ctx, http.MethodPatch, "/api/messages", body, nil)
}

// DeleteMessage 删除消息
func (c *Client) DeleteMessage(ctx context.Context, messageID uint) error {
	body := map[string]interface{}{
		"messageId": messageID,
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/messages", body, nil)
}

// ListUsers 获取用户目录
func (c *Client) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	var out struct {
		Users []model.UserSummary `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// UnreadCount 获取未读消息数量
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// UploadAttachment 上传附件，返回完整的附件描述
func (c *Client) UploadAttachment(ctx context.Context, filename string, content io.Reader, contentType string) (*model.Attachment, error) {
	// 构造multipart请求体，保留文件的MIME类型
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpload, "build upload request failed", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, apperr.Wrap(apperr.KindUpload, "read attachment failed", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpload, "build upload request failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messages/upload", &buf)
	if err != nil {
		return nil, apperr.Network("build request failed", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Network("upload request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.errorFromResponse(resp)
	}

	var out struct {
		Attachment model.Attachment `json:"attachment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Network("decode response failed", err)
	}
	return &out.Attachment, nil
}

// doJSON 发送JSON请求并解析响应
// out 为nil时忽略响应体
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal("encode request failed", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.Network("build request failed", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Network("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Network("decode response failed", err)
	}
	return nil
}

// setAuth 附加Bearer令牌
func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// errorFromResponse 把HTTP错误响应还原为业务错误
func (c *Client) errorFromResponse(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperr.Validation(msg)
	case http.StatusNotFound:
		return apperr.NotFound(msg)
	case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return apperr.Upload(msg)
	default:
		return apperr.New(apperr.KindInternal, msg)
	}
}
