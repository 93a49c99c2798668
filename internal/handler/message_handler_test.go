package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"message-center/config"
	"message-center/internal/model"
	"message-center/internal/repository"
	"message-center/internal/service"
	"message-center/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestRouter 按生产路由结构组装一套完整的API用于测试
// 数据库为内存SQLite，附件写入临时目录
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Message{}, &model.Attachment{}))

	jwtSvc := jwt.NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "message-center",
		ExpireTime: time.Hour,
	})
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	userSvc := service.NewUserService(userRepo, jwtSvc)
	messageSvc := service.NewMessageService(messageRepo, userRepo)
	uploadSvc := service.NewUploadService(attachmentRepo, config.UploadConfig{
		Dir:       t.TempDir(),
		MaxSizeMB: 5,
		BaseURL:   "/uploads",
	})
	userHandler := NewUserHandler(userSvc)
	messageHandler := NewMessageHandler(messageSvc)
	uploadHandler := NewUploadHandler(uploadSvc)

	router := gin.New()
	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		messages := api.Group("/messages")
		messages.Use(jwtSvc.AuthMiddleware())
		{
			messages.GET("", messageHandler.ListMessages)
			messages.POST("", messageHandler.SendMessage)
			messages.PATCH("", messageHandler.MarkRead)
			messages.DELETE("", messageHandler.DeleteMessage)
			messages.POST("/upload", uploadHandler.UploadAttachment)
			messages.GET("/unread-count", messageHandler.GetUnreadCount)
		}

		users := api.Group("/users")
		users.Use(jwtSvc.AuthMiddleware())
		{
			users.GET("", userHandler.ListUsers)
		}
	}
	return router
}

// doJSON 发送JSON请求并返回响应
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// registerUser 通过注册接口创建用户并返回令牌
func registerUser(t *testing.T, router *gin.Engine, name, email, role string) (model.UserSummary, string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret-123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		User        model.UserSummary `json:"user"`
		AccessToken string            `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotZero(t, out.User.ID)
	require.NotEmpty(t, out.AccessToken)
	return out.User, out.AccessToken
}

func listMessages(t *testing.T, router *gin.Engine, token, direction string) []model.Message {
	t.Helper()

	w := doJSON(t, router, http.MethodGet, "/api/messages?type="+direction, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Messages
}

func unreadCount(t *testing.T, router *gin.Engine, token string) int64 {
	t.Helper()

	w := doJSON(t, router, http.MethodGet, "/api/messages/unread-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.UnreadCount
}

func TestMessagesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users", "bad-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMessageLifecycle(t *testing.T) {
	router := newTestRouter(t)
	admin, adminToken := registerUser(t, router, "Grace", "grace@harbor.example", model.RoleAdmin)
	customer, customerToken := registerUser(t, router, "Wang", "wang@shipper.example", model.RoleCustomer)

	// 客户给客服发消息
	w := doJSON(t, router, http.MethodPost, "/api/messages", customerToken, gin.H{
		"receiverId": admin.ID,
		"subject":    "到港时间咨询",
		"content":    "请问COSCO Galaxy预计几号靠泊？",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, customer.ID, created.SenderID)
	assert.Equal(t, admin.ID, created.ReceiverID)
	assert.Equal(t, model.StatusUnread, created.Status)

	// 客服收件箱可见，客户已发送可见
	inbox := listMessages(t, router, adminToken, "inbox")
	require.Len(t, inbox, 1)
	assert.Equal(t, "到港时间咨询", inbox[0].Subject)
	sent := listMessages(t, router, customerToken, "sent")
	require.Len(t, sent, 1)

	// 客服未读数为1，客户为0
	assert.EqualValues(t, 1, unreadCount(t, router, adminToken))
	assert.EqualValues(t, 0, unreadCount(t, router, customerToken))

	// 标记已读
	w = doJSON(t, router, http.MethodPatch, "/api/messages", adminToken, gin.H{
		"messageId": created.ID,
		"status":    "read",
	})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.EqualValues(t, 0, unreadCount(t, router, adminToken))

	inbox = listMessages(t, router, adminToken, "inbox")
	require.Len(t, inbox, 1)
	assert.Equal(t, model.StatusRead, inbox[0].Status)
	require.NotNil(t, inbox[0].ReadAt)
	firstReadAt := *inbox[0].ReadAt

	// 重复标记为无操作
	w = doJSON(t, router, http.MethodPatch, "/api/messages", adminToken, gin.H{
		"messageId": created.ID,
		"status":    "read",
	})
	require.Equal(t, http.StatusNoContent, w.Code)
	inbox = listMessages(t, router, adminToken, "inbox")
	require.NotNil(t, inbox[0].ReadAt)
	assert.True(t, inbox[0].ReadAt.Equal(firstReadAt))

	// 客服回复，parentId指向原消息
	w = doJSON(t, router, http.MethodPost, "/api/messages", adminToken, gin.H{
		"receiverId": customer.ID,
		"subject":    "Re: 到港时间咨询",
		"content":    "预计8月15日上午靠泊。",
		"parentId":   created.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	customerInbox := listMessages(t, router, customerToken, "inbox")
	require.Len(t, customerInbox, 1)
	assert.Equal(t, "Re: 到港时间咨询", customerInbox[0].Subject)
	require.NotNil(t, customerInbox[0].ParentID)
	assert.Equal(t, created.ID, *customerInbox[0].ParentID)
	assert.EqualValues(t, 1, unreadCount(t, router, customerToken))

	// 发送方删除原消息
	w = doJSON(t, router, http.MethodDelete, "/api/messages", customerToken, gin.H{
		"messageId": created.ID,
	})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, listMessages(t, router, customerToken, "sent"))
	assert.Empty(t, listMessages(t, router, adminToken, "inbox"))
}

func TestSendMessageErrors(t *testing.T) {
	router := newTestRouter(t)
	admin, _ := registerUser(t, router, "Grace", "grace@harbor.example", model.RoleAdmin)
	_, customerToken := registerUser(t, router, "Wang", "wang@shipper.example", model.RoleCustomer)

	// 缺主题
	w := doJSON(t, router, http.MethodPost, "/api/messages", customerToken, gin.H{
		"receiverId": admin.ID,
		"subject":    "",
		"content":    "正文",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "subject is required", body.Error)

	// 接收者不存在
	w = doJSON(t, router, http.MethodPost, "/api/messages", customerToken, gin.H{
		"receiverId": 9999,
		"subject":    "s",
		"content":    "c",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkReadRejectsUnsupportedStatus(t *testing.T) {
	router := newTestRouter(t)
	admin, adminToken := registerUser(t, router, "Grace", "grace@harbor.example", model.RoleAdmin)
	_, customerToken := registerUser(t, router, "Wang", "wang@shipper.example", model.RoleCustomer)

	w := doJSON(t, router, http.MethodPost, "/api/messages", customerToken, gin.H{
		"receiverId": admin.ID,
		"subject":    "s",
		"content":    "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// 只支持标记为已读，不支持标回未读
	w = doJSON(t, router, http.MethodPatch, "/api/messages", adminToken, gin.H{
		"messageId": created.ID,
		"status":    "unread",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPatch, "/api/messages", adminToken, gin.H{
		"status": "read",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRequiresParticipant(t *testing.T) {
	router := newTestRouter(t)
	admin, _ := registerUser(t, router, "Grace", "grace@harbor.example", model.RoleAdmin)
	_, customerToken := registerUser(t, router, "Wang", "wang@shipper.example", model.RoleCustomer)
	_, otherToken := registerUser(t, router, "Li", "li@shipper.example", model.RoleCustomer)

	w := doJSON(t, router, http.MethodPost, "/api/messages", customerToken, gin.H{
		"receiverId": admin.ID,
		"subject":    "s",
		"content":    "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodDelete, "/api/messages", otherToken, gin.H{
		"messageId": created.ID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadAndAttach(t *testing.T) {
	router := newTestRouter(t)
	admin, adminToken := registerUser(t, router, "Grace", "grace@harbor.example", model.RoleAdmin)
	_, customerToken := registerUser(t, router, "Wang", "wang@shipper.example", model.RoleCustomer)

	// 上传附件（暂存）
	payload := []byte("CTNS: 120\nG.W.: 1880KG")
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "packing-list.txt")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/messages/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+customerToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var uploaded struct {
		Attachment model.Attachment `json:"attachment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploaded))
	assert.NotZero(t, uploaded.Attachment.ID)
	assert.Equal(t, "packing-list.txt", uploaded.Attachment.Name)
	assert.EqualValues(t, len(payload), uploaded.Attachment.Size)
	assert.Contains(t, uploaded.Attachment.URL, "/uploads/")

	// 发送时绑定附件
	resp := doJSON(t, router, http.MethodPost, "/api/messages", customerToken, gin.H{
		"receiverId":  admin.ID,
		"subject":     "装箱单",
		"content":     "装箱单见附件。",
		"attachments": []model.Attachment{uploaded.Attachment},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	inbox := listMessages(t, router, adminToken, "inbox")
	require.Len(t, inbox, 1)
	require.Len(t, inbox[0].Attachments, 1)
	assert.Equal(t, "packing-list.txt", inbox[0].Attachments[0].Name)
}

func TestListUsersDirectory(t *testing.T) {
	router := newTestRouter(t)
	admin, adminToken := registerUser(t, router, "Grace", "grace@harbor.example", model.RoleAdmin)
	customer, _ := registerUser(t, router, "Wang", "wang@shipper.example", model.RoleCustomer)

	w := doJSON(t, router, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Users []model.UserSummary `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Users, 2)
	// 注册顺序即目录顺序
	assert.Equal(t, admin.ID, out.Users[0].ID)
	assert.Equal(t, customer.ID, out.Users[1].ID)
	// 目录不泄露密码等敏感字段
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "hash")

	// 登录同样返回令牌
	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "wang@shipper.example",
		"password": "secret-123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		User        model.UserSummary `json:"user"`
		AccessToken string            `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, customer.ID, login.User.ID)
	assert.NotEmpty(t, login.AccessToken)
}
