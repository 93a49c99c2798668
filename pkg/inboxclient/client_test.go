package inboxclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"message-center/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "wang@shipper.example", body["email"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":3,"name":"Wang","role":"customer"},"accessToken":"tok-123"}`))
		case "/api/messages":
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"messages":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(server.URL)
	user, err := client.Login(context.Background(), "wang@shipper.example", "secret-123")
	require.NoError(t, err)
	assert.EqualValues(t, 3, user.ID)
	assert.Equal(t, "Wang", user.Name)

	// 登录后的请求自动携带令牌
	_, err = client.ListMessages(context.Background(), "inbox")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestListMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages", r.URL.Path)
		assert.Equal(t, "sent", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[
			{"id":2,"subject":"second","status":"unread"},
			{"id":1,"subject":"first","status":"read"}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	messages, err := client.ListMessages(context.Background(), "sent")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.EqualValues(t, 2, messages[0].ID)
	assert.True(t, messages[0].IsUnread())
	assert.Equal(t, "first", messages[1].Subject)
}

func TestSendMessageWireFormat(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"subject":"Re: 到港时间咨询","status":"unread"}`))
	}))
	defer server.Close()

	parentID := uint(10)
	client := New(server.URL)
	message, err := client.SendMessage(context.Background(), SendMessageRequest{
		ReceiverID: 7,
		Subject:    "Re: 到港时间咨询",
		Content:    "预计8月15日上午靠泊。",
		ParentID:   &parentID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 42, message.ID)

	// 请求体为camelCase字段
	assert.EqualValues(t, 7, got["receiverId"])
	assert.EqualValues(t, 10, got["parentId"])
	assert.Equal(t, "Re: 到港时间咨询", got["subject"])
	// 未设置的可选字段不出现在请求体里
	_, hasThread := got["threadId"]
	assert.False(t, hasThread)
}

func TestMarkReadAndDelete(t *testing.T) {
	var patchBody, deleteBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/messages", r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patchBody))
		case http.MethodDelete:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&deleteBody))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL)
	require.NoError(t, client.MarkRead(context.Background(), 42))
	assert.EqualValues(t, 42, patchBody["messageId"])
	assert.Equal(t, "read", patchBody["status"])

	require.NoError(t, client.DeleteMessage(context.Background(), 42))
	assert.EqualValues(t, 42, deleteBody["messageId"])
}

func TestUnreadCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/unread-count", r.URL.Path)
		_, _ = w.Write([]byte(`{"unreadCount":17}`))
	}))
	defer server.Close()

	client := New(server.URL)
	count, err := client.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 17, count)
}

func TestUploadAttachmentPreservesContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "booking.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(data))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"attachment":{"id":5,"name":"booking.pdf","size":8,"type":"application/pdf","url":"/uploads/booking.pdf"}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	attachment, err := client.UploadAttachment(context.Background(), "booking.pdf", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.EqualValues(t, 5, attachment.ID)
	assert.Equal(t, "/uploads/booking.pdf", attachment.URL)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"validation", http.StatusBadRequest, `{"error":"subject is required"}`, apperr.IsValidation},
		{"not found", http.StatusNotFound, `{"error":"message not found"}`, apperr.IsNotFound},
		{"too large", http.StatusRequestEntityTooLarge, `{"error":"file exceeds 10MB limit"}`, apperr.IsUpload},
		{"bad type", http.StatusUnsupportedMediaType, `{"error":"file type not allowed"}`, apperr.IsUpload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := New(server.URL)
			_, err := client.ListMessages(context.Background(), "inbox")
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error kind: %v", err)

			// 错误消息来自响应体
			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.body), &body))
			assert.Contains(t, err.Error(), body.Error)
		})
	}
}

func TestServerErrorIsInternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.ListMessages(context.Background(), "inbox")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestTransportErrorIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立即关闭，模拟连接失败

	client := New(server.URL)
	_, err := client.ListMessages(context.Background(), "inbox")
	require.Error(t, err)
	assert.True(t, apperr.IsNetwork(err))

	err = client.MarkRead(context.Background(), 1)
	assert.True(t, apperr.IsNetwork(err))
}

func TestBaseURLTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"users":[]}`))
	}))
	defer server.Close()

	client := New(server.URL + "/")
	_, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/users", gotPath)
}
