package response

import (
	"net/http"

	"message-center/internal/model"
	"message-center/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// 错误响应统一为 {"error": "..."}，并使用真实HTTP状态码
// 成功响应的形状由各接口自行决定（{"messages":...}、{"attachment":...} 等）

// ErrorBody 错误响应体
type ErrorBody struct {
	Error string `json:"error"`
}

// Error 错误响应
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500错误
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// FromError 根据业务错误类别映射HTTP状态码
func FromError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		BadRequest(c, err.Error())
	case apperr.KindNotFound:
		NotFound(c, err.Error())
	case apperr.KindUpload:
		Error(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// FilterUserSummary 转换为用户目录条目，隐藏敏感字段
func FilterUserSummary(user *model.User) model.UserSummary {
	return model.UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// FilterUserSummaries 批量转换用户目录条目
func FilterUserSummaries(users []*model.User) []model.UserSummary {
	summaries := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, FilterUserSummary(u))
	}
	return summaries
}

// LoginResponse 登录/注册响应
type LoginResponse struct {
	User        model.UserSummary `json:"user"`
	AccessToken string            `json:"accessToken"`
}
