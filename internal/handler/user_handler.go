package handler

import (
	"net/http"

	"message-center/internal/service"
	"message-center/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler 创建UserHandler实例
func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Register 注册
// POST /api/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Register(r.Name, r.Email, r.Password, r.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.LoginResponse{
		User:        response.FilterUserSummary(user),
		AccessToken: token,
	})
}

// Login 登录
// POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Login(r.Email, r.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.LoginResponse{
		User:        response.FilterUserSummary(user),
		AccessToken: token,
	})
}

// ListUsers 获取用户目录
// GET /api/users，用于选择收件人与解析"第一个管理员"
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers()
	if err != nil {
		response.InternalError(c, "获取用户列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": response.FilterUserSummaries(users)})
}
