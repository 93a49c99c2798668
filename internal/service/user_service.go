package service

import (
	"fmt"
	"strings"

	"message-center/internal/model"
	"message-center/internal/repository"
	"message-center/pkg/apperr"
	"message-center/pkg/jwt"
	"message-center/pkg/password"
)

// UserService 用户服务
// 注册/登录是身份协作方，消息核心只消费解析后的身份
type UserService struct {
	repo       *repository.UserRepository
	jwtService *jwt.JWTService
}

// NewUserService 创建UserService实例
func NewUserService(repo *repository.UserRepository, jwtService *jwt.JWTService) *UserService {
	return &UserService{repo: repo, jwtService: jwtService}
}

// Register 注册
// role 为空时默认为 customer
func (s *UserService) Register(name, email, plainPassword, role string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || plainPassword == "" {
		return nil, "", apperr.Validation("name, email and password are required")
	}

	if role == "" {
		role = model.RoleCustomer
	}
	switch role {
	case model.RoleCustomer, model.RoleAdmin, model.RoleSuperAdmin:
	default:
		return nil, "", apperr.Validation("invalid role")
	}

	// 密码哈希
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login 登录
func (s *UserService) Login(email, plainPassword string) (*model.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || plainPassword == "" {
		return nil, "", apperr.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, "", apperr.Validation("invalid credentials")
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, "", apperr.Validation("invalid credentials")
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ListUsers 获取用户目录
func (s *UserService) ListUsers() ([]*model.User, error) {
	return s.repo.List()
}

// issueToken 签发携带身份字段的访问令牌
func (s *UserService) issueToken(u *model.User) (string, error) {
	return s.jwtService.GenerateToken(
		fmt.Sprintf("%d", u.ID),
		map[string]interface{}{
			"name":  u.Name,
			"email": u.Email,
			"role":  u.Role,
		},
	)
}
