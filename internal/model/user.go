package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
// 客服消息的隐式收件人解析只认 admin/super_admin
const (
	RoleCustomer   = "customer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User 用户模型
// 邮箱唯一，密码仅存哈希
// 角色用于收件人解析与身份标识，不做权限分级

type User struct {
	ID           uint           `gorm:"primaryKey"`
	Name         string         `gorm:"type:varchar(64);not null;comment:姓名"`
	Email        string         `gorm:"type:varchar(128);not null;uniqueIndex;comment:邮箱"`
	PasswordHash string         `gorm:"type:varchar(255);not null;comment:密码哈希"`
	Role         string         `gorm:"type:varchar(32);not null;default:'customer';comment:角色"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName 指定表名（全局配置使用单数表名）
func (User) TableName() string { return "user" }

// IsStaff 是否为后台人员（admin 或 super_admin）
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// UserSummary 用户目录条目
// /api/users 返回的公开字段，也是客户端选择收件人的依据
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsStaff 目录条目是否为后台人员
func (u UserSummary) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// Identity 当前已认证用户的身份信息
// 由认证中间件从JWT中解析得到，核心逻辑只消费该结构
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
