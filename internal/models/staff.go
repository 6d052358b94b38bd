package models

import (
	"time"
)

// Staff 员工模型
type Staff struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PINHash     string     `gorm:"type:varchar(255);not null" json:"-"`
	Name        string     `gorm:"type:varchar(50);not null" json:"name"`
	Role        string     `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	Status      int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Staff) TableName() string {
	return "staff"
}

// StaffRole 员工角色
const (
	RoleStaff = "staff" // 普通员工：查看汇总、录入清点现金
	RoleAdmin = "admin" // 管理员：付出登记、删除操作、日结
)

// StaffStatus 员工状态
const (
	StaffStatusDisabled = 0 // 禁用
	StaffStatusActive   = 1 // 正常
)

// Actor 操作者（从认证上下文构造，贯穿服务层权限检查）
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsAdmin 是否为管理员
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
