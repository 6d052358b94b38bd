package models

import (
	"time"
)

// AuditLog 操作审计日志
// 记录对钱箱与日结状态的每一次写操作，供盘点纠纷时回溯
type AuditLog struct {
	ID         int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	StaffID    int64                  `gorm:"index;not null" json:"staff_id"`
	Module     string                 `gorm:"type:varchar(50);not null" json:"module"`
	Action     string                 `gorm:"type:varchar(50);not null" json:"action"`
	TargetType *string                `gorm:"type:varchar(50)" json:"target_type,omitempty"`
	TargetID   *int64                 `json:"target_id,omitempty"`
	Detail     map[string]interface{} `gorm:"serializer:json" json:"detail,omitempty"`
	IP         string                 `gorm:"type:varchar(45);not null" json:"ip"`
	UserAgent  *string                `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	CreatedAt  time.Time              `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
