// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// Role 用户角色
type Role string

const (
	RoleStaff   Role = "staff"   // 普通医护人员
	RoleManager Role = "manager" // 科室/医院管理者
	RoleAdmin   Role = "admin"   // 系统管理员
)

// CanReviewSwap 检查角色是否可以审批换班请求
func (r Role) CanReviewSwap() bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	case RoleStaff:
		return false
	default:
		return false
	}
}

// Valid 检查角色是否合法
func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor 操作者（携带身份与角色）
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Contains 检查日期是否在范围内（闭区间，字符串比较依赖 YYYY-MM-DD 格式）
func (dr DateRange) Contains(date string) bool {
	return date >= dr.StartDate && date <= dr.EndDate
}
