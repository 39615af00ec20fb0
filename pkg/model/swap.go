// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// SwapStatus 换班请求状态
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"   // 待审批（初始态）
	SwapApproved  SwapStatus = "approved"  // 已批准（终态）
	SwapRejected  SwapStatus = "rejected"  // 已拒绝（终态）
	SwapCancelled SwapStatus = "cancelled" // 申请人取消（终态）
)

// Terminal 检查是否为终态
func (s SwapStatus) Terminal() bool {
	return s != SwapPending
}

// SwapRequest 换班请求
// pending → approved/rejected 仅限管理者；pending → cancelled 仅限申请人。
type SwapRequest struct {
	BaseModel
	Hospital    string     `json:"hospital" db:"hospital"`
	ShiftID     uuid.UUID  `json:"shift_id" db:"shift_id"`
	FromStaffID uuid.UUID  `json:"from_staff_id" db:"from_staff_id"`
	ToStaffID   *uuid.UUID `json:"to_staff_id,omitempty" db:"to_staff_id"` // 空表示同科室任意符合条件者
	Reason      string     `json:"reason,omitempty" db:"reason"`
	Status      SwapStatus `json:"status" db:"status"`
	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewNote  string     `json:"review_note,omitempty" db:"review_note"`
}

// IsOpenOffer 检查是否为开放式换班（未指定目标人员）
func (r *SwapRequest) IsOpenOffer() bool {
	return r.ToStaffID == nil
}
