// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// ReservationStatus 预约状态
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"    // 生效中
	ReservationCancelled ReservationStatus = "cancelled" // 员工主动取消
	ReservationFulfilled ReservationStatus = "fulfilled" // 已并入确认班次
)

// Reservation 员工对特定日期/科室的值班预约
// 不变式：同一 (hospital, department, shift_type, date) 至多一条 active 预约；
// 同一 (staff, date) 至多一条 active 预约。
type Reservation struct {
	BaseModel
	Hospital   string            `json:"hospital" db:"hospital"`
	StaffID    uuid.UUID         `json:"staff_id" db:"staff_id"`
	Date       string            `json:"date" db:"date"` // YYYY-MM-DD
	Department Department        `json:"department" db:"department"`
	ShiftType  string            `json:"shift_type" db:"shift_type"`
	Status     ReservationStatus `json:"status" db:"status"`
}

// IsActive 检查预约是否生效中
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationActive
}
