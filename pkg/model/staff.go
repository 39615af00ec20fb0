// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// StaffMember 医护人员
// 排班计数字段（ShiftsThisMonth 等）仅作为一次生成运行的初始值，
// 生成过程中的增量由 scheduler.LoadState 维护，不回写到本结构。
type StaffMember struct {
	BaseModel
	Name       string `json:"name" db:"name"`
	Hospital   string `json:"hospital" db:"hospital"`     // 所属医院编码
	Department string `json:"department" db:"department"` // 原始科室名（使用前需归一化）
	Role       Role   `json:"role" db:"role"`
	Status     string `json:"status" db:"status"` // active/inactive/leave

	// 排班负载（本月）
	ShiftsThisMonth int    `json:"shifts_this_month" db:"shifts_this_month"`
	WeekendShifts   int    `json:"weekend_shifts" db:"weekend_shifts"`
	LastShiftDate   string `json:"last_shift_date,omitempty" db:"last_shift_date"` // YYYY-MM-DD，空表示无

	// 每月值班上限（0 表示使用全局默认值）
	MaxShiftsPerMonth int `json:"max_shifts_per_month,omitempty" db:"max_shifts_per_month"`

	// 员工申报的不可用日期（休假等）
	UnavailableDates []string `json:"unavailable_dates,omitempty" db:"unavailable_dates"`

	// 员工预约的日期（优先保障）
	ReservedDates []string `json:"reserved_dates,omitempty" db:"reserved_dates"`
}

// IsActive 检查人员是否在职
func (s *StaffMember) IsActive() bool {
	return s.Status == "" || s.Status == "active"
}

// IsUnavailable 检查指定日期是否在不可用日期中
func (s *StaffMember) IsUnavailable(date string) bool {
	for _, d := range s.UnavailableDates {
		if d == date {
			return true
		}
	}
	return false
}

// HasReserved 检查指定日期是否已被该人员预约
func (s *StaffMember) HasReserved(date string) bool {
	for _, d := range s.ReservedDates {
		if d == date {
			return true
		}
	}
	return false
}

// MonthlyCap 返回该人员的每月值班上限
func (s *StaffMember) MonthlyCap(defaultCap int) int {
	if s.MaxShiftsPerMonth > 0 {
		return s.MaxShiftsPerMonth
	}
	return defaultCap
}

// StaffByID 构建人员 ID 索引
func StaffByID(pool []*StaffMember) map[uuid.UUID]*StaffMember {
	m := make(map[uuid.UUID]*StaffMember, len(pool))
	for _, s := range pool {
		m[s.ID] = s
	}
	return m
}
