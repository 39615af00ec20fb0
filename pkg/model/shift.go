// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ShiftStatus 班次状态
type ShiftStatus string

const (
	ShiftOpen     ShiftStatus = "open"     // 空缺，可被认领
	ShiftReserved ShiftStatus = "reserved" // 已被预约，待确认
	ShiftAssigned ShiftStatus = "assigned" // 已分配
)

// Valid 检查状态是否合法
func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftOpen, ShiftReserved, ShiftAssigned:
		return true
	default:
		return false
	}
}

// Shift 值班班次
// 不变式：同一 (hospital, department, shift_type, date) 至多一条记录；
// assigned/reserved 状态的班次必须有且仅有一个 StaffID。
type Shift struct {
	BaseModel
	Hospital   string      `json:"hospital" db:"hospital"`
	Department Department  `json:"department" db:"department"`
	Date       string      `json:"date" db:"date"`             // YYYY-MM-DD
	ShiftType  string      `json:"shift_type" db:"shift_type"` // 24h/12h/8h 等时长标签
	StaffID    *uuid.UUID  `json:"staff_id,omitempty" db:"staff_id"`
	StaffName  string      `json:"staff_name,omitempty" db:"staff_name"`
	Status     ShiftStatus `json:"status" db:"status"`
}

// IsTaken 检查班次是否已被占用（assigned 或 reserved）
func (s *Shift) IsTaken() bool {
	return s.Status == ShiftAssigned || s.Status == ShiftReserved
}

// BelongsTo 检查班次是否属于指定人员
func (s *Shift) BelongsTo(staffID uuid.UUID) bool {
	return s.StaffID != nil && *s.StaffID == staffID
}

// DefaultShiftType 默认班次类型
const DefaultShiftType = "24h"

// ShiftHours 解析班次类型标签的时长（小时）
// 形如 "24h"/"12h"/"8h"；无法解析时按 24 小时处理
func ShiftHours(shiftType string) int {
	t := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(shiftType)), "h")
	if n, err := strconv.Atoi(t); err == nil && n > 0 {
		return n
	}
	return 24
}
