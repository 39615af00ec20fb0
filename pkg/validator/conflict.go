// Package validator 提供值班分配的冲突检测
package validator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "double_booking" // 同日重复排班
	ConflictRestPeriod    ConflictType = "rest_period"    // 休息时间不足风险
	ConflictMonthlyCap    ConflictType = "monthly_cap"    // 超过每月上限
)

// Severity 冲突严重程度
type Severity string

const (
	SeverityError   Severity = "error"   // 阻断性冲突
	SeverityWarning Severity = "warning" // 提示性冲突，需操作者确认后可继续
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity Severity     `json:"severity"`
	StaffID  uuid.UUID    `json:"staff_id"`
	Date     string       `json:"date"`
	Message  string       `json:"message"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MaxShiftsPerMonth int // 每月值班上限
	LongShiftHours    int // 触发休息风险的相邻班次时长阈值（小时）
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MaxShiftsPerMonth: 8,
		LongShiftHours:    12,
	}
}

// ConflictDetector 冲突检测器（无状态，可并发调用）
type ConflictDetector struct {
	config *DetectorConfig
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// Check 检测 (人员, 日期) 的候选分配与现有班次集合的冲突
// 三类检查全部执行并全部返回（不短路），因为一次分配可能同时
// 触发多类冲突。只有 error 级冲突应阻断操作，warning 级仅作提示。
func (d *ConflictDetector) Check(staffID uuid.UUID, date string, shifts []*model.Shift) []Conflict {
	return d.CheckWithCap(staffID, date, shifts, d.config.MaxShiftsPerMonth)
}

// CheckWithCap 同 Check，但使用给定的每月上限
func (d *ConflictDetector) CheckWithCap(staffID uuid.UUID, date string, shifts []*model.Shift, maxPerMonth int) []Conflict {
	conflicts := make([]Conflict, 0)

	conflicts = append(conflicts, d.checkDoubleBooking(staffID, date, shifts)...)
	conflicts = append(conflicts, d.checkRestPeriod(staffID, date, shifts)...)
	conflicts = append(conflicts, d.checkMonthlyCap(staffID, date, shifts, maxPerMonth)...)

	return conflicts
}

// checkDoubleBooking 检测同日重复排班
func (d *ConflictDetector) checkDoubleBooking(staffID uuid.UUID, date string, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict

	for _, s := range shifts {
		if !s.BelongsTo(staffID) || !s.IsTaken() {
			continue
		}
		if s.Date == date {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictDoubleBooking,
				Severity: SeverityError,
				StaffID:  staffID,
				Date:     date,
				Message:  fmt.Sprintf("该人员在 %s 已有班次（%s %s）", date, s.Department, s.ShiftType),
			})
		}
	}

	return conflicts
}

// checkRestPeriod 检测休息时间不足风险
// 相邻自然日（前一天或后一天）存在时长 ≥ 阈值的班次时告警。
// 这是"休息不足"的启发式近似，不是精确的时段重叠计算，
// 调用方不得将其作为阻断条件。
func (d *ConflictDetector) checkRestPeriod(staffID uuid.UUID, date string, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict

	prev := calendar.PrevDay(date)
	next := calendar.NextDay(date)

	for _, s := range shifts {
		if !s.BelongsTo(staffID) || !s.IsTaken() {
			continue
		}
		if s.Date != prev && s.Date != next {
			continue
		}
		if model.ShiftHours(s.ShiftType) < d.config.LongShiftHours {
			continue
		}

		side := "后"
		if s.Date == prev {
			side = "前"
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictRestPeriod,
			Severity: SeverityWarning,
			StaffID:  staffID,
			Date:     date,
			Message:  fmt.Sprintf("%s一天（%s）有 %s 长班，休息时间可能不足", side, s.Date, s.ShiftType),
		})
	}

	return conflicts
}

// checkMonthlyCap 检测每月上限
// 目标日期所在自然月内，该人员 assigned/reserved 班次数已达上限时告警
func (d *ConflictDetector) checkMonthlyCap(staffID uuid.UUID, date string, shifts []*model.Shift, maxPerMonth int) []Conflict {
	if maxPerMonth <= 0 {
		maxPerMonth = d.config.MaxShiftsPerMonth
	}

	count := 0
	for _, s := range shifts {
		if !s.BelongsTo(staffID) || !s.IsTaken() {
			continue
		}
		if calendar.SameMonth(s.Date, date) {
			count++
		}
	}

	if count < maxPerMonth {
		return nil
	}

	return []Conflict{{
		Type:     ConflictMonthlyCap,
		Severity: SeverityWarning,
		StaffID:  staffID,
		Date:     date,
		Message:  fmt.Sprintf("本月已有 %d 个班次，达到上限 %d", count, maxPerMonth),
	}}
}

// HasBlocking 检查冲突列表中是否存在阻断性冲突
func HasBlocking(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}
