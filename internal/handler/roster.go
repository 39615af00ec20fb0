// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/validator"
)

// RosterHandler 值班表处理器
//
// 生成接口是无状态的：人员池与已有班次随请求携带，
// 落库由调用方决定。
type RosterHandler struct {
	generator *scheduler.Generator
}

// NewRosterHandler 创建值班表处理器
func NewRosterHandler(n *department.Normalizer, configs *department.ConfigTable) *RosterHandler {
	return &RosterHandler{
		generator: scheduler.NewGenerator(n, configs),
	}
}

// GenerateRequest 单科室生成请求
type GenerateRequest struct {
	Hospital   string           `json:"hospital"`
	Department string           `json:"department"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Staff      []StaffInput     `json:"staff"`
	Existing   []ShiftInput     `json:"existing,omitempty"`
	Options    *GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	ShiftType            string `json:"shift_type,omitempty"`
	MaxWeekendShifts     int    `json:"max_weekend_shifts,omitempty"`
	SkipConsecutiveCheck bool   `json:"skip_consecutive_check,omitempty"`
}

func (o *GenerateOptions) toScheduler() *scheduler.Options {
	if o == nil {
		return nil
	}
	return &scheduler.Options{
		ShiftType:            o.ShiftType,
		MaxWeekendShifts:     o.MaxWeekendShifts,
		SkipConsecutiveCheck: o.SkipConsecutiveCheck,
	}
}

// GenerateResponse 单科室生成响应
type GenerateResponse struct {
	Success    bool                       `json:"success"`
	Department string                     `json:"department"`
	Shifts     []shiftOutput              `json:"shifts"`
	Stats      *scheduler.GenerationStats `json:"stats"`
	Duration   string                     `json:"duration"`
}

// Generate 生成单科室月度值班表
func (h *RosterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Department == "" {
		respondError(w, errors.InvalidInput("department", "科室不能为空"))
		return
	}

	pool, appErr := parseStaffPool(req.Staff)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	existing, appErr := parseShifts(req.Existing)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	start := time.Now()
	result, err := h.generator.GenerateDepartment(
		req.Year, req.Month, pool, req.Department, req.Hospital, existing, req.Options.toScheduler(),
	)
	duration := time.Since(start)
	metrics.RecordRosterGeneration(req.Department, err == nil, duration)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.SetUnassignedDays(req.Hospital, string(result.Department), len(result.Stats.UnassignedDates))

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:    true,
		Department: string(result.Department),
		Shifts:     toShiftOutputs(result.Shifts),
		Stats:      result.Stats,
		Duration:   duration.String(),
	})
}

// GenerateMonthRequest 整月多科室生成请求
type GenerateMonthRequest struct {
	Hospital    string           `json:"hospital"`
	Departments []string         `json:"departments"`
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	Staff       []StaffInput     `json:"staff"`
	Existing    []ShiftInput     `json:"existing,omitempty"`
	Options     *GenerateOptions `json:"options,omitempty"`
}

// GenerateMonthResponse 整月生成响应
type GenerateMonthResponse struct {
	Success         bool                                  `json:"success"`
	Shifts          []shiftOutput                         `json:"shifts"`
	Stats           *scheduler.GenerationStats            `json:"stats"`
	DepartmentStats map[string]*scheduler.GenerationStats `json:"department_stats"`
	Fairness        interface{}                           `json:"fairness,omitempty"`
	Duration        string                                `json:"duration"`
}

// GenerateMonth 生成整月多科室值班表
func (h *RosterHandler) GenerateMonth(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req GenerateMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	pool, appErr := parseStaffPool(req.Staff)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	existing, appErr := parseShifts(req.Existing)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	start := time.Now()
	result, err := h.generator.GenerateMonth(
		req.Year, req.Month, pool, req.Departments, req.Hospital, existing, req.Options.toScheduler(),
	)
	duration := time.Since(start)
	for _, dept := range req.Departments {
		metrics.RecordRosterGeneration(dept, err == nil, duration)
	}
	if err != nil {
		respondError(w, err)
		return
	}

	if result.Fairness != nil {
		metrics.SetFairnessScore(req.Hospital, "all", result.Fairness.Score)
	}

	respondJSON(w, http.StatusOK, GenerateMonthResponse{
		Success:         true,
		Shifts:          toShiftOutputs(result.Shifts),
		Stats:           result.Stats,
		DepartmentStats: result.DepartmentStats,
		Fairness:        result.Fairness,
		Duration:        duration.String(),
	})
}

// ValidateRequest 排班冲突检测请求
type ValidateRequest struct {
	StaffID           string       `json:"staff_id"`
	Date              string       `json:"date"`
	Shifts            []ShiftInput `json:"shifts"`
	MaxShiftsPerMonth int          `json:"max_shifts_per_month,omitempty"`
}

// ValidateResponse 冲突检测响应
type ValidateResponse struct {
	Valid     bool                 `json:"valid"`
	Blocking  bool                 `json:"blocking"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Validate 检测候选分配的排班冲突
func (h *RosterHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式"))
		return
	}
	shifts, appErr := parseShifts(req.Shifts)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	detector := validator.NewConflictDetector(nil)
	var conflicts []validator.Conflict
	if req.MaxShiftsPerMonth > 0 {
		conflicts = detector.CheckWithCap(staffID, req.Date, shifts, req.MaxShiftsPerMonth)
	} else {
		conflicts = detector.Check(staffID, req.Date, shifts)
	}
	for _, c := range conflicts {
		metrics.RecordConflictCheck(string(c.Type), string(c.Severity))
	}

	if conflicts == nil {
		conflicts = []validator.Conflict{}
	}
	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:     len(conflicts) == 0,
		Blocking:  validator.HasBlocking(conflicts),
		Conflicts: conflicts,
	})
}
