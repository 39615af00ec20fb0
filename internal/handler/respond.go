// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.CodeInternal, "内部错误")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	})
}

// requirePost 校验请求方法
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return false
	}
	return true
}

// StaffInput 人员输入
type StaffInput struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Department        string   `json:"department"`
	Role              string   `json:"role,omitempty"`
	Status            string   `json:"status,omitempty"`
	ShiftsThisMonth   int      `json:"shifts_this_month,omitempty"`
	WeekendShifts     int      `json:"weekend_shifts,omitempty"`
	LastShiftDate     string   `json:"last_shift_date,omitempty"`
	MaxShiftsPerMonth int      `json:"max_shifts_per_month,omitempty"`
	UnavailableDates  []string `json:"unavailable_dates,omitempty"`
	ReservedDates     []string `json:"reserved_dates,omitempty"`
}

// ShiftInput 班次输入
type ShiftInput struct {
	ID         string `json:"id,omitempty"`
	Hospital   string `json:"hospital,omitempty"`
	Department string `json:"department"`
	Date       string `json:"date"`
	ShiftType  string `json:"shift_type,omitempty"`
	StaffID    string `json:"staff_id,omitempty"`
	StaffName  string `json:"staff_name,omitempty"`
	Status     string `json:"status,omitempty"`
}

// parseStaffPool 把人员输入转换为模型
func parseStaffPool(inputs []StaffInput) ([]*model.StaffMember, *errors.AppError) {
	pool := make([]*model.StaffMember, 0, len(inputs))
	for _, in := range inputs {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式: "+in.ID)
		}
		member := &model.StaffMember{
			BaseModel:         model.BaseModel{ID: id},
			Name:              in.Name,
			Department:        in.Department,
			Role:              model.Role(in.Role),
			Status:            in.Status,
			ShiftsThisMonth:   in.ShiftsThisMonth,
			WeekendShifts:     in.WeekendShifts,
			LastShiftDate:     in.LastShiftDate,
			MaxShiftsPerMonth: in.MaxShiftsPerMonth,
			UnavailableDates:  in.UnavailableDates,
			ReservedDates:     in.ReservedDates,
		}
		pool = append(pool, member)
	}
	return pool, nil
}

// parseShifts 把班次输入转换为模型
func parseShifts(inputs []ShiftInput) ([]*model.Shift, *errors.AppError) {
	shifts := make([]*model.Shift, 0, len(inputs))
	for _, in := range inputs {
		shift := &model.Shift{
			Hospital:   in.Hospital,
			Department: model.Department(in.Department),
			Date:       in.Date,
			ShiftType:  in.ShiftType,
			StaffName:  in.StaffName,
			Status:     model.ShiftStatus(in.Status),
		}
		if in.ID != "" {
			id, err := uuid.Parse(in.ID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的班次ID格式: "+in.ID)
			}
			shift.ID = id
		} else {
			shift.ID = uuid.New()
		}
		if in.StaffID != "" {
			staffID, err := uuid.Parse(in.StaffID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式: "+in.StaffID)
			}
			shift.StaffID = &staffID
		}
		if shift.Status == "" {
			if shift.StaffID != nil {
				shift.Status = model.ShiftAssigned
			} else {
				shift.Status = model.ShiftOpen
			}
		}
		if shift.ShiftType == "" {
			shift.ShiftType = model.DefaultShiftType
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}

// shiftOutput 班次输出
type shiftOutput struct {
	ID         string `json:"id"`
	Hospital   string `json:"hospital,omitempty"`
	Department string `json:"department"`
	Date       string `json:"date"`
	ShiftType  string `json:"shift_type"`
	StaffID    string `json:"staff_id,omitempty"`
	StaffName  string `json:"staff_name,omitempty"`
	Status     string `json:"status"`
}

func toShiftOutputs(shifts []*model.Shift) []shiftOutput {
	out := make([]shiftOutput, len(shifts))
	for i, s := range shifts {
		out[i] = shiftOutput{
			ID:         s.ID.String(),
			Hospital:   s.Hospital,
			Department: string(s.Department),
			Date:       s.Date,
			ShiftType:  s.ShiftType,
			StaffName:  s.StaffName,
			Status:     string(s.Status),
		}
		if s.StaffID != nil {
			out[i].StaffID = s.StaffID.String()
		}
	}
	return out
}
