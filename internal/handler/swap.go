// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/swap"
)

// SwapHandler 换班处理器
type SwapHandler struct {
	service *swap.Service
}

// NewSwapHandler 创建换班处理器
func NewSwapHandler(service *swap.Service) *SwapHandler {
	return &SwapHandler{service: service}
}

// CreateSwapRequest 发起换班请求
type CreateSwapRequest struct {
	Hospital  string `json:"hospital"`
	StaffID   string `json:"staff_id"`
	ShiftID   string `json:"shift_id"`
	ToStaffID string `json:"to_staff_id,omitempty"` // 空表示开放式换班
	Reason    string `json:"reason,omitempty"`
}

// Create 发起换班
func (h *SwapHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req CreateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式"))
		return
	}
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的班次ID格式"))
		return
	}
	var toStaff *uuid.UUID
	if req.ToStaffID != "" {
		id, err := uuid.Parse(req.ToStaffID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的接班人ID格式"))
			return
		}
		toStaff = &id
	}

	sw, err := h.service.Create(r.Context(), req.Hospital, staffID, shiftID, toStaff, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sw)
}

// DecideSwapRequest 审批换班请求
type DecideSwapRequest struct {
	Hospital   string `json:"hospital"`
	SwapID     string `json:"swap_id"`
	ReviewerID string `json:"reviewer_id"`
	Role       string `json:"role"`
	Approve    bool   `json:"approve"`
	Note       string `json:"note,omitempty"`
}

// Decide 审批换班
func (h *SwapHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req DecideSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	swapID, err := uuid.Parse(req.SwapID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的换班请求ID格式"))
		return
	}
	reviewerID, err := uuid.Parse(req.ReviewerID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的审批人ID格式"))
		return
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		respondError(w, errors.InvalidInput("role", "无法识别的角色"))
		return
	}

	reviewer := model.Actor{ID: reviewerID, Role: role}
	sw, err := h.service.Decide(r.Context(), req.Hospital, reviewer, swapID, req.Approve, req.Note)
	if err != nil {
		respondError(w, err)
		return
	}
	metrics.RecordSwapDecision(string(sw.Status))

	respondJSON(w, http.StatusOK, sw)
}

// CancelSwapRequest 撤回换班请求
type CancelSwapRequest struct {
	Hospital string `json:"hospital"`
	StaffID  string `json:"staff_id"`
	SwapID   string `json:"swap_id"`
}

// Cancel 申请人撤回换班
func (h *SwapHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req CancelSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式"))
		return
	}
	swapID, err := uuid.Parse(req.SwapID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的换班请求ID格式"))
		return
	}

	if err := h.service.Cancel(r.Context(), req.Hospital, staffID, swapID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
