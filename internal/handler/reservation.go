// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/reservation"
)

// ReservationHandler 预约处理器
type ReservationHandler struct {
	manager *reservation.Manager
}

// NewReservationHandler 创建预约处理器
func NewReservationHandler(manager *reservation.Manager) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

// ReserveRequest 预约请求
type ReserveRequest struct {
	Hospital   string `json:"hospital"`
	StaffID    string `json:"staff_id"`
	Date       string `json:"date"`
	Department string `json:"department"`
	ShiftType  string `json:"shift_type,omitempty"`
}

// Reserve 认领值班预约
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式"))
		return
	}

	res, err := h.manager.Reserve(r.Context(), req.Hospital, staffID, req.Date, req.Department, req.ShiftType)
	if err != nil {
		metrics.RecordReservationClaim(req.Department, false)
		respondError(w, err)
		return
	}
	metrics.RecordReservationClaim(string(res.Department), true)

	respondJSON(w, http.StatusCreated, res)
}

// CancelReservationRequest 取消预约请求
type CancelReservationRequest struct {
	Hospital      string `json:"hospital"`
	StaffID       string `json:"staff_id"`
	ReservationID string `json:"reservation_id"`
}

// Cancel 取消本人预约
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req CancelReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的人员ID格式"))
		return
	}
	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的预约ID格式"))
		return
	}

	if err := h.manager.Cancel(r.Context(), req.Hospital, staffID, reservationID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
