// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/stats"
)

// StatsHandler 统计处理器
type StatsHandler struct {
	calculator *stats.FairnessCalculator
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(cfg *stats.FairnessConfig) *StatsHandler {
	return &StatsHandler{
		calculator: stats.NewFairnessCalculator(cfg),
	}
}

// FairnessRequest 公平性分析请求
type FairnessRequest struct {
	Hospital   string       `json:"hospital,omitempty"`
	Department string       `json:"department,omitempty"`
	Shifts     []ShiftInput `json:"shifts"`
	Staff      []StaffInput `json:"staff"`
}

// Fairness 计算排班公平性报告
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req FairnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.Staff) == 0 {
		respondError(w, errors.InvalidInput("staff", "人员列表不能为空"))
		return
	}

	pool, appErr := parseStaffPool(req.Staff)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	shifts, appErr := parseShifts(req.Shifts)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	report := h.calculator.Calculate(shifts, pool)
	if req.Hospital != "" {
		dept := req.Department
		if dept == "" {
			dept = "all"
		}
		metrics.SetFairnessScore(req.Hospital, dept, report.Score)
	}

	respondJSON(w, http.StatusOK, report)
}
