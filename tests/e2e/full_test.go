// 端到端测试：中间件链 + 处理器的整栈 HTTP 行为
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/internal/handler"
	"github.com/zhiban/zhiban/internal/hospital"
	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/middleware"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry := hospital.NewRegistry()
	def := hospital.CreateDefault()
	if err := registry.Register(def); err != nil {
		t.Fatalf("注册默认医院失败: %v", err)
	}

	rosterHandler := handler.NewRosterHandler(def.Normalizer(), def.ConfigTable())
	statsHandler := handler.NewStatsHandler(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/roster/generate", rosterHandler.Generate)
	mux.HandleFunc("/api/v1/roster/generate-month", rosterHandler.GenerateMonth)
	mux.HandleFunc("/api/v1/roster/validate", rosterHandler.Validate)
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"zhiban"}`))
	})

	root := middleware.Chain(mux,
		middleware.RecoveryMiddleware,
		middleware.RequestIDMiddleware,
		middleware.SecurityHeadersMiddleware,
		middleware.HospitalMiddleware(registry, def.Code),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(1000, time.Minute)),
		middleware.LoggingMiddleware,
	)

	server := httptest.NewServer(root)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化请求失败: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("读取响应失败: %v", err)
	}
	return resp, data
}

func TestFullStack_GenerateRoster(t *testing.T) {
	server := newTestServer(t)

	staff := []map[string]interface{}{
		{"id": uuid.New().String(), "name": "张三", "department": "Lab"},
		{"id": uuid.New().String(), "name": "李四", "department": "Lab"},
		{"id": uuid.New().String(), "name": "王五", "department": "Laborator"},
	}

	resp, data := postJSON(t, server.URL+"/api/v1/roster/generate", map[string]interface{}{
		"hospital":   "default",
		"department": "Lab",
		"year":       2025,
		"month":      6,
		"staff":      staff,
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("状态码 = %d, 响应: %s", resp.StatusCode, data)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("响应应携带 X-Request-ID")
	}
	if resp.Header.Get("X-Hospital") != "default" {
		t.Errorf("X-Hospital = %q, 应为 default", resp.Header.Get("X-Hospital"))
	}

	var result struct {
		Success    bool   `json:"success"`
		Department string `json:"department"`
		Shifts     []struct {
			Date    string `json:"date"`
			StaffID string `json:"staff_id"`
		} `json:"shifts"`
		Stats struct {
			TotalDays            int      `json:"total_days"`
			TotalShiftsGenerated int      `json:"total_shifts_generated"`
			UnassignedDates      []string `json:"unassigned_dates"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}

	if !result.Success {
		t.Error("success 应为 true")
	}
	if result.Department != "lab" {
		t.Errorf("department = %s, 应归一化为 lab", result.Department)
	}
	if result.Stats.TotalDays != 30 {
		t.Errorf("total_days = %d, 应为 30", result.Stats.TotalDays)
	}
	if got := result.Stats.TotalShiftsGenerated + len(result.Stats.UnassignedDates); got != 30 {
		t.Errorf("排班数+缺口数 = %d, 应为 30", got)
	}
}

func TestFullStack_GenerateInvalidMonth(t *testing.T) {
	server := newTestServer(t)

	resp, data := postJSON(t, server.URL+"/api/v1/roster/generate", map[string]interface{}{
		"department": "Lab",
		"year":       2025,
		"month":      13,
	})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("状态码 = %d, 应为 400，响应: %s", resp.StatusCode, data)
	}

	var result struct {
		Error bool   `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if result.Code != "INVALID_MONTH" {
		t.Errorf("code = %s, 应为 INVALID_MONTH", result.Code)
	}
}

func TestFullStack_UnknownHospitalRejected(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest("GET", server.URL+"/health", nil)
	req.Header.Set("X-Hospital", "nonexistent")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("状态码 = %d, 应为 404", resp.StatusCode)
	}
}

func TestFullStack_MetricsExposed(t *testing.T) {
	server := newTestServer(t)

	// 先跑一次生成，让指标有数据
	postJSON(t, server.URL+"/api/v1/roster/generate", map[string]interface{}{
		"department": "Lab",
		"year":       2025,
		"month":      6,
		"staff": []map[string]interface{}{
			{"id": uuid.New().String(), "name": "张三", "department": "Lab"},
		},
	})

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("状态码 = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("zhiban_roster_generation_total")) {
		t.Error("指标输出应包含 zhiban_roster_generation_total")
	}
	if !bytes.Contains(body, []byte("zhiban_http_requests_total")) {
		t.Error("指标输出应包含 zhiban_http_requests_total")
	}
}

func TestFullStack_SecurityHeaders(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("缺少 X-Content-Type-Options 响应头")
	}
}
