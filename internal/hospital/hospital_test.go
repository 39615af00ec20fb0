package hospital

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/model"
)

func TestHospital_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		hospital *Hospital
		expected bool
	}{
		{
			name:     "启用医院",
			hospital: &Hospital{Status: "active"},
			expected: true,
		},
		{
			name:     "停用医院",
			hospital: &Hospital{Status: "suspended"},
			expected: false,
		},
		{
			name:     "未过期医院",
			hospital: &Hospital{Status: "active", ExpiredAt: &future},
			expected: true,
		},
		{
			name:     "已过期医院",
			hospital: &Hospital{Status: "active", ExpiredAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.hospital.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestHospital_Normalizer(t *testing.T) {
	h := &Hospital{
		Code:   "spital-a",
		Status: "active",
		Settings: Settings{
			ExtraAliases: map[string]string{"Reanimare": "icu"},
		},
	}

	n := h.Normalizer()
	if dept, ok := n.Normalize("Reanimare"); !ok || dept != model.DeptICU {
		t.Errorf("本院别名应归一化为 icu，实际 %s (ok=%v)", dept, ok)
	}
	// 全局别名仍然可用
	if dept, ok := n.Normalize("ATI"); !ok || dept != model.DeptICU {
		t.Errorf("全局别名应保留，实际 %s (ok=%v)", dept, ok)
	}
}

func TestHospital_ConfigTable(t *testing.T) {
	h := &Hospital{
		Code:   "spital-a",
		Status: "active",
		Settings: Settings{
			Departments: []department.Config{
				{Hospital: "spital-a", Department: model.DeptLab, Enabled: false},
			},
		},
	}

	table := h.ConfigTable()
	if table.Enabled("spital-a", model.DeptLab) {
		t.Error("本院停用的科室应不可排班")
	}
	if !table.Enabled("spital-a", model.DeptICU) {
		t.Error("未配置的科室默认启用")
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	h := &Hospital{
		ID:     uuid.New(),
		Code:   "spital-a",
		Name:   "测试医院",
		Status: "active",
	}

	if err := registry.Register(h); err != nil {
		t.Errorf("Register failed: %v", err)
	}

	got, err := registry.Get("spital-a")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if got.Code != "spital-a" {
		t.Errorf("Got wrong hospital: %v", got)
	}

	if _, err := registry.Get("nonexistent"); err != ErrHospitalNotFound {
		t.Errorf("Expected ErrHospitalNotFound, got: %v", err)
	}

	// 停用后不可获取
	h.Status = "suspended"
	if _, err := registry.Get("spital-a"); err != ErrHospitalDisabled {
		t.Errorf("Expected ErrHospitalDisabled, got: %v", err)
	}
}

func TestHospitalContext(t *testing.T) {
	h := &Hospital{Code: "spital-a"}
	ctx := WithHospital(context.Background(), h)

	got, ok := FromContext(ctx)
	if !ok {
		t.Error("FromContext should return true")
	}
	if got.Code != "spital-a" {
		t.Error("Got wrong hospital from context")
	}

	// 空上下文
	if _, ok := FromContext(context.Background()); ok {
		t.Error("Empty context should return false")
	}
}

func TestCreateDefault(t *testing.T) {
	h := CreateDefault()

	if h.Code != "default" {
		t.Errorf("Expected code='default', got %s", h.Code)
	}
	if !h.IsActive() {
		t.Error("默认医院应为启用状态")
	}
	if h.Settings.MaxWeekendShifts != 2 {
		t.Errorf("Expected MaxWeekendShifts=2, got %d", h.Settings.MaxWeekendShifts)
	}
}
