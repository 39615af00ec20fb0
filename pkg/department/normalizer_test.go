package department

import (
	"testing"

	"github.com/zhiban/zhiban/pkg/model"
)

func TestNormalizer_ExactAlias(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		raw  string
		want model.Department
	}{
		{"ATI", model.DeptICU},
		{"Lab", model.DeptLab},
		{"Laborator", model.DeptLab},
		{"Urgente", model.DeptEmergency},
		{"Chirurgie", model.DeptSurgery},
		{"Pediatrie", model.DeptPediatrics},
	}

	for _, tc := range cases {
		got, ok := n.Normalize(tc.raw)
		if !ok {
			t.Errorf("Normalize(%q) 应该成功", tc.raw)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %s, 期望 %s", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizer_CaseInsensitiveFallback(t *testing.T) {
	n := NewNormalizer(nil)

	got, ok := n.Normalize("ati")
	if !ok || got != model.DeptICU {
		t.Errorf("Normalize(\"ati\") = %s, %v, 期望 icu, true", got, ok)
	}

	got, ok = n.Normalize("  lab  ")
	if !ok || got != model.DeptLab {
		t.Errorf("前后空白应被去除: %s, %v", got, ok)
	}
}

func TestNormalizer_CanonicalPassthrough(t *testing.T) {
	n := NewNormalizer(nil)

	for _, d := range model.Departments() {
		got, ok := n.Normalize(string(d))
		if !ok || got != d {
			t.Errorf("规范值 %s 应该原样通过，实际 %s, %v", d, got, ok)
		}
	}
}

func TestNormalizer_Unmapped(t *testing.T) {
	n := NewNormalizer(nil)

	// 未映射不是错误，调用方据此排除人员即可
	if _, ok := n.Normalize("Radiologie"); ok {
		t.Error("未知科室不应被映射")
	}
	if _, ok := n.Normalize(""); ok {
		t.Error("空串不应被映射")
	}
}

func TestNormalizer_HospitalExtraAliases(t *testing.T) {
	n := NewNormalizer(map[string]model.Department{
		"Sectia 3": model.DeptSurgery,
	})

	got, ok := n.Normalize("Sectia 3")
	if !ok || got != model.DeptSurgery {
		t.Errorf("医院特有别名应生效: %s, %v", got, ok)
	}

	// 默认别名仍然可用
	if _, ok := n.Normalize("ATI"); !ok {
		t.Error("默认别名不应被医院别名覆盖掉")
	}
}

func TestNormalizer_Same(t *testing.T) {
	n := NewNormalizer(nil)

	if !n.Same("ATI", "icu") {
		t.Error("ATI 与 icu 归一化后应相同")
	}
	if n.Same("ATI", "Lab") {
		t.Error("ATI 与 Lab 不应相同")
	}
	if n.Same("ATI", "Necunoscut") {
		t.Error("无法映射的科室不应判定为相同")
	}
}

func TestConfigTable_Defaults(t *testing.T) {
	tbl := NewConfigTable()

	cfg := tbl.Lookup("spital-a", model.DeptLab)
	if !cfg.Enabled {
		t.Error("未配置的科室默认应启用")
	}
	if cfg.ShiftType != model.DefaultShiftType {
		t.Errorf("默认班次类型错误: %s", cfg.ShiftType)
	}
	if cfg.MinStaff != 1 {
		t.Errorf("默认最低人数错误: %d", cfg.MinStaff)
	}
}

func TestConfigTable_SetLookup(t *testing.T) {
	tbl := NewConfigTable()
	tbl.Set(Config{
		Hospital:   "spital-a",
		Department: model.DeptICU,
		Enabled:    false,
		ShiftType:  "12h",
		MinStaff:   2,
	})

	if tbl.Enabled("spital-a", model.DeptICU) {
		t.Error("已禁用的科室应返回 false")
	}
	if got := tbl.ShiftType("spital-a", model.DeptICU); got != "12h" {
		t.Errorf("班次类型错误: %s", got)
	}

	// 其他医院不受影响
	if !tbl.Enabled("spital-b", model.DeptICU) {
		t.Error("其他医院的同名科室不应被禁用")
	}
}
