// Package department 提供科室名称归一化与医院级科室配置
package department

import (
	"github.com/zhiban/zhiban/pkg/model"
)

// Config 医院级科室配置
type Config struct {
	Hospital   string           `json:"hospital"`
	Department model.Department `json:"department"`
	Enabled    bool             `json:"enabled"`
	ShiftType  string           `json:"shift_type"` // 该科室默认班次类型
	MinStaff   int              `json:"min_staff"`  // 最低值班人数
}

// ConfigTable 按 医院 × 科室 维度的配置表
type ConfigTable struct {
	entries map[string]Config
}

// NewConfigTable 创建配置表
func NewConfigTable() *ConfigTable {
	return &ConfigTable{entries: make(map[string]Config)}
}

func configKey(hospital string, dept model.Department) string {
	return hospital + "/" + string(dept)
}

// Set 设置某医院某科室的配置
func (t *ConfigTable) Set(cfg Config) {
	t.entries[configKey(cfg.Hospital, cfg.Department)] = cfg
}

// Lookup 查询某医院某科室的配置
// 未配置时返回默认值：启用、默认班次类型、最低 1 人
func (t *ConfigTable) Lookup(hospital string, dept model.Department) Config {
	if cfg, ok := t.entries[configKey(hospital, dept)]; ok {
		return cfg
	}
	return Config{
		Hospital:   hospital,
		Department: dept,
		Enabled:    true,
		ShiftType:  model.DefaultShiftType,
		MinStaff:   1,
	}
}

// Enabled 检查某医院是否启用了某科室
func (t *ConfigTable) Enabled(hospital string, dept model.Department) bool {
	return t.Lookup(hospital, dept).Enabled
}

// ShiftType 返回某医院某科室的默认班次类型
func (t *ConfigTable) ShiftType(hospital string, dept model.Department) string {
	cfg := t.Lookup(hospital, dept)
	if cfg.ShiftType == "" {
		return model.DefaultShiftType
	}
	return cfg.ShiftType
}
