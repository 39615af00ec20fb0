// Package hospital 提供多医院支持
//
// 每家医院可以有自己的科室别名拼写、科室启停和排班参数，
// 注册表把这些配置集中起来供生成器和预约模块取用。
package hospital

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/model"
)

var (
	ErrHospitalNotFound = errors.New("医院不存在")
	ErrInvalidHospital  = errors.New("无效的医院")
	ErrHospitalDisabled = errors.New("医院已停用")
)

// Hospital 医院
type Hospital struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`   // 医院编码，事件与存储中的 hospital 字段
	Name      string     `json:"name"`   // 医院名称
	Status    string     `json:"status"` // active/suspended
	Settings  Settings   `json:"settings"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// Settings 医院排班配置
type Settings struct {
	ExtraAliases      map[string]string   `json:"extra_aliases,omitempty"` // 本院科室别名拼写
	Departments       []department.Config `json:"departments,omitempty"`   // 科室启停与班型
	MaxWeekendShifts  int                 `json:"max_weekend_shifts"`
	MaxShiftsPerMonth int                 `json:"max_shifts_per_month"`
	APIRateLimit      int                 `json:"api_rate_limit"`
}

// IsActive 检查医院是否启用
func (h *Hospital) IsActive() bool {
	if h.Status != "active" {
		return false
	}
	if h.ExpiredAt != nil && h.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// Normalizer 返回带本院别名的科室归一化器
func (h *Hospital) Normalizer() *department.Normalizer {
	extra := make(map[string]model.Department, len(h.Settings.ExtraAliases))
	for alias, dept := range h.Settings.ExtraAliases {
		extra[alias] = model.Department(dept)
	}
	return department.NewNormalizer(extra)
}

// ConfigTable 返回本院的科室配置表
func (h *Hospital) ConfigTable() *department.ConfigTable {
	table := department.NewConfigTable()
	for _, cfg := range h.Settings.Departments {
		table.Set(cfg)
	}
	return table
}

// Registry 医院注册表
type Registry struct {
	hospitals map[string]*Hospital // code -> hospital
	mu        sync.RWMutex
}

// NewRegistry 创建医院注册表
func NewRegistry() *Registry {
	return &Registry{
		hospitals: make(map[string]*Hospital),
	}
}

// Register 注册医院
func (r *Registry) Register(h *Hospital) error {
	if h == nil || h.Code == "" {
		return ErrInvalidHospital
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.hospitals[h.Code] = h
	return nil
}

// Get 获取医院
func (r *Registry) Get(code string) (*Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.hospitals[code]
	if !exists {
		return nil, ErrHospitalNotFound
	}

	if !h.IsActive() {
		return nil, ErrHospitalDisabled
	}

	return h, nil
}

// List 列出所有医院
func (r *Registry) List() []*Hospital {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Hospital, 0, len(r.hospitals))
	for _, h := range r.hospitals {
		result = append(result, h)
	}
	return result
}

// Remove 移除医院
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hospitals, code)
}

type hospitalContextKey struct{}

// WithHospital 将医院添加到上下文
func WithHospital(ctx context.Context, h *Hospital) context.Context {
	return context.WithValue(ctx, hospitalContextKey{}, h)
}

// FromContext 从上下文获取医院
func FromContext(ctx context.Context) (*Hospital, bool) {
	h, ok := ctx.Value(hospitalContextKey{}).(*Hospital)
	return h, ok
}

// DefaultSettings 默认医院配置
func DefaultSettings() Settings {
	return Settings{
		MaxWeekendShifts:  2,
		MaxShiftsPerMonth: 8,
		APIRateLimit:      100,
	}
}

// CreateDefault 创建默认医院（开发测试用）
func CreateDefault() *Hospital {
	return &Hospital{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认医院",
		Status:    "active",
		Settings:  DefaultSettings(),
		CreatedAt: time.Now(),
	}
}
