// Package reservation 提供员工值班预约功能
//
// 员工可提前认领特定日期/科室的值班资格，排班生成时优先落位。
// 同一槽位的并发认领由存储层原子裁决，本包只负责业务规则校验。
package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
)

// Store 预约存储接口
//
// ClaimSlot 必须是原子操作：同一 (hospital, department, shift_type, date)
// 槽位已有 active 预约时返回 CodeAlreadyTaken 错误，不产生第二条记录。
type Store interface {
	ClaimSlot(ctx context.Context, r *model.Reservation) error
	CountActive(ctx context.Context, hospital string, staffID uuid.UUID) (int, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ReleaseIfActive(ctx context.Context, id uuid.UUID) (bool, error)
}

// StaffDirectory 人员目录接口
type StaffDirectory interface {
	GetStaff(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
}

// Notifier 预约事件通知接口
type Notifier interface {
	ReservationClaimed(ctx context.Context, r *model.Reservation)
	ReservationCancelled(ctx context.Context, r *model.Reservation)
}

// NopNotifier 空通知器，未接入消息通道时使用
type NopNotifier struct{}

func (NopNotifier) ReservationClaimed(ctx context.Context, r *model.Reservation)   {}
func (NopNotifier) ReservationCancelled(ctx context.Context, r *model.Reservation) {}

// Config 预约规则配置
type Config struct {
	MaxActive   int `json:"max_active"`   // 单人有效预约上限
	HorizonDays int `json:"horizon_days"` // 最远可预约天数
}

// DefaultConfig 返回默认预约规则
func DefaultConfig() Config {
	return Config{
		MaxActive:   3,
		HorizonDays: 60,
	}
}

// Manager 预约管理器
type Manager struct {
	store      Store
	staff      StaffDirectory
	normalizer *department.Normalizer
	notifier   Notifier
	cfg        Config
	log        *logger.RosterLogger
	now        func() time.Time
}

// NewManager 创建预约管理器，cfg 为 nil 时使用默认配置
func NewManager(store Store, staff StaffDirectory, n *department.Normalizer, notifier Notifier, cfg *Config) *Manager {
	if n == nil {
		n = department.NewNormalizer(nil)
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Manager{
		store:      store,
		staff:      staff,
		normalizer: n,
		notifier:   notifier,
		cfg:        c,
		log:        logger.NewRosterLogger(),
		now:        time.Now,
	}
}

// Reserve 认领指定日期/科室的值班预约
//
// 校验顺序：日期格式 → 预约窗口 → 科室识别 → 人员科室匹配 →
// 数量上限 → 存储层原子抢占。任一步失败即返回对应错误码。
func (m *Manager) Reserve(ctx context.Context, hospital string, staffID uuid.UUID, date, rawDept, shiftType string) (*model.Reservation, error) {
	if _, err := calendar.Parse(date); err != nil {
		return nil, errors.InvalidInput("date", "日期格式应为 YYYY-MM-DD")
	}

	// YYYY-MM-DD 字符串可直接按字典序比较
	today := calendar.Format(m.now())
	if date <= today {
		return nil, errors.DeadlineLocked(date, "只能预约未来日期")
	}
	if calendar.DaysBetween(today, date) > m.cfg.HorizonDays {
		return nil, errors.DeadlineLocked(date, "超出可预约窗口")
	}

	dept, ok := m.normalizer.Normalize(rawDept)
	if !ok {
		return nil, errors.UnknownDepartment(rawDept)
	}

	member, err := m.staff.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errors.NotFound("人员", staffID.String())
	}
	if staffDept, ok := m.normalizer.Normalize(member.Department); !ok || staffDept != dept {
		return nil, errors.WrongDepartment(member.Department, string(dept))
	}
	if member.IsUnavailable(date) {
		return nil, errors.DeadlineLocked(date, "该日期人员已登记为不可用")
	}

	active, err := m.store.CountActive(ctx, hospital, staffID)
	if err != nil {
		return nil, err
	}
	if active >= m.cfg.MaxActive {
		return nil, errors.LimitExceeded(staffID.String(), m.cfg.MaxActive)
	}

	if shiftType == "" {
		shiftType = model.DefaultShiftType
	}
	r := &model.Reservation{
		BaseModel:  model.NewBaseModel(),
		Hospital:   hospital,
		StaffID:    staffID,
		Date:       date,
		Department: dept,
		ShiftType:  shiftType,
		Status:     model.ReservationActive,
	}

	if err := m.store.ClaimSlot(ctx, r); err != nil {
		if errors.Is(err, errors.CodeAlreadyTaken) {
			m.log.ClaimConflict(staffID.String(), date, string(dept))
		}
		return nil, err
	}

	m.notifier.ReservationClaimed(ctx, r)
	return r, nil
}

// Cancel 取消本人的有效预约
func (m *Manager) Cancel(ctx context.Context, hospital string, staffID, reservationID uuid.UUID) error {
	r, err := m.store.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if r == nil || (hospital != "" && r.Hospital != "" && r.Hospital != hospital) {
		return errors.NotFound("预约", reservationID.String())
	}
	if r.StaffID != staffID {
		return errors.NotOwner("预约")
	}

	released, err := m.store.ReleaseIfActive(ctx, reservationID)
	if err != nil {
		return err
	}
	if !released {
		return errors.InvalidInput("status", "仅生效中的预约可取消")
	}

	r.Status = model.ReservationCancelled
	m.notifier.ReservationCancelled(ctx, r)
	return nil
}
