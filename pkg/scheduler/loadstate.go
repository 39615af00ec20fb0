// Package scheduler 提供值班表生成引擎
package scheduler

import (
	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
)

// Load 单个人员的运行期负载
type Load struct {
	Total         int    // 本月班次数
	Weekend       int    // 周末班次数
	LastShiftDate string // 最近一次班次日期，空表示无
}

// LoadState 以人员 ID 为键的负载表
// 生成循环按日推进时在此累计，不共享、不回写 StaffMember，
// 避免原实现中共享可变对象带来的别名问题。
type LoadState map[uuid.UUID]*Load

// NewLoadState 从人员池的初始计数构建负载表
func NewLoadState(pool []*model.StaffMember) LoadState {
	state := make(LoadState, len(pool))
	for _, s := range pool {
		state[s.ID] = &Load{
			Total:         s.ShiftsThisMonth,
			Weekend:       s.WeekendShifts,
			LastShiftDate: s.LastShiftDate,
		}
	}
	return state
}

// Get 返回人员的负载（缺失时返回零值，不修改表）
func (ls LoadState) Get(staffID uuid.UUID) Load {
	if l, ok := ls[staffID]; ok {
		return *l
	}
	return Load{}
}

// Apply 记录一次分配
// 允许乱序喂入：YYYY-MM-DD 按字典序取最大值作为最近班次日期
func (ls LoadState) Apply(staffID uuid.UUID, date string) {
	l, ok := ls[staffID]
	if !ok {
		l = &Load{}
		ls[staffID] = l
	}
	l.Total++
	if date > l.LastShiftDate {
		l.LastShiftDate = date
	}
	if calendar.IsWeekend(date) {
		l.Weekend++
	}
}
