package swap

import (
	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// EligibleTakers 返回可接手指定班次的候选人，按负载升序排列
//
// 候选条件：同科室、非当前持有人、该日期可用且未被排班。
// 负载从当月已有班次累计，用于把班换给最清闲的人。
// 开放式换班审批时用它给审批人列出建议接班人。
func EligibleTakers(pool []*model.StaffMember, monthShifts []*model.Shift, shift *model.Shift, n *department.Normalizer) []*model.StaffMember {
	if shift == nil {
		return nil
	}
	if n == nil {
		n = department.NewNormalizer(nil)
	}

	loads := make(scheduler.LoadState, len(pool))
	busy := make(map[uuid.UUID]bool) // 当天已有班的人
	for _, s := range monthShifts {
		if s.StaffID == nil {
			continue
		}
		loads.Apply(*s.StaffID, s.Date)
		if s.Date == shift.Date {
			busy[*s.StaffID] = true
		}
	}

	filter := scheduler.NewAvailabilityFilter(n)
	opts := scheduler.DefaultFilterOptions()
	opts.Department = string(shift.Department)
	opts.CheckConsecutive = false // 换班是人工决策，连班只提示不拦截

	var takers []*model.StaffMember
	for _, candidate := range filter.Available(pool, loads, shift.Date, opts) {
		if shift.BelongsTo(candidate.ID) || busy[candidate.ID] {
			continue
		}
		takers = append(takers, candidate)
	}
	return takers
}
