// Package scheduler 提供值班表生成引擎
package scheduler

import (
	"sort"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/model"
)

// FilterOptions 可用性过滤选项
type FilterOptions struct {
	Department       string // 科室过滤（原始名，归一化后比较）；空表示不过滤
	CheckConsecutive bool   // 是否排除昨日值班者
	MaxWeekendShifts int    // 周末班上限
}

// DefaultFilterOptions 返回默认过滤选项
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		CheckConsecutive: true,
		MaxWeekendShifts: 2,
	}
}

// AvailabilityFilter 可用性过滤器
type AvailabilityFilter struct {
	normalizer *department.Normalizer
}

// NewAvailabilityFilter 创建可用性过滤器
func NewAvailabilityFilter(n *department.Normalizer) *AvailabilityFilter {
	if n == nil {
		n = department.NewNormalizer(nil)
	}
	return &AvailabilityFilter{normalizer: n}
}

// Available 返回可在指定日期值班的人员，按优先级排序
//
// 过滤条件（全部满足才入选）：
//  1. 指定科室过滤时，归一化后科室一致（无法归一化的人员被排除）；
//  2. 日期不在人员申报的不可用日期中；
//  3. 开启连班检查时，昨天没有值班；
//  4. 周末日期时，周末班计数未达上限。
//
// 排序（升序即高优先）：周末按 (周末班数, 本月总数)，平日按本月总数。
// 使用稳定排序，平手保持输入顺序——这是确定性与可测试性的前提。
func (f *AvailabilityFilter) Available(pool []*model.StaffMember, loads LoadState, date string, opts FilterOptions) []*model.StaffMember {
	weekend := calendar.IsWeekend(date)

	wantDept := model.Department("")
	filterDept := false
	if opts.Department != "" {
		d, ok := f.normalizer.Normalize(opts.Department)
		if !ok {
			// 过滤科室本身无法识别：没有合格候选
			return nil
		}
		wantDept = d
		filterDept = true
	}

	candidates := make([]*model.StaffMember, 0, len(pool))
	for _, s := range pool {
		if filterDept {
			d, ok := f.normalizer.Normalize(s.Department)
			if !ok || d != wantDept {
				continue
			}
		}

		if s.IsUnavailable(date) {
			continue
		}

		load := loads.Get(s.ID)

		if opts.CheckConsecutive && load.LastShiftDate != "" &&
			calendar.IsConsecutive(load.LastShiftDate, date) {
			continue
		}

		if weekend && load.Weekend >= opts.MaxWeekendShifts {
			continue
		}

		candidates = append(candidates, s)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		li := loads.Get(candidates[i].ID)
		lj := loads.Get(candidates[j].ID)
		if weekend {
			if li.Weekend != lj.Weekend {
				return li.Weekend < lj.Weekend
			}
		}
		return li.Total < lj.Total
	})

	return candidates
}
