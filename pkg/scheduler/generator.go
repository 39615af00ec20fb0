// Package scheduler 提供值班表生成引擎
package scheduler

import (
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/department"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/stats"
)

// Options 生成选项
type Options struct {
	ShiftType            string // 班次类型覆盖；空表示使用医院配置
	MaxWeekendShifts     int    // 周末班上限；0 表示默认值 2
	SkipConsecutiveCheck bool   // 跳过连班检查（默认不跳过）
}

// GenerationStats 生成统计
type GenerationStats struct {
	TotalDays            int      `json:"total_days"`
	TotalShiftsNeeded    int      `json:"total_shifts_needed"`
	TotalShiftsGenerated int      `json:"total_shifts_generated"`
	UnassignedDates      []string `json:"unassigned_dates"`
}

// DepartmentResult 单科室生成结果
type DepartmentResult struct {
	Department model.Department `json:"department"`
	Shifts     []*model.Shift   `json:"shifts"`
	Stats      *GenerationStats `json:"stats"`
}

// MonthResult 整月多科室生成结果
type MonthResult struct {
	Shifts          []*model.Shift              `json:"shifts"`
	Stats           *GenerationStats            `json:"stats"`
	DepartmentStats map[string]*GenerationStats `json:"department_stats"`
	Fairness        *stats.FairnessReport       `json:"fairness"`
}

// Generator 值班表生成器
// 同一科室同一月份的生成不可并发执行：正确性依赖逐日推进的
// 负载累计，运行中不会回读存储的中间状态，调用方需自行串行化。
type Generator struct {
	normalizer *department.Normalizer
	configs    *department.ConfigTable
	filter     *AvailabilityFilter
	fairness   *stats.FairnessCalculator
	logger     *logger.RosterLogger
}

// NewGenerator 创建生成器
func NewGenerator(n *department.Normalizer, configs *department.ConfigTable) *Generator {
	if n == nil {
		n = department.NewNormalizer(nil)
	}
	if configs == nil {
		configs = department.NewConfigTable()
	}
	return &Generator{
		normalizer: n,
		configs:    configs,
		filter:     NewAvailabilityFilter(n),
		fairness:   stats.NewFairnessCalculator(nil),
		logger:     logger.NewRosterLogger(),
	}
}

// GenerateDepartment 为目标月份生成单科室值班表
//
// 非错误的例外出口：
//   - 医院禁用该科室 → 空结果、needed 计 0（属正常跳过，不是错误）；
//   - 科室无任何人员 → 整月列入 unassigned（缺员要可上报，不抛错）。
//
// 天数按自然日升序处理——这一顺序是语义的一部分：
// 负载累计与连班检查都依赖它。
func (g *Generator) GenerateDepartment(
	year, month int,
	pool []*model.StaffMember,
	dept string,
	hospital string,
	existing []*model.Shift,
	opts *Options,
) (*DepartmentResult, error) {
	if !calendar.ValidYearMonth(year, month) {
		return nil, errors.New(errors.CodeInvalidMonth, "年月不合法").
			WithField("year", year).
			WithField("month", month)
	}

	canonical, ok := g.normalizer.Normalize(dept)
	if !ok {
		return nil, errors.UnknownDepartment(dept)
	}

	days := calendar.DaysInMonth(year, month)
	result := &DepartmentResult{
		Department: canonical,
		Shifts:     make([]*model.Shift, 0, days),
		Stats: &GenerationStats{
			TotalDays:       days,
			UnassignedDates: make([]string, 0),
		},
	}

	cfg := g.configs.Lookup(hospital, canonical)
	if !cfg.Enabled {
		// 科室被禁用：刻意跳过，needed 保持为 0
		return result, nil
	}

	start := time.Now()
	g.logger.StartGeneration(hospital, string(canonical), year, month, len(pool))

	deptPool := g.departmentPool(pool, canonical)
	result.Stats.TotalShiftsNeeded = days

	if len(deptPool) == 0 {
		// 缺员：整月上报为未分配
		for day := 1; day <= days; day++ {
			result.Stats.UnassignedDates = append(result.Stats.UnassignedDates, calendar.DateOf(year, month, day))
		}
		g.logger.GenerationComplete(hospital, string(canonical), 0, days, time.Since(start))
		return result, nil
	}

	shiftType := cfg.ShiftType
	if opts != nil && opts.ShiftType != "" {
		shiftType = opts.ShiftType
	}

	filterOpts := DefaultFilterOptions()
	filterOpts.Department = string(canonical)
	if opts != nil {
		if opts.MaxWeekendShifts > 0 {
			filterOpts.MaxWeekendShifts = opts.MaxWeekendShifts
		}
		if opts.SkipConsecutiveCheck {
			filterOpts.CheckConsecutive = false
		}
	}

	covered := g.coveredDates(existing, canonical, hospital)
	loads := NewLoadState(deptPool)
	g.seedLoads(loads, deptPool, existing, year, month, hospital)

	for day := 1; day <= days; day++ {
		date := calendar.DateOf(year, month, day)

		// 已有班次的日期直接跳过，保证对部分排好的月份幂等
		if covered[date] {
			continue
		}

		candidates := g.filter.Available(deptPool, loads, date, filterOpts)
		if len(candidates) == 0 && filterOpts.CheckConsecutive {
			// 连班规则仅在存在替代人选时生效：无人可用时放宽重试。
			// 周末上限不放宽，宁可留空也不突破。
			relaxed := filterOpts
			relaxed.CheckConsecutive = false
			candidates = g.filter.Available(deptPool, loads, date, relaxed)
		}
		if len(candidates) == 0 {
			result.Stats.UnassignedDates = append(result.Stats.UnassignedDates, date)
			g.logger.DayUnassigned(string(canonical), date)
			continue
		}

		picked := pickCandidate(candidates, date)
		staffID := picked.ID

		shift := &model.Shift{
			BaseModel:  model.NewBaseModel(),
			Hospital:   hospital,
			Department: canonical,
			Date:       date,
			ShiftType:  shiftType,
			StaffID:    &staffID,
			StaffName:  picked.Name,
			Status:     model.ShiftAssigned,
		}
		result.Shifts = append(result.Shifts, shift)
		loads.Apply(staffID, date)
	}

	result.Stats.TotalShiftsGenerated = len(result.Shifts)
	g.logger.GenerationComplete(hospital, string(canonical),
		result.Stats.TotalShiftsGenerated, len(result.Stats.UnassignedDates), time.Since(start))

	return result, nil
}

// GenerateMonth 为目标月份生成多科室值班表
// 逐科室调用单科室生成，合并班次与未分配日期（去重），
// 并基于合并结果附加公平性报告。
func (g *Generator) GenerateMonth(
	year, month int,
	pool []*model.StaffMember,
	departments []string,
	hospital string,
	existing []*model.Shift,
	opts *Options,
) (*MonthResult, error) {
	if len(departments) == 0 {
		return nil, errors.InvalidInput("departments", "科室列表不能为空")
	}

	result := &MonthResult{
		Shifts:          make([]*model.Shift, 0),
		DepartmentStats: make(map[string]*GenerationStats, len(departments)),
		Stats: &GenerationStats{
			UnassignedDates: make([]string, 0),
		},
	}

	seenUnassigned := make(map[string]bool)
	seenDept := make(map[model.Department]bool, len(departments))

	// 已生成的班次并入 existing 传给后续科室，
	// 科室列表里混入同一科室的别名写法时不会重复生成
	accumulated := make([]*model.Shift, 0, len(existing))
	accumulated = append(accumulated, existing...)

	for _, dept := range departments {
		if canonical, ok := g.normalizer.Normalize(dept); ok {
			if seenDept[canonical] {
				continue
			}
			seenDept[canonical] = true
		}

		deptResult, err := g.GenerateDepartment(year, month, pool, dept, hospital, accumulated, opts)
		if err != nil {
			return nil, err
		}

		result.Shifts = append(result.Shifts, deptResult.Shifts...)
		accumulated = append(accumulated, deptResult.Shifts...)
		result.DepartmentStats[string(deptResult.Department)] = deptResult.Stats

		result.Stats.TotalDays = deptResult.Stats.TotalDays
		result.Stats.TotalShiftsNeeded += deptResult.Stats.TotalShiftsNeeded
		result.Stats.TotalShiftsGenerated += deptResult.Stats.TotalShiftsGenerated
		for _, date := range deptResult.Stats.UnassignedDates {
			if !seenUnassigned[date] {
				seenUnassigned[date] = true
				result.Stats.UnassignedDates = append(result.Stats.UnassignedDates, date)
			}
		}
	}

	combined := make([]*model.Shift, 0, len(existing)+len(result.Shifts))
	combined = append(combined, existing...)
	combined = append(combined, result.Shifts...)
	result.Fairness = g.fairness.Calculate(combined, pool)

	return result, nil
}

// departmentPool 筛选属于目标科室的在职人员
func (g *Generator) departmentPool(pool []*model.StaffMember, dept model.Department) []*model.StaffMember {
	out := make([]*model.StaffMember, 0, len(pool))
	for _, s := range pool {
		if !s.IsActive() {
			continue
		}
		d, ok := g.normalizer.Normalize(s.Department)
		if !ok || d != dept {
			continue
		}
		out = append(out, s)
	}
	return out
}

// seedLoads 把本月已有班次计入负载表
//
// 重跑部分已排的月份时，周末计数和连班状态必须和首轮推进到的
// 状态一致，否则首轮因上限刻意留空的日子会在重跑时被错误补上。
// 人员自带的月度计数与 existing 独立累计，调用方按其一提供负载。
func (g *Generator) seedLoads(loads LoadState, pool []*model.StaffMember, existing []*model.Shift, year, month int, hospital string) {
	if len(existing) == 0 {
		return
	}

	poolIDs := make(map[uuid.UUID]bool, len(pool))
	for _, s := range pool {
		poolIDs[s.ID] = true
	}

	firstDay := calendar.DateOf(year, month, 1)
	for _, s := range existing {
		if s.StaffID == nil || !poolIDs[*s.StaffID] {
			continue
		}
		if s.Hospital != "" && hospital != "" && s.Hospital != hospital {
			continue
		}
		if !calendar.SameMonth(s.Date, firstDay) {
			continue
		}
		loads.Apply(*s.StaffID, s.Date)
	}
}

// coveredDates 收集已有班次覆盖的日期
func (g *Generator) coveredDates(existing []*model.Shift, dept model.Department, hospital string) map[string]bool {
	covered := make(map[string]bool, len(existing))
	for _, s := range existing {
		if s.Department != dept {
			continue
		}
		if s.Hospital != "" && hospital != "" && s.Hospital != hospital {
			continue
		}
		covered[s.Date] = true
	}
	return covered
}

// pickCandidate 在已排序候选中选人
// 预约了该日期的人优先；否则取排名第一者
func pickCandidate(candidates []*model.StaffMember, date string) *model.StaffMember {
	for _, c := range candidates {
		if c.HasReserved(date) {
			return c
		}
	}
	return candidates[0]
}
