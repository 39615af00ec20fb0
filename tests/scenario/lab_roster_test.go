// 检验科月度排班场景测试
//
// 模拟小型医院检验科的真实配置：人少、整月 24 小时值班，
// 验证覆盖率、负载均衡和重复生成的幂等性。
package scenario

import (
	"testing"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

func labStaff(names ...string) []*model.StaffMember {
	pool := make([]*model.StaffMember, 0, len(names))
	for _, name := range names {
		pool = append(pool, &model.StaffMember{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			Name:       name,
			Hospital:   "spital-a",
			Department: "Laborator",
			Status:     "active",
		})
	}
	return pool
}

func TestLabMonth_ThreePeople(t *testing.T) {
	// 2025年6月：30天，周末日9天（6/1、7、8、14、15、21、22、28、29）
	pool := labStaff("张三", "李四", "王五")
	gen := scheduler.NewGenerator(nil, nil)

	result, err := gen.GenerateDepartment(2025, 6, pool, "Laborator", "spital-a", nil, nil)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	// 每天要么排上要么列入缺口，总和必须是30
	if got := result.Stats.TotalShiftsGenerated + len(result.Stats.UnassignedDates); got != 30 {
		t.Errorf("排班数+缺口数 = %d, 应为 30", got)
	}

	// 周末9天、3人×周末上限2只有6个名额，缺口必然出现在周末
	for _, date := range result.Stats.UnassignedDates {
		if !calendar.IsWeekend(date) {
			t.Errorf("工作日 %s 不应缺人", date)
		}
	}

	// 生成的班次应全部归一化为 lab 且分配给池内人员
	ids := make(map[uuid.UUID]bool)
	for _, s := range pool {
		ids[s.ID] = true
	}
	seen := make(map[string]bool)
	for _, shift := range result.Shifts {
		if shift.Department != model.DeptLab {
			t.Errorf("班次科室 = %s, 应为 lab", shift.Department)
		}
		if shift.Status != model.ShiftAssigned {
			t.Errorf("班次 %s 状态 = %s, 应为 assigned", shift.Date, shift.Status)
		}
		if shift.StaffID == nil || !ids[*shift.StaffID] {
			t.Errorf("班次 %s 分配给了池外人员", shift.Date)
		}
		if seen[shift.Date] {
			t.Errorf("日期 %s 被排了两次", shift.Date)
		}
		seen[shift.Date] = true
	}

	// 周末上限硬约束
	weekend := make(map[uuid.UUID]int)
	for _, shift := range result.Shifts {
		if calendar.IsWeekend(shift.Date) {
			weekend[*shift.StaffID]++
		}
	}
	for id, n := range weekend {
		if n > 2 {
			t.Errorf("人员 %s 周末班 %d 次，超过上限 2", id, n)
		}
	}
}

func TestLabMonth_FivePeopleFullCoverage(t *testing.T) {
	// 5人池：周末容量 5×2=10 ≥ 9，应做到整月无缺口
	pool := labStaff("张三", "李四", "王五", "赵六", "钱七")
	gen := scheduler.NewGenerator(nil, nil)

	result, err := gen.GenerateDepartment(2025, 6, pool, "Lab", "spital-a", nil, nil)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}

	if len(result.Stats.UnassignedDates) != 0 {
		t.Errorf("缺口日期 = %v, 应无缺口", result.Stats.UnassignedDates)
	}
	if len(result.Shifts) != 30 {
		t.Fatalf("班次数 = %d, 应为 30", len(result.Shifts))
	}

	// 最闲优先的贪心应把负载摊得很平
	totals := make(map[uuid.UUID]int)
	for _, shift := range result.Shifts {
		totals[*shift.StaffID]++
	}
	min, max := 31, 0
	for _, n := range totals {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	if max-min > 2 {
		t.Errorf("负载最大差 = %d (min=%d max=%d), 应不超过 2", max-min, min, max)
	}
}

func TestLabMonth_Idempotent(t *testing.T) {
	pool := labStaff("张三", "李四", "王五", "赵六", "钱七")
	gen := scheduler.NewGenerator(nil, nil)

	first, err := gen.GenerateDepartment(2025, 6, pool, "Lab", "spital-a", nil, nil)
	if err != nil {
		t.Fatalf("首次生成失败: %v", err)
	}

	// 已有班次原样传回，再次生成不应产生任何新班次
	second, err := gen.GenerateDepartment(2025, 6, pool, "Lab", "spital-a", first.Shifts, nil)
	if err != nil {
		t.Fatalf("二次生成失败: %v", err)
	}
	if len(second.Shifts) != 0 {
		t.Errorf("二次生成了 %d 个班次，应为 0", len(second.Shifts))
	}
}

func TestMonth_MultiDepartmentFairness(t *testing.T) {
	pool := append(labStaff("张三", "李四", "王五"), &model.StaffMember{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Name:       "孙八",
		Hospital:   "spital-a",
		Department: "ATI",
		Status:     "active",
	}, &model.StaffMember{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Name:       "周九",
		Hospital:   "spital-a",
		Department: "ICU",
		Status:     "active",
	})
	gen := scheduler.NewGenerator(nil, nil)

	result, err := gen.GenerateMonth(2025, 6, pool, []string{"Lab", "ATI"}, "spital-a", nil, nil)
	if err != nil {
		t.Fatalf("整月生成失败: %v", err)
	}

	if result.Fairness == nil {
		t.Fatal("整月生成应附带公平性报告")
	}
	if result.Fairness.Score < 0 || result.Fairness.Score > 100 {
		t.Errorf("公平性得分 = %f, 应在 0-100", result.Fairness.Score)
	}
	if len(result.DepartmentStats) != 2 {
		t.Errorf("科室统计数 = %d, 应为 2", len(result.DepartmentStats))
	}
	// ATI 与 ICU 是同一科室的两种写法，两人共同承担
	if _, ok := result.DepartmentStats["icu"]; !ok {
		t.Error("缺少 icu 的科室统计")
	}
}
