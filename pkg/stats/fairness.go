// Package stats 提供值班统计分析功能
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
)

// StaffStat 人员统计
type StaffStat struct {
	StaffID     uuid.UUID `json:"staff_id"`
	StaffName   string    `json:"staff_name"`
	Total       int       `json:"total"`       // 本集合内总班次数
	Weekend     int       `json:"weekend"`     // 周末班次数
	Consecutive int       `json:"consecutive"` // 连班次数
}

// FairnessReport 公平性报告
type FairnessReport struct {
	Stats           map[string]*StaffStat `json:"stats"` // key: staff_id
	Average         float64               `json:"average"`
	Variance        float64               `json:"variance"`
	Score           float64               `json:"score"` // 0-100，100 为完全均衡
	Recommendations []string              `json:"recommendations"`
}

// FairnessConfig 公平性阈值配置
// 阈值是设计参数而非通用常量，默认值与线上行为保持一致
type FairnessConfig struct {
	OverworkRatio   float64 `json:"overwork_ratio"`   // 超过平均值倍数视为过劳
	UnderuseRatio   float64 `json:"underuse_ratio"`   // 低于平均值倍数视为利用不足
	MaxConsecutive  int     `json:"max_consecutive"`  // 连班次数告警阈值
	WeekendRatio    float64 `json:"weekend_ratio"`    // 周末班相对平均值的告警比例
	VariancePenalty float64 `json:"variance_penalty"` // 方差扣分系数
}

// DefaultFairnessConfig 返回默认阈值
func DefaultFairnessConfig() FairnessConfig {
	return FairnessConfig{
		OverworkRatio:   1.2,
		UnderuseRatio:   0.8,
		MaxConsecutive:  2,
		WeekendRatio:    0.4,
		VariancePenalty: 10,
	}
}

// FairnessCalculator 公平性计算器
type FairnessCalculator struct {
	config FairnessConfig
}

// NewFairnessCalculator 创建公平性计算器
func NewFairnessCalculator(cfg *FairnessConfig) *FairnessCalculator {
	if cfg == nil {
		def := DefaultFairnessConfig()
		cfg = &def
	}
	return &FairnessCalculator{config: *cfg}
}

// Calculate 计算给定班次集合的公平性报告
// 算法：按日期升序遍历班次，累计每人总数/周末数；若排序后的前一条
// 班次属于同一人且日期恰为前一天，则累计连班计数。统计口径覆盖
// 人员池全员（未排班者计 0），平均值与总体方差均基于总班次数。
func (c *FairnessCalculator) Calculate(shifts []*model.Shift, pool []*model.StaffMember) *FairnessReport {
	report := &FairnessReport{
		Stats:           make(map[string]*StaffStat, len(pool)),
		Recommendations: make([]string, 0),
	}

	for _, s := range pool {
		report.Stats[s.ID.String()] = &StaffStat{
			StaffID:   s.ID,
			StaffName: s.Name,
		}
	}

	if len(pool) == 0 {
		report.Score = 100
		return report
	}

	// 按日期升序
	sorted := make([]*model.Shift, 0, len(shifts))
	for _, s := range shifts {
		if s.StaffID != nil {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	for i, s := range sorted {
		stat, ok := report.Stats[s.StaffID.String()]
		if !ok {
			// 班次属于池外人员，为其补一条统计
			stat = &StaffStat{StaffID: *s.StaffID, StaffName: s.StaffName}
			report.Stats[s.StaffID.String()] = stat
		}

		stat.Total++
		if calendar.IsWeekend(s.Date) {
			stat.Weekend++
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.StaffID != nil && *prev.StaffID == *s.StaffID &&
				calendar.IsConsecutive(prev.Date, s.Date) {
				stat.Consecutive++
			}
		}
	}

	report.Average = c.average(report.Stats)
	report.Variance = c.variance(report.Stats, report.Average)

	if report.Variance == 0 {
		report.Score = 100
	} else {
		report.Score = math.Max(0, 100-c.config.VariancePenalty*report.Variance)
	}

	report.Recommendations = c.recommend(report)

	return report
}

// average 计算人均班次数
func (c *FairnessCalculator) average(stats map[string]*StaffStat) float64 {
	if len(stats) == 0 {
		return 0
	}
	sum := 0
	for _, st := range stats {
		sum += st.Total
	}
	return float64(sum) / float64(len(stats))
}

// variance 计算总班次数的总体方差
func (c *FairnessCalculator) variance(stats map[string]*StaffStat, mean float64) float64 {
	if len(stats) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, st := range stats {
		diff := float64(st.Total) - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(stats))
}

// recommend 生成人为可读的失衡建议
func (c *FairnessCalculator) recommend(report *FairnessReport) []string {
	recs := make([]string, 0)

	// 固定遍历顺序，保证输出可复现
	ids := make([]string, 0, len(report.Stats))
	for id := range report.Stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	avg := report.Average
	for _, id := range ids {
		st := report.Stats[id]
		name := st.StaffName
		if name == "" {
			name = id
		}

		if avg > 0 && float64(st.Total) > c.config.OverworkRatio*avg {
			recs = append(recs, fmt.Sprintf("%s 班次数 %d 超过平均值的 %.0f%%，建议减少排班", name, st.Total, c.config.OverworkRatio*100))
		}
		if avg > 0 && float64(st.Total) < c.config.UnderuseRatio*avg {
			recs = append(recs, fmt.Sprintf("%s 班次数 %d 低于平均值的 %.0f%%，可以增加排班", name, st.Total, c.config.UnderuseRatio*100))
		}
		if st.Consecutive > c.config.MaxConsecutive {
			recs = append(recs, fmt.Sprintf("%s 出现 %d 次连班，建议插入休息日", name, st.Consecutive))
		}
		if avg > 0 && float64(st.Weekend) > c.config.WeekendRatio*avg {
			recs = append(recs, fmt.Sprintf("%s 周末班 %d 次偏多，建议调整周末分布", name, st.Weekend))
		}
	}

	return recs
}
