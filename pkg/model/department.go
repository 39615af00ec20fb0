// Package model 定义值班排班引擎的核心数据模型
package model

// Department 科室（固定枚举）
type Department string

const (
	DeptEmergency  Department = "emergency"  // 急诊
	DeptICU        Department = "icu"        // 重症监护（ATI）
	DeptSurgery    Department = "surgery"    // 外科
	DeptLab        Department = "lab"        // 检验科
	DeptPediatrics Department = "pediatrics" // 儿科
)

// Departments 返回所有合法科室
func Departments() []Department {
	return []Department{
		DeptEmergency,
		DeptICU,
		DeptSurgery,
		DeptLab,
		DeptPediatrics,
	}
}

// Valid 检查科室是否为合法枚举值
func (d Department) Valid() bool {
	switch d {
	case DeptEmergency, DeptICU, DeptSurgery, DeptLab, DeptPediatrics:
		return true
	default:
		return false
	}
}

// String 实现 Stringer 接口
func (d Department) String() string {
	return string(d)
}
