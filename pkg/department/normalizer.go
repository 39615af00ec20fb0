// Package department 提供科室名称归一化与医院级科室配置
package department

import (
	"strings"

	"github.com/zhiban/zhiban/pkg/model"
)

// defaultAliases 默认别名表（含各医院本地化拼写）
var defaultAliases = map[string]model.Department{
	// 急诊
	"Urgente":   model.DeptEmergency,
	"Urgențe":   model.DeptEmergency,
	"UPU":       model.DeptEmergency,
	"ER":        model.DeptEmergency,
	"Emergency": model.DeptEmergency,

	// 重症监护
	"ATI": model.DeptICU,
	"ICU": model.DeptICU,
	"Terapie Intensiva": model.DeptICU,

	// 外科
	"Chirurgie": model.DeptSurgery,
	"Surgery":   model.DeptSurgery,

	// 检验科
	"Lab":        model.DeptLab,
	"Laborator":  model.DeptLab,
	"Laboratory": model.DeptLab,
	"Analize":    model.DeptLab,

	// 儿科
	"Pediatrie":  model.DeptPediatrics,
	"Pediatrics": model.DeptPediatrics,
	"Copii":      model.DeptPediatrics,
}

// Normalizer 科室名称归一化器
type Normalizer struct {
	aliases map[string]model.Department
	lower   map[string]model.Department // 小写索引，用于大小写不敏感回退
}

// NewNormalizer 创建归一化器
// extra 为医院特有的别名，覆盖默认表中的同名项
func NewNormalizer(extra map[string]model.Department) *Normalizer {
	n := &Normalizer{
		aliases: make(map[string]model.Department, len(defaultAliases)+len(extra)),
		lower:   make(map[string]model.Department, len(defaultAliases)+len(extra)),
	}
	for k, v := range defaultAliases {
		n.add(k, v)
	}
	for k, v := range extra {
		n.add(k, v)
	}
	return n
}

func (n *Normalizer) add(alias string, dept model.Department) {
	n.aliases[alias] = dept
	n.lower[strings.ToLower(alias)] = dept
}

// Normalize 将自由文本科室名映射为规范枚举值
// 查找顺序：精确匹配 → 大小写不敏感匹配 → 输入本身已是规范值。
// 无法映射时返回 ok=false，这是合法结果而非错误——调用方应将
// 未映射人员排除在科室过滤之外，而不是中断流程。
func (n *Normalizer) Normalize(raw string) (model.Department, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	if dept, ok := n.aliases[trimmed]; ok {
		return dept, true
	}

	if dept, ok := n.lower[strings.ToLower(trimmed)]; ok {
		return dept, true
	}

	if d := model.Department(strings.ToLower(trimmed)); d.Valid() {
		return d, true
	}

	return "", false
}

// Same 检查两个原始科室名归一化后是否相同
// 任一无法映射时返回 false
func (n *Normalizer) Same(raw1, raw2 string) bool {
	d1, ok1 := n.Normalize(raw1)
	d2, ok2 := n.Normalize(raw2)
	return ok1 && ok2 && d1 == d2
}
