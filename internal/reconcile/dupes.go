package reconcile

import (
	"fmt"
	"strings"

	"docstack/internal/model"
)

// CanonicalRevision 用于组合键的版本号：能解析则用规范形式（"3.0" 与 "3" 视为相同）
func CanonicalRevision(r model.Record) string {
	if rev, err := ParseRevision(r.Revision, r.LegacyMode); err == nil {
		return rev.String()
	}
	return strings.ToUpper(strings.TrimSpace(r.Revision))
}

// CompositeKey (文档编号, 版本号) 组合键
func CompositeKey(r model.Record) string {
	return GroupingKey(r.DocumentNumber) + "||" + CanonicalRevision(r)
}

// NameKey 文档名重复检查的键
func NameKey(r model.Record) string {
	return fold(r.DocumentName)
}

// DuplicateIndex 一次遍历建立的计数表，建立后只读
type DuplicateIndex struct {
	composite map[string][]int // 组合键 -> 记录下标（按输入顺序）
	names     map[string]int
}

// BuildDuplicateIndex 单次遍历统计组合键与文档名出现次数
func BuildDuplicateIndex(records []model.Record) DuplicateIndex {
	idx := DuplicateIndex{
		composite: make(map[string][]int, len(records)),
		names:     make(map[string]int, len(records)),
	}
	for i, r := range records {
		key := CompositeKey(r)
		idx.composite[key] = append(idx.composite[key], i)
		if name := NameKey(r); name != "" {
			idx.names[name]++
		}
	}
	return idx
}

// CompositeCount 组合键出现次数
func (d DuplicateIndex) CompositeCount(r model.Record) int {
	return len(d.composite[CompositeKey(r)])
}

// IsDuplicate 组合键出现超过一次
func (d DuplicateIndex) IsDuplicate(r model.Record) bool {
	return d.CompositeCount(r) > 1
}

// NameFlagged 文档名在整个记录集中出现超过一次
func (d DuplicateIndex) NameFlagged(r model.Record) bool {
	name := NameKey(r)
	return name != "" && d.names[name] > 1
}

// secondarySignature 重复组内用于判断“冲突”的次要属性
func secondarySignature(r model.Record, sheetNumber string) string {
	titles := make([]string, 0, len(r.Titles))
	for _, t := range r.Titles {
		if v := fold(t); v != "" {
			titles = append(titles, v)
		}
	}
	return strings.TrimSpace(sheetNumber) + "||" + strings.Join(titles, "|")
}

// FindConflicts 返回组合键重复且次要属性不一致的记录下标及原因
//
// sheetNumbers 与 records 下标对齐，为每行的有效页号。
func (d DuplicateIndex) FindConflicts(records []model.Record, sheetNumbers []string) map[int]error {
	conflicts := make(map[int]error)
	for key, members := range d.composite {
		if len(members) < 2 {
			continue
		}
		first := secondarySignature(records[members[0]], sheetNumbers[members[0]])
		differs := false
		for _, i := range members[1:] {
			if secondarySignature(records[i], sheetNumbers[i]) != first {
				differs = true
				break
			}
		}
		if !differs {
			continue
		}
		rows := make([]int, 0, len(members))
		for _, i := range members {
			rows = append(rows, records[i].RowNo)
		}
		for _, i := range members {
			conflicts[i] = fmt.Errorf("key %s on rows %v has differing sheet number or title: %w", key, rows, ErrConflictingDuplicate)
		}
	}
	return conflicts
}
