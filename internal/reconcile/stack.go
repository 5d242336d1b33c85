package reconcile

import (
	"fmt"
	"strings"

	"docstack/internal/model"
)

// DefaultStackIDWidth Stack ID 序号默认补零宽度（容量 999）
const DefaultStackIDWidth = 3

// GroupingKey 文档编号的分组键：去首尾空白并转大写
func GroupingKey(documentNumber string) string {
	return strings.ToUpper(strings.TrimSpace(documentNumber))
}

// DistinctOrder 按首次出现顺序返回去重后的分组键
func DistinctOrder(records []model.Record) []string {
	seen := make(map[string]struct{}, len(records))
	order := make([]string, 0)
	for _, r := range records {
		key := GroupingKey(r.DocumentNumber)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		order = append(order, key)
	}
	return order
}

// StackAssignment 分组键到 Stack ID 的映射
type StackAssignment struct {
	IDs   map[string]string
	Ranks map[string]int
	// Overflow 超出编号容量、未分配 ID 的分组键（按顺序）
	Overflow []string
}

// FormatStackID 生成 "Stack_" + 补零序号
func FormatStackID(rank, width int) string {
	return fmt.Sprintf("Stack_%0*d", width, rank)
}

// StackCapacity 指定宽度下可分配的最大序号
func StackCapacity(width int) int {
	capacity := 1
	for i := 0; i < width; i++ {
		capacity *= 10
	}
	return capacity - 1
}

// AssignStackIDs 按给定顺序分配 Stack ID；order 中重复的键只有首次出现计入排名
func AssignStackIDs(order []string, width int) StackAssignment {
	if width <= 0 {
		width = DefaultStackIDWidth
	}
	capacity := StackCapacity(width)

	out := StackAssignment{
		IDs:   make(map[string]string, len(order)),
		Ranks: make(map[string]int, len(order)),
	}
	rank := 0
	for _, key := range order {
		if _, ok := out.Ranks[key]; ok {
			continue
		}
		rank++
		out.Ranks[key] = rank
		if rank > capacity {
			out.Overflow = append(out.Overflow, key)
			continue
		}
		out.IDs[key] = FormatStackID(rank, width)
	}
	return out
}

// Lookup 返回分组键对应的 Stack ID；超出容量时返回 ErrStackOverflow
func (a StackAssignment) Lookup(key string) (string, error) {
	if id, ok := a.IDs[key]; ok {
		return id, nil
	}
	if rank, ok := a.Ranks[key]; ok {
		return "", fmt.Errorf("document number %q has rank %d: %w", key, rank, ErrStackOverflow)
	}
	return "", fmt.Errorf("document number %q was not part of the ordering: %w", key, ErrStackOverflow)
}
