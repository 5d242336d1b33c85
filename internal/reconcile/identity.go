package reconcile

import (
	"fmt"
	"strings"
)

// 文档名中连字符数量的合法范围，超出即认为没有可识别的图纸页号
const (
	minIdentityHyphens = 3
	maxIdentityHyphens = 5
)

// StripExtension 去掉最后一个 "." 之后的扩展名；没有 "." 时返回原串
func StripExtension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// ParseSheetNumber 从文档名中提取两位页号
//
// 例: "95019-ARC-B1-L02-01.pdf" -> "01"；"95019-ARC-B1-L02-A101.pdf" -> ""（A1 后面还有字符）
func ParseSheetNumber(documentName string) (string, error) {
	base := StripExtension(strings.TrimSpace(documentName))
	hyps := strings.Count(base, "-")
	if hyps < minIdentityHyphens || hyps > maxIdentityHyphens {
		return "", fmt.Errorf("document name %q has %d hyphens: %w", documentName, hyps, ErrUnparseableIdentity)
	}

	// 第 hyps 个连字符即最后一个
	after := []rune(base[strings.LastIndex(base, "-")+1:])
	if len(after) < 2 {
		return "", fmt.Errorf("document name %q: sheet group too short: %w", documentName, ErrUnparseableIdentity)
	}
	tail, rest := after[:2], after[2:]
	if len(rest) > 0 {
		return "", fmt.Errorf("document name %q: trailing text after sheet group: %w", documentName, ErrUnparseableIdentity)
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("document name %q: sheet group %q is not numeric: %w", documentName, string(tail), ErrUnparseableIdentity)
		}
	}
	return string(tail), nil
}
