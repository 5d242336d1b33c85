package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold 大小写无关比较用的折叠；Caser 有状态，不能跨 goroutine 共享，每次新建
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func containsFold(text, sub string) bool {
	return strings.Contains(fold(text), fold(sub))
}
