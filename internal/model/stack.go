package model

// StackSummary 单个 Stack 的汇总
type StackSummary struct {
	StackID        string `json:"stackId"`
	DocumentNumber string `json:"documentNumber"`
	Rank           int    `json:"rank"`
	Rows           int    `json:"rows"`
	LatestRevision string `json:"latestRevision"`
	LatestRowNo    int    `json:"latestRowNo"`
	SheetCount     string `json:"sheetCount"`
	ReviewStatus   string `json:"reviewStatus"`
	DupeStack      bool   `json:"dupeStack"`
	Resolved       bool   `json:"resolved"`
	Reason         string `json:"reason,omitempty"` // 未解析原因
}

// Summary 一次对账的统计
type Summary struct {
	TotalRecords     int               `json:"totalRecords"`
	TotalStacks      int               `json:"totalStacks"`
	DuplicateRecords int               `json:"duplicateRecords"`
	DupeStacks       int               `json:"dupeStacks"`
	XrefRecords      int               `json:"xrefRecords"`
	Failures         map[ErrorKind]int `json:"failures"`
	UnresolvedStacks []string          `json:"unresolvedStacks,omitempty"`
}

// FailureTotal 所有类型错误的合计
func (s Summary) FailureTotal() int {
	total := 0
	for _, n := range s.Failures {
		total += n
	}
	return total
}
