package reconcile

import (
	"strings"

	"docstack/internal/model"
)

// reviewMarker 渲染路径中表示待复核的子串，区分大小写
const reviewMarker = "Review"

// EffectiveSheetNumber 优先用输入页号，为空时用从文档名解析出的页号
func EffectiveSheetNumber(r model.Record, parsed string) string {
	if v := strings.TrimSpace(r.SheetNumber); v != "" {
		return v
	}
	return parsed
}

// StackSheetCount 取 Stack 中输入顺序最后一行的有效页号（不是最大值）
//
// members 为 Stack 内记录下标，按输入顺序排列。
func StackSheetCount(members []int, sheetNumbers []string, sentinel string) string {
	if len(members) == 0 {
		return sentinel
	}
	if v := sheetNumbers[members[len(members)-1]]; v != "" {
		return v
	}
	return sentinel
}

// StackReviewStatus 任一成员的渲染路径包含 "Review" 即为 Review
func StackReviewStatus(records []model.Record, members []int) string {
	for _, i := range members {
		if strings.Contains(records[i].RenditionPath, reviewMarker) {
			return model.ReviewStatusReview
		}
	}
	return model.ReviewStatusNoReview
}
