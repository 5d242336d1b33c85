package reconcile

import (
	"strings"
	"unicode"

	"docstack/internal/model"
)

// XrefIdentityField 规则 3 检查的身份字段
type XrefIdentityField string

const (
	IdentityDocumentNumber XrefIdentityField = "document_number"
	IdentityDocumentName   XrefIdentityField = "document_name"
)

var titleXrefMarkers = []string{"xref", "x ref", "x-ref"}

// Classifier 外部参照分类器，无状态
type Classifier struct {
	// ProjectCode 为空时规则 3 不生效
	ProjectCode   string
	IdentityField XrefIdentityField
}

// Classify 按优先级匹配，先命中者为准
func (c Classifier) Classify(r model.Record) model.XrefClass {
	// 每个标题字段单独匹配，不跨字段拼接
	for _, title := range r.Titles {
		if containsFold(title, "3D MODEL") {
			return model.Xref3DModel
		}
	}
	for _, title := range r.Titles {
		for _, marker := range titleXrefMarkers {
			if containsFold(title, marker) {
				return model.XrefTitle
			}
		}
	}
	if c.ProjectCode != "" {
		identity := c.identity(r)
		if countUpper(identity) > 1 && !strings.Contains(identity, c.ProjectCode) {
			return model.XrefProp
		}
	}
	return model.XrefNone
}

func (c Classifier) identity(r model.Record) string {
	if c.IdentityField == IdentityDocumentName {
		return r.DocumentName
	}
	return r.DocumentNumber
}

func countUpper(s string) int {
	n := 0
	for _, c := range s {
		if unicode.IsUpper(c) {
			n++
		}
	}
	return n
}
