package parser

import (
	"strings"
)

// 识别阈值
const minLoadsheetConfidence = 0.5

// loadsheetKeyFields 装载表的关键列
var loadsheetKeyFields = []string{
	FieldDocumentName,
	FieldDocumentNumber,
	FieldRevision,
	FieldSheetNumber,
	FieldRenditionPath,
}

// PreferredSheetName 装载表默认 Sheet 名
const PreferredSheetName = "Documents"

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct{}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{}
}

// Recognize 根据表头识别是否为装载表
func (r *SheetRecognizer) Recognize(sheetName string, columnNames []string) SheetRecognitionResult {
	present := make(map[string]bool)
	for _, col := range columnNames {
		if field := MatchField(NormalizeColumnName(col)); field != "" {
			present[field] = true
		}
	}

	matchCount := 0
	var missing []string
	for _, field := range loadsheetKeyFields {
		if present[field] {
			matchCount++
			continue
		}
		missing = append(missing, field)
	}
	confidence := float64(matchCount) / float64(len(loadsheetKeyFields))

	// 没有文档编号无法分组，直接判定为未知
	if !present[FieldDocumentNumber] {
		return SheetRecognitionResult{
			SheetName:  sheetName,
			SheetType:  SheetTypeUnknown,
			Confidence: 0,
			Missing:    missing,
		}
	}

	// Sheet 名称辅助判定
	lower := strings.ToLower(sheetName)
	if strings.Contains(lower, "document") || strings.Contains(lower, "loadsheet") {
		confidence += 0.2
	}

	sheetType := SheetTypeUnknown
	if confidence >= minLoadsheetConfidence {
		sheetType = SheetTypeLoadsheet
	}
	return SheetRecognitionResult{
		SheetName:  sheetName,
		SheetType:  sheetType,
		Confidence: confidence,
		Missing:    missing,
	}
}
