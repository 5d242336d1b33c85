package parser

import "time"

// SheetType Sheet 类型
type SheetType string

const (
	SheetTypeLoadsheet SheetType = "loadsheet"
	SheetTypeUnknown   SheetType = "unknown"
)

// 记录字段名（映射目标）
const (
	FieldDocumentName   = "document_name"
	FieldDocumentNumber = "document_number"
	FieldRevision       = "revision"
	FieldLegacyRevision = "legacy_revision"
	FieldLegacyMode     = "legacy_mode"
	FieldSheetNumber    = "sheet_number"
	FieldRenditionPath  = "rendition_path"
	FieldTitle          = "title"
	FieldDate           = "date"
)

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string    `json:"sheetName"`
	SheetType  SheetType `json:"sheetType"`
	Confidence float64   `json:"confidence"` // 置信度 0-1
	Missing    []string  `json:"missing,omitempty"`
}

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // Excel 列索引
	ColumnName  string `json:"columnName"`  // Excel 原始列名
	Field       string `json:"field"`       // 记录字段
}

// ParseResult 解析结果
type ParseResult struct {
	SheetName    string        `json:"sheetName"`
	SheetType    SheetType     `json:"sheetType"`
	Status       string        `json:"status"` // imported/skipped/error
	ImportedRows int           `json:"importedRows"`
	SkippedRows  int           `json:"skippedRows"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
}
