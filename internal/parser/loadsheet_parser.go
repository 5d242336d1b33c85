package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docstack/internal/model"
)

// Loadsheet 解析后的装载表
type Loadsheet struct {
	SheetName string
	Headers   []string
	Mappings  map[int]FieldMapping
	Records   []model.Record
	Skipped   int // 整行为空被跳过的行数
}

// LoadsheetParser 装载表解析器
type LoadsheetParser struct {
	file       *excelize.File
	recognizer *SheetRecognizer
	mapper     *FieldMapper
}

// NewLoadsheetParser 创建解析器；dateColumns 为配置中声明的日期列
func NewLoadsheetParser(file *excelize.File, dateColumns []string) *LoadsheetParser {
	return &LoadsheetParser{
		file:       file,
		recognizer: NewSheetRecognizer(),
		mapper:     NewFieldMapper(dateColumns),
	}
}

// FindSheet 定位装载表
//
// 指定 sheetName 时只检查该 Sheet；否则优先 "Documents"，再取置信度最高者。
func (p *LoadsheetParser) FindSheet(sheetName string) (SheetRecognitionResult, error) {
	if sheetName != "" {
		res, err := p.recognizeSheet(sheetName)
		if err != nil {
			return res, err
		}
		if res.SheetType != SheetTypeLoadsheet {
			return res, fmt.Errorf("sheet %q is not a loadsheet (missing %s)", sheetName, strings.Join(res.Missing, ", "))
		}
		return res, nil
	}

	best := SheetRecognitionResult{SheetType: SheetTypeUnknown}
	for _, name := range p.file.GetSheetList() {
		res, err := p.recognizeSheet(name)
		if err != nil || res.SheetType != SheetTypeLoadsheet {
			continue
		}
		if strings.EqualFold(name, PreferredSheetName) {
			return res, nil
		}
		if res.Confidence > best.Confidence {
			best = res
		}
	}
	if best.SheetType != SheetTypeLoadsheet {
		return best, fmt.Errorf("no loadsheet found in workbook")
	}
	return best, nil
}

func (p *LoadsheetParser) recognizeSheet(sheetName string) (SheetRecognitionResult, error) {
	rows, err := p.file.GetRows(sheetName)
	if err != nil {
		return SheetRecognitionResult{SheetName: sheetName, SheetType: SheetTypeUnknown}, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return SheetRecognitionResult{SheetName: sheetName, SheetType: SheetTypeUnknown}, nil
	}
	return p.recognizer.Recognize(sheetName, rows[0]), nil
}

// ParseSheet 解析装载表；第一行为表头，记录按输入顺序编号
func (p *LoadsheetParser) ParseSheet(sheetName string) (*Loadsheet, error) {
	rows, err := p.file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	headers := rows[0]
	mappings := p.mapper.Map(headers)

	out := &Loadsheet{
		SheetName: sheetName,
		Headers:   headers,
		Mappings:  mappings,
	}
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isBlankRow(row) {
			out.Skipped++
			continue
		}
		record := p.parseRow(row, headers, mappings)
		record.RowNo = len(out.Records) + 1
		out.Records = append(out.Records, record)
	}
	return out, nil
}

// parseRow 解析单行；按列顺序处理以保证多列标题的顺序稳定
func (p *LoadsheetParser) parseRow(row, headers []string, mappings map[int]FieldMapping) model.Record {
	cells := make([]string, len(headers))
	copy(cells, row)

	record := model.Record{Cells: cells}
	legacyRevision := ""
	for colIdx := range headers {
		mapping, ok := mappings[colIdx]
		if !ok {
			continue
		}
		value := strings.TrimSpace(cells[colIdx])

		switch mapping.Field {
		case FieldDocumentName:
			record.DocumentName = value
		case FieldDocumentNumber:
			record.DocumentNumber = value
		case FieldRevision:
			record.Revision = value
		case FieldLegacyRevision:
			legacyRevision = value
		case FieldLegacyMode:
			record.LegacyMode = Truthy(value)
		case FieldSheetNumber:
			record.SheetNumber = NormalizeSheetNumber(value)
		case FieldRenditionPath:
			record.RenditionPath = value
		case FieldTitle:
			if value != "" {
				record.Titles = append(record.Titles, value)
			}
		case FieldDate:
			if record.Dates == nil {
				record.Dates = make(map[string]string)
			}
			record.Dates[mapping.ColumnName] = value
		}
	}

	// 旧版本号列：修订号为空时启用，或旗标列已声明旧口径时优先
	if legacyRevision != "" && (record.Revision == "" || record.LegacyMode) {
		record.Revision = legacyRevision
		record.LegacyMode = true
	}
	return record
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
