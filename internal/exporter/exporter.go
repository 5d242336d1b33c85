package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docstack/internal/model"
	"docstack/internal/reconcile"
)

// 输出 Sheet 名
const (
	SheetReconciled = "Reconciled"
	SheetStacks     = "Stacks"
	SheetSummary    = "Summary"
)

// 输出列（追加在源列之后）
const (
	ColStackID           = "Stack ID"
	ColParsedSheetNumber = "Parsed Sheet Number"
	ColLatestRevision    = "Latest Revision"
	ColIsLatest          = "Is Latest"
	ColStackSheetCount   = "Stack Sheet Count"
	ColReviewStatus      = "Review Status"
	ColXref              = "XREF Classification"
	ColIsDuplicate       = "Is Duplicate"
	ColDupeStack         = "Dupe Stack"
	ColNameDuplicate     = "Name Duplicate"
	ColErrors            = "Errors"
)

// Input 导出输入：源表头、源记录与对账结果，三者按输入顺序对齐
type Input struct {
	Headers     []string
	Records     []model.Record
	Result      *reconcile.Result
	DateColumns []string
}

// Exporter 对账结果导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// OutputHeaders 追加的输出列
func OutputHeaders(dateColumns []string) []string {
	headers := []string{ColStackID, ColParsedSheetNumber, ColLatestRevision, ColIsLatest, ColStackSheetCount, ColReviewStatus}
	for _, col := range dateColumns {
		headers = append(headers, NormalizedDateHeader(col))
	}
	return append(headers, ColXref, ColIsDuplicate, ColDupeStack, ColNameDuplicate, ColErrors)
}

// NormalizedDateHeader 规范化日期列的列名
func NormalizedDateHeader(column string) string {
	return column + " (Normalized)"
}

// ReconciledRows 生成 "Reconciled" 表的表头与数据行（源列 + 输出列）
func ReconciledRows(in Input) ([]string, [][]any, error) {
	if in.Result == nil || len(in.Result.Annotations) != len(in.Records) {
		return nil, nil, fmt.Errorf("annotations do not match records")
	}

	headers := make([]string, 0, len(in.Headers)+len(in.DateColumns)+11)
	headers = append(headers, in.Headers...)
	headers = append(headers, OutputHeaders(in.DateColumns)...)

	rows := make([][]any, 0, len(in.Records))
	for i, rec := range in.Records {
		row := make([]any, 0, len(headers))
		for c := range in.Headers {
			v := ""
			if c < len(rec.Cells) {
				v = rec.Cells[c]
			}
			row = append(row, v)
		}
		row = append(row, AnnotationValues(in.Result.Annotations[i], in.DateColumns)...)
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// AnnotationValues 单行输出列的值，顺序与 OutputHeaders 一致
func AnnotationValues(a model.Annotation, dateColumns []string) []any {
	values := []any{a.StackID, a.ParsedSheetNumber, a.LatestRevision, a.IsLatest, a.StackSheetCount, a.ReviewStatus}
	for _, col := range dateColumns {
		values = append(values, a.NormalizedDates[col])
	}
	return append(values, string(a.Xref), a.IsDuplicate, a.DupeStack, a.NameDuplicate, FormatErrors(a.Errors))
}

// FormatErrors "Kind(field); Kind(field)"
func FormatErrors(errs []model.RecordError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s(%s)", e.Kind, e.Field))
	}
	return strings.Join(parts, "; ")
}

// Export 生成对账工作簿
func (e *Exporter) Export(in Input, progress func(ProgressEvent)) (*excelize.File, error) {
	reportProgress(progress, 0, "准备数据")
	headers, rows, err := ReconciledRows(in)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetReconciled); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := NewHeaderStyle(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	reportProgress(progress, 5, "写入对账明细")
	if err := writeTable(f, SheetReconciled, headers, rows, headerStyle, func(done int) {
		rowProgress(progress, 5, 80, done, len(rows), 500, "写入对账明细")
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("写入 %s 失败: %w", SheetReconciled, err)
	}

	reportProgress(progress, 85, "写入 Stack 汇总")
	if _, err := f.NewSheet(SheetStacks); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeTable(f, SheetStacks, stackHeaders, stackRows(in.Result.Stacks), headerStyle, nil); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("写入 %s 失败: %w", SheetStacks, err)
	}

	reportProgress(progress, 95, "写入统计")
	if _, err := f.NewSheet(SheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeTable(f, SheetSummary, []string{"Metric", "Value"}, summaryRows(in.Result.Summary), headerStyle, nil); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("写入 %s 失败: %w", SheetSummary, err)
	}

	f.SetActiveSheet(0)
	reportProgress(progress, 100, "完成")
	return f, nil
}

// NewHeaderStyle 表头样式：加粗、浅灰底、居中
func NewHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

// WriteHeader 写表头并冻结首行
func WriteHeader(f *excelize.File, sheet string, headers []string, style int) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, style int, onRow func(done int)) error {
	if err := WriteHeader(f, sheet, headers, style); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
		if onRow != nil {
			onRow(i + 1)
		}
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

var stackHeaders = []string{
	"Stack ID", "Document Number", "Rank", "Rows", "Latest Revision", "Latest Row",
	"Sheet Count", "Review Status", "Dupe Stack", "Resolved", "Reason",
}

func stackRows(stacks []model.StackSummary) [][]any {
	rows := make([][]any, 0, len(stacks))
	for _, s := range stacks {
		rows = append(rows, []any{
			s.StackID, s.DocumentNumber, s.Rank, s.Rows, s.LatestRevision, s.LatestRowNo,
			s.SheetCount, s.ReviewStatus, s.DupeStack, s.Resolved, s.Reason,
		})
	}
	return rows
}

func summaryRows(s model.Summary) [][]any {
	rows := [][]any{
		{"Total Records", s.TotalRecords},
		{"Total Stacks", s.TotalStacks},
		{"Duplicate Records", s.DuplicateRecords},
		{"Dupe Stacks", s.DupeStacks},
		{"XREF Records", s.XrefRecords},
	}
	for _, kind := range model.AllErrorKinds {
		rows = append(rows, []any{string(kind), s.Failures[kind]})
	}
	rows = append(rows,
		[]any{"Failures Total", s.FailureTotal()},
		[]any{"Unresolved Stacks", strings.Join(s.UnresolvedStacks, ", ")},
	)
	return rows
}
