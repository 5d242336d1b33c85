package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// 拆分输出的 Sheet / 表格名与导入码列
const (
	SheetName        = "Documents"
	TableName        = "Documents"
	ImportCodeColumn = "Import Code"
	tableStyle       = "TableStyleMedium2"
)

// Options 拆分参数
type Options struct {
	RowsPerSheet     int
	BaseName         string
	ImportCodePrefix string
	Workers          int // 并行写文件的协程上限
}

// Chunk 一个输出文件对应的行区间（闭区间，按输入行下标）
type Chunk struct {
	Index      int    `json:"index"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	ImportCode string `json:"importCode"`
}

// Size 行数
func (c Chunk) Size() int { return c.End - c.Start + 1 }

// Diagnostics 超大 Stack 统计：超过目标行数的 Stack 单独成块
type Diagnostics struct {
	MaxStackSize        int `json:"maxStackSize"`
	OversizedStackCount int `json:"oversizedStackCount"`
}

// Plan 拆分计划
type Plan struct {
	Chunks      []Chunk     `json:"chunks"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Output 已写出的文件
type Output struct {
	Path       string `json:"path"`
	ImportCode string `json:"importCode"`
	Rows       int    `json:"rows"`
}

type block struct {
	start, end int
}

// ImportCode "<prefix>-NNN"
func ImportCode(prefix string, index int) string {
	return fmt.Sprintf("%s-%03d", prefix, index)
}

// ChunkFileName "<base>-NNN.xlsx"
func ChunkFileName(base string, index int) string {
	return fmt.Sprintf("%s-%03d.xlsx", base, index)
}

// GroupByStack 返回按 Stack 归并后的行下标顺序
//
// Stack 按首次出现的先后排列，组内保持输入顺序；Stack ID 为空的行留在自己出现的位置。
func GroupByStack(stackIDs []string) []int {
	members := make(map[string][]int)
	for i, id := range stackIDs {
		if id != "" {
			members[id] = append(members[id], i)
		}
	}

	order := make([]int, 0, len(stackIDs))
	for i, id := range stackIDs {
		if id == "" {
			order = append(order, i)
			continue
		}
		if idx, ok := members[id]; ok {
			order = append(order, idx...)
			delete(members, id)
		}
	}
	return order
}

// PlanChunks 把连续相同 Stack ID 的行视为一个整体装箱，不拆开任何 Stack
//
// Stack ID 为空的行各自成块。单个 Stack 超过 rowsPerSheet 时独占一个块。
func PlanChunks(stackIDs []string, rowsPerSheet int, prefix string) Plan {
	if rowsPerSheet <= 0 {
		rowsPerSheet = 1
	}

	var blocks []block
	for i, id := range stackIDs {
		n := len(blocks)
		if n > 0 && id != "" && stackIDs[blocks[n-1].end] == id {
			blocks[n-1].end = i
			continue
		}
		blocks = append(blocks, block{start: i, end: i})
	}

	var plan Plan
	running := 0
	var cur block
	flush := func() {
		idx := len(plan.Chunks) + 1
		plan.Chunks = append(plan.Chunks, Chunk{
			Index:      idx,
			Start:      cur.start,
			End:        cur.end,
			ImportCode: ImportCode(prefix, idx),
		})
	}
	for _, b := range blocks {
		size := b.end - b.start + 1
		if size > plan.Diagnostics.MaxStackSize {
			plan.Diagnostics.MaxStackSize = size
		}
		if size > rowsPerSheet {
			plan.Diagnostics.OversizedStackCount++
		}

		switch {
		case running == 0:
			cur = b
			running = size
		case running+size <= rowsPerSheet:
			cur.end = b.end
			running += size
		default:
			flush()
			cur = b
			running = size
		}
	}
	if running > 0 {
		flush()
	}
	return plan
}

// Splitter 装载表拆分器
type Splitter struct {
	opts   Options
	logger *slog.Logger
}

// New 创建拆分器
func New(opts Options, logger *slog.Logger) *Splitter {
	if opts.RowsPerSheet <= 0 {
		opts.RowsPerSheet = 5000
	}
	if opts.BaseName == "" {
		opts.BaseName = "loadsheet"
	}
	if opts.ImportCodePrefix == "" {
		opts.ImportCodePrefix = "IMP"
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{opts: opts, logger: logger}
}

// Split 按 Stack 拆分并写出文件
//
// rows 为已对账的明细行，stackColumn 为其中 Stack ID 列的下标；
// 已有 "Import Code" 列时覆盖，否则追加在末尾。返回的 Plan 下标对应按 Stack 归并后的行序。
func (s *Splitter) Split(ctx context.Context, headers []string, rows [][]any, stackColumn int, outDir string) ([]Output, Plan, error) {
	if stackColumn < 0 || stackColumn >= len(headers) {
		return nil, Plan{}, fmt.Errorf("stack column %d out of range", stackColumn)
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		if stackColumn < len(row) {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[stackColumn]))
		}
	}

	// 输入行可能交错，先按 Stack 归并再装箱
	order := GroupByStack(ids)
	stackIDs := make([]string, len(order))
	grouped := make([][]any, len(order))
	for i, idx := range order {
		stackIDs[i] = ids[idx]
		grouped[i] = rows[idx]
	}
	rows = grouped

	plan := PlanChunks(stackIDs, s.opts.RowsPerSheet, s.opts.ImportCodePrefix)
	if plan.Diagnostics.OversizedStackCount > 0 {
		s.logger.Warn("stacks exceed target chunk size",
			"count", plan.Diagnostics.OversizedStackCount,
			"max_stack_size", plan.Diagnostics.MaxStackSize,
			"rows_per_sheet", s.opts.RowsPerSheet)
	}

	outHeaders, codeColumn := withImportCode(headers)
	outputs := make([]Output, len(plan.Chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, chunk := range plan.Chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(outDir, ChunkFileName(s.opts.BaseName, chunk.Index))
			if err := writeChunk(path, outHeaders, rows[chunk.Start:chunk.End+1], codeColumn, chunk.ImportCode); err != nil {
				return fmt.Errorf("write chunk %d: %w", chunk.Index, err)
			}
			outputs[i] = Output{Path: path, ImportCode: chunk.ImportCode, Rows: chunk.Size()}
			s.logger.Debug("chunk written", "path", path, "rows", chunk.Size(), "import_code", chunk.ImportCode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, plan, err
	}
	return outputs, plan, nil
}

// withImportCode 返回输出表头与导入码列下标；表格列名必须非空且唯一
func withImportCode(headers []string) ([]string, int) {
	out := make([]string, 0, len(headers)+1)
	seen := make(map[string]int, len(headers)+1)
	codeColumn := -1
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		if strings.EqualFold(h, ImportCodeColumn) && codeColumn < 0 {
			codeColumn = i
		}
		key := strings.ToLower(h)
		if n := seen[key]; n > 0 {
			h = fmt.Sprintf("%s (%d)", h, n+1)
		}
		seen[key]++
		out = append(out, h)
	}
	if codeColumn < 0 {
		codeColumn = len(out)
		out = append(out, ImportCodeColumn)
	}
	return out, codeColumn
}

func writeChunk(path string, headers []string, rows [][]any, codeColumn int, importCode string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, src := range rows {
		row := make([]any, len(headers))
		copy(row, src)
		row[codeColumn] = importCode
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	showStripes := true
	if err := f.AddTable(SheetName, &excelize.Table{
		Range:          fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1),
		Name:           TableName,
		StyleName:      tableStyle,
		ShowRowStripes: &showStripes,
	}); err != nil {
		return err
	}
	return f.SaveAs(path)
}
