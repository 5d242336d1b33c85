package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"docstack/internal/model"
)

// DateColumn 日期列与其来源格式的绑定
type DateColumn struct {
	Column string
	Format DateFormat
}

// Options 对账参数
type Options struct {
	StackIDWidth      int
	Workers           int // 按 Stack 并行的协程上限，<=0 时取 GOMAXPROCS
	ReviewSentinel    string
	DateColumns       []DateColumn
	ProjectCode       string
	XrefIdentityField XrefIdentityField
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		StackIDWidth:      DefaultStackIDWidth,
		ReviewSentinel:    DefaultReviewSentinel,
		XrefIdentityField: IdentityDocumentNumber,
	}
}

// Result 对账结果；Annotations 与输入记录一一对应、顺序相同
type Result struct {
	Annotations []model.Annotation
	Stacks      []model.StackSummary
	Summary     model.Summary
}

// Engine 对账引擎
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// New 创建引擎；logger 为空时使用 slog.Default()
func New(opts Options, logger *slog.Logger) *Engine {
	if opts.StackIDWidth <= 0 {
		opts.StackIDWidth = DefaultStackIDWidth
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ReviewSentinel == "" {
		opts.ReviewSentinel = DefaultReviewSentinel
	}
	if opts.XrefIdentityField == "" {
		opts.XrefIdentityField = IdentityDocumentNumber
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts, logger: logger}
}

// Options 返回生效的参数
func (e *Engine) Options() Options { return e.opts }

// stackWork 单个 Stack 的成员（记录下标，按输入顺序）
type stackWork struct {
	key     string
	rank    int
	members []int
}

// Reconcile 对整个记录集做一次对账
//
// 行级问题只写入 Annotation.Errors，不会返回 error。ctx 取消时停止调度新的 Stack，
// 已完成的 Stack 保留，其余记入 Summary.UnresolvedStacks，并返回 ctx.Err()。
func (e *Engine) Reconcile(ctx context.Context, records []model.Record) (*Result, error) {
	n := len(records)
	annotations := make([]model.Annotation, n)
	parsedSheets := make([]string, n)
	effectiveSheets := make([]string, n)

	// 1. 身份解析
	for i, r := range records {
		a := &annotations[i]
		a.RowNo = r.RowNo
		sheet, err := ParseSheetNumber(r.DocumentName)
		if err != nil {
			annotate(a, "document_name", err)
		}
		parsedSheets[i] = sheet
		a.ParsedSheetNumber = sheet
		effectiveSheets[i] = EffectiveSheetNumber(r, sheet)
	}

	// 2. 全局顺序只算一次，之后只读
	order := DistinctOrder(records)
	assignment := AssignStackIDs(order, e.opts.StackIDWidth)
	stacks := make([]stackWork, len(order))
	position := make(map[string]int, len(order))
	for i, key := range order {
		position[key] = i
		stacks[i] = stackWork{key: key, rank: assignment.Ranks[key]}
	}
	for i, r := range records {
		p := position[GroupingKey(r.DocumentNumber)]
		stacks[p].members = append(stacks[p].members, i)
	}

	// 3. 重复检查（全局计数表）
	dupes := BuildDuplicateIndex(records)
	conflicts := dupes.FindConflicts(records, effectiveSheets)

	// 4. 与 Stack 无关的逐行字段
	classifier := Classifier{ProjectCode: e.opts.ProjectCode, IdentityField: e.opts.XrefIdentityField}
	for i, r := range records {
		a := &annotations[i]
		a.IsDuplicate = dupes.IsDuplicate(r)
		if err, ok := conflicts[i]; ok {
			annotate(a, "revision", err)
		}
		e.normalizeDates(a, r)
		a.Xref = classifier.Classify(r)
	}

	// 5. 按 Stack 并行；每个协程只写自己成员的 Annotation 和自己的汇总槽位
	summaries := make([]model.StackSummary, len(stacks))
	done := make([]bool, len(stacks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for k := range stacks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			summaries[k] = e.resolveStack(records, annotations, effectiveSheets, stacks[k], assignment, dupes)
			done[k] = true
			return nil
		})
	}
	_ = g.Wait()

	for k, st := range stacks {
		if done[k] {
			continue
		}
		summaries[k] = model.StackSummary{
			DocumentNumber: st.key,
			Rank:           st.rank,
			Rows:           len(st.members),
			Reason:         "cancelled",
		}
	}

	res := &Result{
		Annotations: annotations,
		Stacks:      summaries,
		Summary:     summarize(annotations, summaries),
	}
	e.logger.Debug("reconcile finished",
		"records", n,
		"stacks", len(stacks),
		"failures", res.Summary.FailureTotal(),
		"unresolved", len(res.Summary.UnresolvedStacks))

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("reconcile interrupted: %w", err)
	}
	return res, nil
}

func (e *Engine) normalizeDates(a *model.Annotation, r model.Record) {
	if len(e.opts.DateColumns) == 0 {
		return
	}
	a.NormalizedDates = make(map[string]string, len(e.opts.DateColumns))
	for _, dc := range e.opts.DateColumns {
		v, err := NormalizeDate(r.Dates[dc.Column], dc.Format)
		if err != nil {
			a.NormalizedDates[dc.Column] = e.opts.ReviewSentinel
			annotate(a, dc.Column, err)
			continue
		}
		a.NormalizedDates[dc.Column] = v
	}
}

func (e *Engine) resolveStack(
	records []model.Record,
	annotations []model.Annotation,
	effectiveSheets []string,
	st stackWork,
	assignment StackAssignment,
	dupes DuplicateIndex,
) model.StackSummary {
	sum := model.StackSummary{
		DocumentNumber: st.key,
		Rank:           st.rank,
		Rows:           len(st.members),
		Resolved:       true,
	}

	stackID, idErr := assignment.Lookup(st.key)
	if idErr != nil {
		sum.Resolved = false
		sum.Reason = idErr.Error()
	}
	sum.StackID = stackID

	// 版本解析：无法解析的行单独标记，其余参与比较
	candidates := make([]RevisionCandidate, 0, len(st.members))
	candidateIndex := make([]int, 0, len(st.members))
	for _, i := range st.members {
		a := &annotations[i]
		a.StackID = stackID
		if idErr != nil {
			annotate(a, "stack_id", idErr)
		}
		rev, err := ParseRevision(records[i].Revision, records[i].LegacyMode)
		if err != nil {
			annotate(a, "revision", err)
			continue
		}
		candidates = append(candidates, RevisionCandidate{RowNo: records[i].RowNo, Revision: rev})
		candidateIndex = append(candidateIndex, i)
	}

	latest := e.opts.ReviewSentinel
	best, revErr := ResolveLatest(candidates)
	if revErr != nil {
		sum.Resolved = false
		if sum.Reason == "" {
			sum.Reason = revErr.Error()
		}
		for _, i := range candidateIndex {
			annotate(&annotations[i], "latest_revision", revErr)
		}
	} else {
		latestIdx := candidateIndex[best]
		latest = candidates[best].Revision.String()
		annotations[latestIdx].IsLatest = true
		sum.LatestRowNo = records[latestIdx].RowNo
	}
	sum.LatestRevision = latest

	sum.SheetCount = StackSheetCount(st.members, effectiveSheets, e.opts.ReviewSentinel)
	sum.ReviewStatus = StackReviewStatus(records, st.members)

	nameFlagged := make([]int, 0)
	for _, i := range st.members {
		if annotations[i].IsDuplicate {
			sum.DupeStack = true
		}
		if dupes.NameFlagged(records[i]) {
			nameFlagged = append(nameFlagged, i)
		}
	}
	if len(nameFlagged) > 1 {
		for _, i := range nameFlagged {
			annotations[i].NameDuplicate = true
		}
	}

	for _, i := range st.members {
		a := &annotations[i]
		a.LatestRevision = latest
		a.StackSheetCount = sum.SheetCount
		a.ReviewStatus = sum.ReviewStatus
		a.DupeStack = sum.DupeStack
	}
	return sum
}

// summarize 每类错误按“出现该错误的记录数”计数
func summarize(annotations []model.Annotation, stacks []model.StackSummary) model.Summary {
	s := model.Summary{
		TotalRecords: len(annotations),
		TotalStacks:  len(stacks),
		Failures:     make(map[model.ErrorKind]int, len(model.AllErrorKinds)),
	}
	for _, kind := range model.AllErrorKinds {
		s.Failures[kind] = 0
	}
	for i := range annotations {
		a := &annotations[i]
		if a.IsDuplicate {
			s.DuplicateRecords++
		}
		if a.Xref != model.XrefNone && a.Xref != "" {
			s.XrefRecords++
		}
		seen := make(map[model.ErrorKind]bool, len(a.Errors))
		for _, re := range a.Errors {
			if seen[re.Kind] {
				continue
			}
			seen[re.Kind] = true
			s.Failures[re.Kind]++
		}
	}
	for _, st := range stacks {
		if st.DupeStack {
			s.DupeStacks++
		}
		if !st.Resolved {
			label := st.StackID
			if label == "" {
				label = st.DocumentNumber
			}
			s.UnresolvedStacks = append(s.UnresolvedStacks, label)
		}
	}
	return s
}
