package model

// Record 装载表（loadsheet）中的一行文档元数据，导入后只读
type Record struct {
	RowNo int `json:"rowNo"` // 输入顺序（从 1 开始），分组与“最后一行”规则都依赖它

	DocumentName   string   `json:"documentName"`
	DocumentNumber string   `json:"documentNumber"`
	Revision       string   `json:"revision"`
	LegacyMode     bool     `json:"legacyMode"` // 旧版本号口径：允许 "major(minor)" / "M.m"
	SheetNumber    string   `json:"sheetNumber"`
	RenditionPath  string   `json:"renditionPath"`
	Titles         []string `json:"titles,omitempty"`

	// Dates 原始日期单元格，按来源列名索引；格式由列配置决定，不按单元格推断
	Dates map[string]string `json:"dates,omitempty"`

	// Cells 源表整行（按表头顺序），导出时原样回写
	Cells []string `json:"-"`
}

// ErrorKind 行级错误分类
type ErrorKind string

const (
	ErrorUnparseableIdentity  ErrorKind = "UnparseableIdentity"
	ErrorAmbiguousRevision    ErrorKind = "AmbiguousRevision"
	ErrorStackOverflow        ErrorKind = "StackOverflow"
	ErrorInvalidDate          ErrorKind = "InvalidDate"
	ErrorConflictingDuplicate ErrorKind = "ConflictingDuplicate"
)

// AllErrorKinds 固定顺序，用于汇总输出
var AllErrorKinds = []ErrorKind{
	ErrorUnparseableIdentity,
	ErrorAmbiguousRevision,
	ErrorStackOverflow,
	ErrorInvalidDate,
	ErrorConflictingDuplicate,
}

// RecordError 行级错误：只影响对应的派生字段，不会丢弃该行
type RecordError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

// XrefClass 外部参照分类
type XrefClass string

const (
	Xref3DModel XrefClass = "XREF_3DMODEL"
	XrefTitle   XrefClass = "XREF_TITLE"
	XrefProp    XrefClass = "XREF_PROP"
	XrefNone    XrefClass = "NONE"
)

const (
	ReviewStatusReview   = "Review"
	ReviewStatusNoReview = "No Review"
)

// Annotation 与 Record 一一对应的派生输出列
type Annotation struct {
	RowNo int `json:"rowNo"`

	StackID           string `json:"stackId"`
	ParsedSheetNumber string `json:"parsedSheetNumber"`
	LatestRevision    string `json:"latestRevision"`
	IsLatest          bool   `json:"isLatest"`
	StackSheetCount   string `json:"stackSheetCount"`
	ReviewStatus      string `json:"reviewStatus"`

	// NormalizedDates 按来源列名索引，值为 dd/mm/yyyy 或复核标记
	NormalizedDates map[string]string `json:"normalizedDates,omitempty"`

	Xref          XrefClass `json:"xref"`
	IsDuplicate   bool      `json:"isDuplicate"`
	DupeStack     bool      `json:"dupeStack"`
	NameDuplicate bool      `json:"nameDuplicate"`

	Errors []RecordError `json:"errors,omitempty"`
}

// AddError 追加行级错误
func (a *Annotation) AddError(kind ErrorKind, field, message string) {
	a.Errors = append(a.Errors, RecordError{Kind: kind, Field: field, Message: message})
}

// HasError 是否存在指定类型的错误
func (a *Annotation) HasError(kind ErrorKind) bool {
	for _, e := range a.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
