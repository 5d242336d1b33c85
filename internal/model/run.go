package model

import "time"

// RunStatus 对账任务状态
type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Run 一次对账任务（来源文件 + 统计）
type Run struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	FilePath     string     `json:"-"`
	FileSize     int64      `json:"fileSize"`
	SheetName    string     `json:"sheetName"`
	Status       RunStatus  `json:"status"`
	Summary      Summary    `json:"summary"`
	ExportPath   string     `json:"-"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// RunOutput 任务产出的文件
type RunOutput struct {
	RunID      string `json:"runId"`
	Kind       string `json:"kind"` // export / split
	Path       string `json:"path"`
	ImportCode string `json:"importCode,omitempty"`
	Rows       int    `json:"rows"`
	RemoteURI  string `json:"remoteUri,omitempty"`
}

// 产出文件类型
const (
	OutputKindExport = "export"
	OutputKindSplit  = "split"
)

// SheetMeta 来源 Sheet 的识别信息（用于追溯与容错）
type SheetMeta struct {
	RunID             string  `json:"runId"`
	SheetName         string  `json:"sheetName"`
	SheetType         string  `json:"sheetType"`
	Confidence        float64 `json:"confidence"`
	TotalRows         int     `json:"totalRows"`
	TotalColumns      int     `json:"totalColumns"`
	ImportedRows      int     `json:"importedRows"`
	ColumnsJSON       string  `json:"columnsJson"`
	ColumnMappingJSON string  `json:"columnMappingJson"`
	Status            string  `json:"status"`
	ErrorMessage      string  `json:"errorMessage,omitempty"`
}
