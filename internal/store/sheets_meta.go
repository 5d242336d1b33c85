package store

import (
	"encoding/json"
	"fmt"

	"docstack/internal/model"
)

// InsertSheetMeta 写入 Sheet 元信息（用于追溯与容错）
func (s *Store) InsertSheetMeta(meta model.SheetMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO sheets_meta (
			run_id, sheet_name, sheet_type, confidence,
			total_rows, total_columns,
			imported_rows,
			columns_json, column_mapping_json,
			status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.RunID, meta.SheetName, meta.SheetType, meta.Confidence,
		meta.TotalRows, meta.TotalColumns,
		meta.ImportedRows,
		meta.ColumnsJSON, meta.ColumnMappingJSON,
		meta.Status, meta.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sheets_meta: %w", err)
	}
	return nil
}

// ListSheetMeta 任务的 Sheet 元信息
func (s *Store) ListSheetMeta(runID string) ([]model.SheetMeta, error) {
	rows, err := s.db.Query(`
		SELECT run_id, sheet_name, sheet_type, confidence, total_rows, total_columns,
			imported_rows, columns_json, column_mapping_json, status, error_message
		FROM sheets_meta WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SheetMeta
	for rows.Next() {
		var m model.SheetMeta
		if err := rows.Scan(
			&m.RunID, &m.SheetName, &m.SheetType, &m.Confidence, &m.TotalRows, &m.TotalColumns,
			&m.ImportedRows, &m.ColumnsJSON, &m.ColumnMappingJSON, &m.Status, &m.ErrorMessage,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// BuildColumnsJSON 将列名序列化为 JSON（避免上层重复处理）
func BuildColumnsJSON(columns []string) string {
	b, err := json.Marshal(columns)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// BuildMappingJSON 列下标 -> 字段名
func BuildMappingJSON(mapping map[int]string) string {
	b, err := json.Marshal(mapping)
	if err != nil {
		return "{}"
	}
	return string(b)
}
