package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"docstack/internal/model"
)

// ErrRunNotFound 任务不存在
var ErrRunNotFound = errors.New("run not found")

// CreateRun 创建任务记录，状态为 processing
func (s *Store) CreateRun(run *model.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Status = model.RunStatusProcessing
	_, err := s.db.Exec(`
		INSERT INTO reconcile_runs (id, filename, file_path, file_size, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Filename, run.FilePath, run.FileSize, string(run.Status), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun 写入统计、Stack 汇总与错误计数（同一事务）
func (s *Store) CompleteRun(id, sheetName, exportPath string, summary model.Summary, stacks []model.StackSummary) error {
	return s.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE reconcile_runs SET
				sheet_name = ?,
				status = ?,
				total_records = ?,
				total_stacks = ?,
				duplicate_records = ?,
				dupe_stacks = ?,
				xref_records = ?,
				export_path = ?,
				completed_at = ?
			WHERE id = ?
		`, sheetName, string(model.RunStatusCompleted),
			summary.TotalRecords, summary.TotalStacks, summary.DuplicateRecords, summary.DupeStacks, summary.XrefRecords,
			exportPath, time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("failed to update run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO run_stacks (
				run_id, stack_rank, stack_id, document_number, row_count,
				latest_revision, latest_row_no, sheet_count, review_status,
				dupe_stack, resolved, reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, st := range stacks {
			if _, err := stmt.Exec(
				id, st.Rank, st.StackID, st.DocumentNumber, st.Rows,
				st.LatestRevision, st.LatestRowNo, st.SheetCount, st.ReviewStatus,
				boolToInt(st.DupeStack), boolToInt(st.Resolved), st.Reason,
			); err != nil {
				return fmt.Errorf("failed to insert run stack %s: %w", st.DocumentNumber, err)
			}
		}

		for _, kind := range model.AllErrorKinds {
			if _, err := tx.Exec(`INSERT INTO run_failures (run_id, kind, total) VALUES (?, ?, ?)`,
				id, string(kind), summary.Failures[kind]); err != nil {
				return fmt.Errorf("failed to insert run failures: %w", err)
			}
		}

		return nil
	})
}

// FailRun 标记任务失败
func (s *Store) FailRun(id, message string) error {
	_, err := s.db.Exec(`
		UPDATE reconcile_runs SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, string(model.RunStatusFailed), message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

const runColumns = `
	id, filename, file_path, file_size, sheet_name, status,
	total_records, total_stacks, duplicate_records, dupe_stacks, xref_records,
	export_path, error_message, created_at, completed_at`

func scanRun(scan func(dest ...any) error) (*model.Run, error) {
	var (
		run       model.Run
		status    string
		completed sql.NullTime
	)
	err := scan(
		&run.ID, &run.Filename, &run.FilePath, &run.FileSize, &run.SheetName, &status,
		&run.Summary.TotalRecords, &run.Summary.TotalStacks, &run.Summary.DuplicateRecords,
		&run.Summary.DupeStacks, &run.Summary.XrefRecords,
		&run.ExportPath, &run.ErrorMessage, &run.CreatedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// GetRun 读取任务及其错误计数与未解析 Stack
func (s *Store) GetRun(id string) (*model.Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM reconcile_runs WHERE id = ?`, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.Summary.Failures, err = s.runFailures(id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT stack_id, document_number FROM run_stacks
		WHERE run_id = ? AND resolved = 0 ORDER BY stack_rank
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var stackID, docNumber string
		if err := rows.Scan(&stackID, &docNumber); err != nil {
			return nil, err
		}
		if stackID == "" {
			stackID = docNumber
		}
		run.Summary.UnresolvedStacks = append(run.Summary.UnresolvedStacks, stackID)
	}
	return run, rows.Err()
}

func (s *Store) runFailures(id string) (map[model.ErrorKind]int, error) {
	rows, err := s.db.Query(`SELECT kind, total FROM run_failures WHERE run_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.ErrorKind]int, len(model.AllErrorKinds))
	for rows.Next() {
		var kind string
		var total int
		if err := rows.Scan(&kind, &total); err != nil {
			return nil, err
		}
		out[model.ErrorKind(kind)] = total
	}
	return out, rows.Err()
}

// ListRuns 按创建时间倒序列出任务（不含明细）
func (s *Store) ListRuns(limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM reconcile_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunStacks 读取任务的 Stack 汇总（按排名）
func (s *Store) GetRunStacks(id string) ([]model.StackSummary, error) {
	rows, err := s.db.Query(`
		SELECT stack_rank, stack_id, document_number, row_count,
			latest_revision, latest_row_no, sheet_count, review_status,
			dupe_stack, resolved, reason
		FROM run_stacks WHERE run_id = ? ORDER BY stack_rank
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stacks: %w", err)
	}
	defer rows.Close()

	var out []model.StackSummary
	for rows.Next() {
		var st model.StackSummary
		var dupe, resolved int
		if err := rows.Scan(
			&st.Rank, &st.StackID, &st.DocumentNumber, &st.Rows,
			&st.LatestRevision, &st.LatestRowNo, &st.SheetCount, &st.ReviewStatus,
			&dupe, &resolved, &st.Reason,
		); err != nil {
			return nil, err
		}
		st.DupeStack = dupe != 0
		st.Resolved = resolved != 0
		out = append(out, st)
	}
	return out, rows.Err()
}

// AddRunOutput 记录产出文件
func (s *Store) AddRunOutput(out model.RunOutput) error {
	_, err := s.db.Exec(`
		INSERT INTO run_outputs (run_id, kind, path, import_code, row_count, remote_uri)
		VALUES (?, ?, ?, ?, ?, ?)
	`, out.RunID, out.Kind, out.Path, out.ImportCode, out.Rows, out.RemoteURI)
	if err != nil {
		return fmt.Errorf("failed to insert run output: %w", err)
	}
	return nil
}

// SetOutputRemoteURI 上传完成后回写远端地址
func (s *Store) SetOutputRemoteURI(runID, path, uri string) error {
	_, err := s.db.Exec(`UPDATE run_outputs SET remote_uri = ? WHERE run_id = ? AND path = ?`, uri, runID, path)
	return err
}

// ListRunOutputs 任务产出文件
func (s *Store) ListRunOutputs(runID string) ([]model.RunOutput, error) {
	rows, err := s.db.Query(`
		SELECT run_id, kind, path, import_code, row_count, remote_uri
		FROM run_outputs WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunOutput
	for rows.Next() {
		var o model.RunOutput
		if err := rows.Scan(&o.RunID, &o.Kind, &o.Path, &o.ImportCode, &o.Rows, &o.RemoteURI); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteRun 删除任务及其明细
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM reconcile_runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
