package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ImportLogResult 가져오기 완료 시 기록하는 집계
type ImportLogResult struct {
	TotalSheets    int
	ImportedSheets int
	SkippedSheets  int
	TotalRows      int
	ImportedRows   int
	ErrorRows      int
	Status         string // done/error
	ErrorMessage   string
}

// CreateImportLog 가져오기 로그 생성, import_log_id 반환
func (s *Store) CreateImportLog(filename, filePath string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_path, file_size, file_hash, status)
		VALUES (?, ?, ?, ?, 'processing')
	`, filename, filePath, fileSize, fileHash)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 가져오기 완료 기록
func (s *Store) UpdateImportLog(id int64, r ImportLogResult) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			total_sheets = ?,
			imported_sheets = ?,
			skipped_sheets = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.TotalSheets, r.ImportedSheets, r.SkippedSheets, r.TotalRows, r.ImportedRows, r.ErrorRows, r.Status, r.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// LastImportTime 마지막으로 완료된 가져오기 시각. 없으면 ErrNotFound.
func (s *Store) LastImportTime() (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRow(`
		SELECT completed_at FROM import_logs
		WHERE status = 'done' AND completed_at IS NOT NULL
		ORDER BY id DESC LIMIT 1
	`).Scan(&t)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to query last import: %w", err)
	}
	if !t.Valid {
		return time.Time{}, ErrNotFound
	}
	return t.Time, nil
}
