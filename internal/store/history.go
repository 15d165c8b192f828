package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
)

const historyColumns = "id, ship_date, name, group_label, round, items, batch_id, created_at"

// HistoryQueryOptions 이력 조회 조건
type HistoryQueryOptions struct {
	Names []string // 비어 있으면 전체
	From  string   // YYYY-MM-DD (포함)
	To    string   // YYYY-MM-DD (포함)
	Limit int
}

// BatchInsertHistory 이력 일괄 추가. 성공 시 각 레코드의 ID 를 채운다.
func (s *Store) BatchInsertHistory(records []*model.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.withTx(func(tx *sql.Tx) error {
		return insertHistoryTx(tx, records)
	})
}

func buildHistoryWhere(opts HistoryQueryOptions) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if len(opts.Names) > 0 {
		placeholders := make([]string, len(opts.Names))
		for i, n := range opts.Names {
			placeholders[i] = "?"
			args = append(args, n)
		}
		where += " AND name IN (" + strings.Join(placeholders, ",") + ")"
	}
	if opts.From != "" {
		where += " AND ship_date >= ?"
		args = append(args, opts.From)
	}
	if opts.To != "" {
		where += " AND ship_date <= ?"
		args = append(args, opts.To)
	}
	return where, args
}

// ListHistory 이력 조회 (발송일, id 순)
func (s *Store) ListHistory(opts HistoryQueryOptions) ([]*model.HistoryRecord, error) {
	where, args := buildHistoryWhere(opts)
	query := "SELECT " + historyColumns + " FROM history" + where + " ORDER BY ship_date, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []*model.HistoryRecord
	for rows.Next() {
		r := &model.HistoryRecord{}
		if err := rows.Scan(&r.ID, &r.ShipDate, &r.Name, &r.Group, &r.Round, &r.Items, &r.BatchID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountHistory 조건에 맞는 이력 수
func (s *Store) CountHistory(opts HistoryQueryOptions) (int, error) {
	where, args := buildHistoryWhere(opts)
	var n int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM history"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// ListHistoryNames 이력이 있는 환자 이름 (정렬, 중복 제거)
func (s *Store) ListHistoryNames() ([]string, error) {
	return s.queryStrings("SELECT DISTINCT name FROM history ORDER BY name")
}

// ListShipDates 이력이 있는 발송일 (최근순)
func (s *Store) ListShipDates() ([]string, error) {
	return s.queryStrings("SELECT DISTINCT ship_date FROM history ORDER BY ship_date DESC")
}

func (s *Store) queryStrings(query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
