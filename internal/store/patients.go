package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
)

const patientColumns = "name, group_label, start_date_raw, orders, memo, updated_at"

const upsertPatientSQL = `
	INSERT INTO patients (name, group_label, start_date_raw, orders, memo, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		group_label = excluded.group_label,
		start_date_raw = excluded.start_date_raw,
		orders = excluded.orders,
		memo = excluded.memo,
		updated_at = excluded.updated_at
`

// UpsertPatient 환자 추가 또는 갱신 (이름 기준)
func (s *Store) UpsertPatient(p *model.Patient) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(upsertPatientSQL, p.Name, p.Group, p.StartDateRaw, p.Orders, p.Memo, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert patient %s: %w", p.Name, err)
	}
	return nil
}

func scanPatient(row interface{ Scan(...any) error }) (*model.Patient, error) {
	p := &model.Patient{}
	if err := row.Scan(&p.Name, &p.Group, &p.StartDateRaw, &p.Orders, &p.Memo, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPatient 이름으로 조회
func (s *Store) GetPatient(name string) (*model.Patient, error) {
	p, err := scanPatient(s.db.QueryRow("SELECT "+patientColumns+" FROM patients WHERE name = ?", name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// ListPatients 전체 환자 (이름순)
func (s *Store) ListPatients() ([]*model.Patient, error) {
	rows, err := s.db.Query("SELECT " + patientColumns + " FROM patients ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var out []*model.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePatient 환자 삭제 (이력은 남김)
func (s *Store) DeletePatient(name string) error {
	res, err := s.db.Exec("DELETE FROM patients WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("patient %s: %w", name, ErrNotFound)
	}
	return nil
}

// CountPatients 환자 수
func (s *Store) CountPatients() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM patients").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return n, nil
}
