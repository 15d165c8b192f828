package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
)

// ImportBatch 엑셀 한 번 가져오기로 반영할 내용
type ImportBatch struct {
	Patients        []*model.Patient
	ReplacePatients bool // Patients 가 있을 때만 기존 환자를 비움
	History         []*model.HistoryRecord
	ClearHistory    bool // History 가 있을 때만 기존 이력을 비움. false 면 같은 발송일만 교체
}

// ApplyImport 가져온 환자와 이력을 한 트랜잭션으로 반영한다.
// 비어 있는 쪽은 건드리지 않는다. 실패하면 아무것도 바뀌지 않는다.
func (s *Store) ApplyImport(b ImportBatch) error {
	return s.withTx(func(tx *sql.Tx) error {
		if len(b.Patients) > 0 {
			if b.ReplacePatients {
				if _, err := tx.Exec("DELETE FROM patients"); err != nil {
					return fmt.Errorf("failed to clear patients: %w", err)
				}
			}
			if err := upsertPatientsTx(tx, b.Patients); err != nil {
				return err
			}
		}

		if len(b.History) > 0 {
			if b.ClearHistory {
				if _, err := tx.Exec("DELETE FROM history"); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}
			} else if err := deleteHistoryDatesTx(tx, b.History); err != nil {
				return err
			}
			if err := insertHistoryTx(tx, b.History); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceHistoryForDates records 에 나오는 발송일의 기존 이력을 지우고 records 로 바꾼다.
func (s *Store) ReplaceHistoryForDates(records []*model.HistoryRecord) error {
	return s.ApplyImport(ImportBatch{History: records})
}

func upsertPatientsTx(tx *sql.Tx, patients []*model.Patient) error {
	stmt, err := tx.Prepare(upsertPatientSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range patients {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		if _, err := stmt.Exec(p.Name, p.Group, p.StartDateRaw, p.Orders, p.Memo, p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert patient %s: %w", p.Name, err)
		}
	}
	return nil
}

func deleteHistoryDatesTx(tx *sql.Tx, records []*model.HistoryRecord) error {
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.ShipDate] {
			continue
		}
		seen[r.ShipDate] = true
		if _, err := tx.Exec("DELETE FROM history WHERE ship_date = ?", r.ShipDate); err != nil {
			return fmt.Errorf("failed to delete history for %s: %w", r.ShipDate, err)
		}
	}
	return nil
}

func insertHistoryTx(tx *sql.Tx, records []*model.HistoryRecord) error {
	stmt, err := tx.Prepare(`
		INSERT INTO history (ship_date, name, group_label, round, items, batch_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		res, err := stmt.Exec(r.ShipDate, r.Name, r.Group, r.Round, r.Items, r.BatchID, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			r.ID = id
		}
	}
	return nil
}
