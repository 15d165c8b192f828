package store

import (
	"database/sql"
	"fmt"
	"time"
)

// GetConfig 설정값 조회
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("config key %s: %w", key, ErrNotFound)
		}
		return "", err
	}
	return value, nil
}

// SetConfig 설정값 저장
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// GetAllConfig 저장된 설정 전체 (상태 API 에 노출)
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}

const keyLastShipDate = "last_ship_date"

// GetLastShipDate 마지막으로 발송 기록한 날짜
func (s *Store) GetLastShipDate() (time.Time, error) {
	v, err := s.GetConfig(keyLastShipDate)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", keyLastShipDate, v, err)
	}
	return t, nil
}

// SetLastShipDate 마지막 발송 기록 날짜 저장
func (s *Store) SetLastShipDate(date time.Time) error {
	return s.SetConfig(keyLastShipDate, date.Format("2006-01-02"))
}
