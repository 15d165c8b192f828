package model

import "time"

// Patient 환자 기본 정보 (patients 시트 한 행)
type Patient struct {
	Name         string    `json:"name"`
	Group        string    `json:"group"`        // 그룹 라벨 (자유 입력, 주기 추론에 사용)
	StartDateRaw string    `json:"startDateRaw"` // 시작일 원문
	Orders       string    `json:"orders"`       // "제품:수량,제품:수량"
	Memo         string    `json:"memo"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HistoryRecord 발송 이력 (history 시트 한 행)
type HistoryRecord struct {
	ID        int64     `json:"id"`
	ShipDate  string    `json:"shipDate"` // YYYY-MM-DD
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	Round     int       `json:"round"`
	Items     string    `json:"items"` // 발송내역 "제품:수량,..."
	BatchID   string    `json:"batchId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
