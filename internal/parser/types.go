package parser

import "time"

// SheetType 시트 종류
type SheetType string

const (
	SheetTypePatients SheetType = "patients"
	SheetTypeHistory  SheetType = "history"
	SheetTypeUnknown  SheetType = "unknown"
)

// Field 시트 열이 매핑되는 필드
type Field string

const (
	FieldName      Field = "name"
	FieldGroup     Field = "group"
	FieldStartDate Field = "start_date"
	FieldOrders    Field = "orders"
	FieldMemo      Field = "memo"
	FieldShipDate  Field = "ship_date"
	FieldRound     Field = "round"
	FieldItems     Field = "items"
)

// SheetRecognitionResult 시트 인식 결과
type SheetRecognitionResult struct {
	SheetName  string    `json:"sheetName"`
	SheetType  SheetType `json:"sheetType"`
	Confidence float64   `json:"confidence"` // 0-1
}

// FieldMapping 열 매핑
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"`
	ColumnName  string `json:"columnName"`
	Field       Field  `json:"field"`
}

// RowError 행 단위 오류 (행 번호는 엑셀 기준 1부터)
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ParseResult 시트 처리 결과
type ParseResult struct {
	SheetName    string        `json:"sheetName"`
	SheetType    SheetType     `json:"sheetType"`
	Status       string        `json:"status"` // imported/skipped/error
	ImportedRows int           `json:"importedRows"`
	ErrorRows    int           `json:"errorRows"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// ImportReport 가져오기 보고서
type ImportReport struct {
	Filename       string        `json:"filename"`
	TotalSheets    int           `json:"totalSheets"`
	ImportedSheets int           `json:"importedSheets"`
	SkippedSheets  int           `json:"skippedSheets"`
	TotalRows      int           `json:"totalRows"`
	ImportedRows   int           `json:"importedRows"`
	ErrorRows      int           `json:"errorRows"`
	Duration       time.Duration `json:"duration"`
	Sheets         []ParseResult `json:"sheets"`
}
