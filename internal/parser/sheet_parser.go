package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/round"
)

// SheetParser 환자/이력 시트 파서
type SheetParser struct {
	file   *excelize.File
	mapper *FieldMapper
}

// NewSheetParser 파서 생성
func NewSheetParser(file *excelize.File) *SheetParser {
	return &SheetParser{
		file:   file,
		mapper: NewFieldMapper(),
	}
}

// readRows 원시 셀 값으로 읽는다. 날짜 셀은 서식 문자열 대신 일련번호가 오므로
// round.ParseDate 가 그대로 처리할 수 있다.
func (p *SheetParser) readRows(sheetName string) ([][]string, map[Field]FieldMapping, error) {
	rows, err := p.file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 1 {
		return nil, nil, fmt.Errorf("sheet has no header row")
	}
	mappings := p.mapper.MapColumns(rows[0])
	if _, ok := mappings[FieldName]; !ok {
		return nil, nil, fmt.Errorf("sheet %s has no name column", sheetName)
	}
	return rows, mappings, nil
}

// ParsePatients 환자 시트 파싱. 이름이 빈 행은 건너뛴다.
// 시작일은 읽을 수 있으면 YYYY-MM-DD 로 정규화하고, 아니면 원문을 남긴다.
func (p *SheetParser) ParsePatients(sheetName string) ([]*model.Patient, []RowError, error) {
	rows, mappings, err := p.readRows(sheetName)
	if err != nil {
		return nil, nil, err
	}

	nameCol := column(mappings, FieldName)
	groupCol := column(mappings, FieldGroup)
	startCol := column(mappings, FieldStartDate)
	ordersCol := column(mappings, FieldOrders)
	memoCol := column(mappings, FieldMemo)

	var out []*model.Patient
	var rowErrs []RowError
	seen := make(map[string]int)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		if prev, dup := seen[name]; dup {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Message: fmt.Sprintf("중복 이름 %s (%d행 값을 덮어씀)", name, prev)})
		}
		seen[name] = i + 1

		startRaw := cell(row, startCol)
		if d, err := round.ParseDate(startRaw); err == nil {
			startRaw = d.Format(round.DateLayout)
		}

		out = append(out, &model.Patient{
			Name:         name,
			Group:        cell(row, groupCol),
			StartDateRaw: startRaw,
			Orders:       cell(row, ordersCol),
			Memo:         cell(row, memoCol),
		})
	}
	return out, rowErrs, nil
}

// ParseHistory 이력 시트 파싱. 발송일이나 회차를 읽을 수 없는 행은 오류로 보고하고 제외한다.
func (p *SheetParser) ParseHistory(sheetName string) ([]*model.HistoryRecord, []RowError, error) {
	rows, mappings, err := p.readRows(sheetName)
	if err != nil {
		return nil, nil, err
	}
	dateCol := column(mappings, FieldShipDate)
	if dateCol < 0 {
		return nil, nil, fmt.Errorf("sheet %s has no ship date column", sheetName)
	}
	nameCol := column(mappings, FieldName)
	groupCol := column(mappings, FieldGroup)
	roundCol := column(mappings, FieldRound)
	itemsCol := column(mappings, FieldItems)

	var out []*model.HistoryRecord
	var rowErrs []RowError
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		name := cell(row, nameCol)
		if name == "" {
			continue
		}

		shipDate, err := round.ParseDate(cell(row, dateCol))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Message: fmt.Sprintf("발송일 오류: %v", err)})
			continue
		}

		n, err := parseRound(cell(row, roundCol))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Message: fmt.Sprintf("회차 오류: %v", err)})
			continue
		}

		out = append(out, &model.HistoryRecord{
			ShipDate: shipDate.Format(round.DateLayout),
			Name:     name,
			Group:    cell(row, groupCol),
			Round:    n,
			Items:    cell(row, itemsCol),
		})
	}
	return out, rowErrs, nil
}

// parseRound "3" / "3.0" / "3회" 허용, 빈 값은 1회차
func parseRound(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	trimmed := s
	if r := []rune(s); len(r) > 1 && r[len(r)-1] == '회' {
		trimmed = string(r[:len(r)-1])
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 1 || v != math.Trunc(v) {
		return 0, fmt.Errorf("invalid round %q", s)
	}
	return int(v), nil
}
