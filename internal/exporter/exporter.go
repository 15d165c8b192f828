package exporter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/faisos7/Elan-vpmi-app/internal/analysis"
	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

// 요약 통합문서 시트 이름
const (
	SheetPackaged  = "패키징합계"
	SheetMaterials = "성분분해합계"
	SheetHistory   = "히스토리"
)

// Exporter 누적 분석 엑셀 내보내기
type Exporter struct {
	store   *store.Store
	catalog recipe.Catalog
}

// NewExporter 내보내기 생성
func NewExporter(store *store.Store, catalog recipe.Catalog) *Exporter {
	return &Exporter{
		store:   store,
		catalog: catalog,
	}
}

// ExportOptions 내보내기 조건
type ExportOptions struct {
	Names    []string
	From     string
	To       string
	Progress func(ProgressEvent)
}

// Export 조건에 맞는 이력을 집계해 통합문서를 만든다
func (e *Exporter) Export(opts ExportOptions) (*excelize.File, error) {
	reportProgress(opts.Progress, 5, "이력 조회")
	records, err := e.store.ListHistory(store.HistoryQueryOptions{
		Names: opts.Names,
		From:  opts.From,
		To:    opts.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	reportProgress(opts.Progress, 30, "집계")
	summary := analysis.Summarize(records, e.catalog)

	return WriteSummaryXLSX(summary, opts.Progress)
}

// WriteSummaryXLSX 집계 결과를 세 시트짜리 통합문서로
func WriteSummaryXLSX(summary *analysis.Summary, progress func(ProgressEvent)) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetPackaged); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetMaterials, SheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7EEF7"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	reportProgress(progress, 50, SheetPackaged)
	if err := writeTotalsSheet(f, SheetPackaged, "제품 명칭", "누적 수량", summary.Packaged, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	reportProgress(progress, 70, SheetMaterials)
	if err := writeTotalsSheet(f, SheetMaterials, "개별 성분", "최종 소요량", summary.Materials, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	reportProgress(progress, 85, SheetHistory)
	if err := writeHistorySheet(f, summary, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	reportProgress(progress, 100, "완료")
	return f, nil
}

func writeTotalsSheet(f *excelize.File, sheet, nameHeader, qtyHeader string, entries []recipe.Entry, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{nameHeader, qtyHeader}); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	for i, en := range entries {
		row := i + 2
		if err := setCellValue(f, sheet, fmt.Sprintf("A%d", row), en.Name); err != nil {
			return err
		}
		if err := setCellValue(f, sheet, fmt.Sprintf("B%d", row), en.Quantity); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "B", 14)
}

func writeHistorySheet(f *excelize.File, summary *analysis.Summary, headerStyle int) error {
	header := make([]interface{}, len(historyCSVHeader))
	for i, h := range historyCSVHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetHistory, "A1", &header); err != nil {
		return fmt.Errorf("failed to write history header: %w", err)
	}
	if err := f.SetCellStyle(SheetHistory, "A1", "E1", headerStyle); err != nil {
		return err
	}
	for i, r := range summary.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetHistory, cell, &[]interface{}{r.ShipDate, r.Name, r.Group, r.Round, r.Items}); err != nil {
			return fmt.Errorf("failed to write history row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(SheetHistory, "A", "D", 12); err != nil {
		return err
	}
	return f.SetColWidth(SheetHistory, "E", "E", 80)
}

func setCellValue(f *excelize.File, sheet, cell string, value interface{}) error {
	return f.SetCellValue(sheet, cell, value)
}

// SummaryFilename 요약 통합문서 파일 이름
func SummaryFilename(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return fmt.Sprintf("history_summary_%s.xlsx", now.Format("20060102"))
}
