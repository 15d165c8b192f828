package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
)

// utf8BOM 엑셀이 한글 CSV 를 UTF-8 로 열도록 붙이는 표식
const utf8BOM = "\uFEFF"

var historyCSVHeader = []string{"발송일", "이름", "그룹", "회차", "발송내역"}

// WriteHistoryCSV 이력을 CSV 로 쓴다 (BOM + 헤더 + 행)
func WriteHistoryCSV(w io.Writer, records []*model.HistoryRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(historyCSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.ShipDate, r.Name, r.Group, strconv.Itoa(r.Round), r.Items}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// HistoryFilename history_export_YYYYMMDD.csv (날짜는 loc 기준)
func HistoryFilename(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return fmt.Sprintf("history_export_%s.csv", now.Format("20060102"))
}
