package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, sheet string, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cellName, &r))
	}
	return f
}

func TestParsePatients(t *testing.T) {
	t.Parallel()

	f := newWorkbook(t, "patients", [][]interface{}{
		{"이름", "그룹", "시작일", "주문내역", "메모"},
		{"김환자", "매주", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), "MixA:2,RawHoney:1", ""},
		{"이환자", "격주", "2025.09.08", "MixB:1", "알러지"},
		{"", "매주", "2025-09-01", "MixA:1", ""},
		{"박환자", "단발", "nan", "", ""},
		{"최환자", "매주", "언젠가", "MixA:1", ""},
	})

	patients, rowErrs, err := NewSheetParser(f).ParsePatients("patients")
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, patients, 4)

	assert.Equal(t, "김환자", patients[0].Name)
	assert.Equal(t, "2025-09-01", patients[0].StartDateRaw)
	assert.Equal(t, "MixA:2,RawHoney:1", patients[0].Orders)
	assert.Equal(t, "2025-09-08", patients[1].StartDateRaw)
	assert.Equal(t, "알러지", patients[1].Memo)
	assert.Equal(t, "nan", patients[2].StartDateRaw)
	assert.Equal(t, "언젠가", patients[3].StartDateRaw)
}

func TestParsePatients_DuplicateNameReported(t *testing.T) {
	t.Parallel()

	f := newWorkbook(t, "patients", [][]interface{}{
		{"이름", "그룹"},
		{"김환자", "매주"},
		{"김환자", "격주"},
	})
	patients, rowErrs, err := NewSheetParser(f).ParsePatients("patients")
	require.NoError(t, err)
	assert.Len(t, patients, 2)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 3, rowErrs[0].Row)
}

func TestParseHistory(t *testing.T) {
	t.Parallel()

	f := newWorkbook(t, "history", [][]interface{}{
		{"발송일", "이름", "그룹", "회차", "발송내역"},
		{"2025-09-01", "김환자", "매주", 1, "MixA:2"},
		{time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC), "김환자", "매주", "2회", "MixA:2,Mix:abc"},
		{"모름", "이환자", "격주", 1, "MixB:1"},
		{"2025-09-08", "이환자", "격주", "둘", "MixB:1"},
		{"2025-09-15", "박환자", "단발", "", "RawHoney:3"},
	})

	records, rowErrs, err := NewSheetParser(f).ParseHistory("history")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, rowErrs, 2)
	assert.Equal(t, 4, rowErrs[0].Row)
	assert.Equal(t, 5, rowErrs[1].Row)

	assert.Equal(t, "2025-09-08", records[1].ShipDate)
	assert.Equal(t, 2, records[1].Round)
	assert.Equal(t, "MixA:2,Mix:abc", records[1].Items)
	assert.Equal(t, 1, records[2].Round)
}

func TestParseHistory_MissingColumns(t *testing.T) {
	t.Parallel()

	f := newWorkbook(t, "history", [][]interface{}{{"이름", "발송내역"}})
	_, _, err := NewSheetParser(f).ParseHistory("history")
	assert.Error(t, err)

	f = newWorkbook(t, "x", [][]interface{}{{"품목"}})
	_, _, err = NewSheetParser(f).ParsePatients("x")
	assert.Error(t, err)
}
