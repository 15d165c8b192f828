package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "elan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPatients_UpsertAndList(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.ApplyImport(ImportBatch{Patients: []*model.Patient{
		{Name: "김환자", Group: "매주", StartDateRaw: "2025-09-01", Orders: "MixA:2"},
		{Name: "이환자", Group: "격주", StartDateRaw: "", Orders: "RawHoney:1"},
	}}))

	// 같은 이름은 갱신
	require.NoError(t, st.UpsertPatient(&model.Patient{Name: "김환자", Group: "격주", StartDateRaw: "2025-09-08", Orders: "MixA:3"}))

	list, err := st.ListPatients()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "김환자", list[0].Name)
	assert.Equal(t, "격주", list[0].Group)
	assert.Equal(t, "MixA:3", list[0].Orders)
	assert.False(t, list[0].UpdatedAt.IsZero())

	n, err := st.CountPatients()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPatients_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetPatient("없음")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeletePatient("없음"), ErrNotFound)
}

func TestPatients_Delete(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpsertPatient(&model.Patient{Name: "a"}))
	require.NoError(t, st.UpsertPatient(&model.Patient{Name: "b"}))

	require.NoError(t, st.DeletePatient("a"))
	_, err := st.GetPatient("a")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := st.CountPatients()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHistory_InsertQueryFilter(t *testing.T) {
	st := newTestStore(t)

	records := []*model.HistoryRecord{
		{ShipDate: "2025-09-01", Name: "김환자", Group: "매주", Round: 1, Items: "MixA:2"},
		{ShipDate: "2025-09-08", Name: "김환자", Group: "매주", Round: 2, Items: "MixA:2"},
		{ShipDate: "2025-09-08", Name: "이환자", Group: "격주", Round: 1, Items: "RawHoney:1"},
		{ShipDate: "2025-09-15", Name: "박환자", Group: "단발", Round: 1, Items: "MixB:1"},
	}
	require.NoError(t, st.BatchInsertHistory(records))
	for _, r := range records {
		assert.NotZero(t, r.ID)
	}

	all, err := st.ListHistory(HistoryQueryOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2025-09-01", all[0].ShipDate)

	kim, err := st.ListHistory(HistoryQueryOptions{Names: []string{"김환자", "이환자"}, From: "2025-09-08"})
	require.NoError(t, err)
	require.Len(t, kim, 2)

	n, err := st.CountHistory(HistoryQueryOptions{To: "2025-09-08"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	names, err := st.ListHistoryNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"김환자", "박환자", "이환자"}, names)

	dates, err := st.ListShipDates()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-09-15", "2025-09-08", "2025-09-01"}, dates)
}

func TestConfig_KeyValue(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetConfig("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.SetConfig("answer", "42"))
	require.NoError(t, st.SetConfig("answer", "43"))
	v, err := st.GetConfig("answer")
	require.NoError(t, err)
	assert.Equal(t, "43", v)

	d := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.SetLastShipDate(d))
	got, err := st.GetLastShipDate()
	require.NoError(t, err)
	assert.True(t, got.Equal(d))

	all, err := st.GetAllConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"answer": "43", "last_ship_date": "2025-09-08"}, all)
}

func TestImportLog_LastImportTime(t *testing.T) {
	st := newTestStore(t)

	_, err := st.LastImportTime()
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := st.CreateImportLog("book.xlsx", "/tmp/book.xlsx", 100, "")
	require.NoError(t, err)
	require.NoError(t, st.UpdateImportLog(id, ImportLogResult{TotalSheets: 2, ImportedSheets: 2, Status: "done"}))

	ts, err := st.LastImportTime()
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func seedImport(t *testing.T, st *Store) {
	t.Helper()
	require.NoError(t, st.ApplyImport(ImportBatch{
		Patients: []*model.Patient{
			{Name: "김환자", Group: "매주", StartDateRaw: "2025-09-01", Orders: "MixA:2"},
			{Name: "이환자", Group: "격주", StartDateRaw: "2025-09-08", Orders: "MixB:1"},
		},
		History: []*model.HistoryRecord{
			{ShipDate: "2025-09-01", Name: "김환자", Round: 1, Items: "MixA:2"},
			{ShipDate: "2025-09-08", Name: "김환자", Round: 2, Items: "MixA:2"},
			{ShipDate: "2025-09-08", Name: "이환자", Round: 1, Items: "MixB:1"},
		},
	}))
}

func TestApplyImport_ReplaceOnlyWhatWasRead(t *testing.T) {
	st := newTestStore(t)
	seedImport(t, st)

	// 환자만 읽은 가져오기: 이력은 ClearHistory 여도 그대로
	require.NoError(t, st.ApplyImport(ImportBatch{
		Patients:        []*model.Patient{{Name: "박환자", Group: "단발"}},
		ReplacePatients: true,
		ClearHistory:    true,
	}))

	list, err := st.ListPatients()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "박환자", list[0].Name)

	n, err := st.CountHistory(HistoryQueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 빈 배치는 아무것도 지우지 않는다
	require.NoError(t, st.ApplyImport(ImportBatch{ReplacePatients: true, ClearHistory: true}))
	n, err = st.CountPatients()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = st.CountHistory(HistoryQueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReplaceHistoryForDates(t *testing.T) {
	st := newTestStore(t)
	seedImport(t, st)

	require.NoError(t, st.ReplaceHistoryForDates([]*model.HistoryRecord{
		{ShipDate: "2025-09-08", Name: "김환자", Round: 2, Items: "MixA:3"},
	}))

	records, err := st.ListHistory(HistoryQueryOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-09-01", records[0].ShipDate)
	assert.Equal(t, "MixA:3", records[1].Items)
}

func TestReplaceHistoryForDates_RollsBackOnInsertFailure(t *testing.T) {
	st := newTestStore(t)
	seedImport(t, st)

	_, err := st.db.Exec(`CREATE TRIGGER reject_name BEFORE INSERT ON history
		WHEN NEW.name = 'reject' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	err = st.ReplaceHistoryForDates([]*model.HistoryRecord{
		{ShipDate: "2025-09-08", Name: "김환자", Round: 2, Items: "MixA:3"},
		{ShipDate: "2025-09-08", Name: "reject", Round: 1},
	})
	require.Error(t, err)

	// 삭제도 함께 롤백되어 기존 이력이 남는다
	records, err := st.ListHistory(HistoryQueryOptions{From: "2025-09-08", To: "2025-09-08"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.NotEqual(t, "MixA:3", r.Items)
	}
}
