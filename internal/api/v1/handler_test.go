package v1

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/faisos7/Elan-vpmi-app/internal/importer"
	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

type testEnv struct {
	router *gin.Engine
	store  *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "elan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	catalog, err := recipe.NewCatalog(map[string]recipe.Recipe{
		"MixA": {BatchSize: 10, Materials: map[string]float64{"Honey": 5, "Ginger": 5}},
	})
	require.NoError(t, err)

	h := NewHandler(st, catalog, Options{
		Location:  time.FixedZone("KST", 9*3600),
		UploadDir: dir,
		ExportDir: dir,
	})
	h.now = func() time.Time { return time.Date(2025, 9, 15, 1, 0, 0, 0, time.UTC) }

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestComputeRound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/round", map[string]string{
		"startDate":     "2025-09-01",
		"referenceDate": "2025-09-15",
		"group":         "격주",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, float64(2), resp["round"])
	assert.Equal(t, "biweekly", resp["cadence"])
	assert.Equal(t, "ok", resp["status"])

	// 기준일 생략 시 KST 오늘 (2025-09-15)
	w = env.do(t, http.MethodPost, "/api/round", map[string]string{"startDate": "2025-09-01", "group": "매주"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, float64(3), resp["round"])
	assert.Equal(t, "2025-09-15", resp["referenceDate"])

	w = env.do(t, http.MethodPost, "/api/round", map[string]string{"startDate": "nan"})
	decode(t, w, &resp)
	assert.Equal(t, "미입력", resp["startDate"])

	w = env.do(t, http.MethodPost, "/api/round", map[string]string{"startDate": "2025-09-01", "referenceDate": "어제"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpandOrders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/expand", map[string]interface{}{
		"orders": "MixA:2,RawHoney:1,bad",
		"mode":   "decomposed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp ExpandResponse
	decode(t, w, &resp)
	assert.Equal(t, "decomposed", resp.Mode)
	assert.Equal(t, []string{"bad"}, resp.Skipped)
	assert.Equal(t, []recipe.Entry{{Name: "Ginger", Quantity: 1}, {Name: "Honey", Quantity: 1}, {Name: "RawHoney", Quantity: 1}}, resp.Totals)

	w = env.do(t, http.MethodPost, "/api/expand", map[string]interface{}{"orders": "MixA:1", "mode": "weird"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRecipes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/recipes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"product":"MixA"`)
	assert.Contains(t, w.Body.String(), `"batchSize":10`)
}

func TestPatientsCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/patients/"+url.PathEscape("김환자"), PatientRequest{Group: "매주", StartDate: "2025.09.01", Orders: "MixA:2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view map[string]interface{}
	decode(t, w, &view)
	assert.Equal(t, "2025-09-01", view["startDateRaw"])
	assert.Equal(t, "weekly", view["cadence"])

	w = env.do(t, http.MethodGet, "/api/patients/"+url.PathEscape("김환자")+"?date=2025-09-08", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Equal(t, float64(2), view["round"].(map[string]interface{})["round"])

	w = env.do(t, http.MethodGet, "/api/patients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)

	w = env.do(t, http.MethodDelete, "/api/patients/"+url.PathEscape("김환자"), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/api/patients/"+url.PathEscape("김환자"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/api/patients/"+url.PathEscape("김환자"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func seedPatients(t *testing.T, st *store.Store) {
	t.Helper()
	require.NoError(t, st.ApplyImport(store.ImportBatch{Patients: []*model.Patient{
		{Name: "김", Group: "매주", StartDateRaw: "2025-09-01", Orders: "MixA:2"},
		{Name: "이", Group: "격주", StartDateRaw: "2025-09-08", Orders: "MixA:4"},
	}}))
}

func TestScheduleAndShipments(t *testing.T) {
	env := newTestEnv(t)
	seedPatients(t, env.store)

	w := env.do(t, http.MethodGet, "/api/schedule?date=2025-09-15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plan struct {
		Date     string         `json:"date"`
		Packaged []recipe.Entry `json:"packaged"`
	}
	decode(t, w, &plan)
	assert.Equal(t, "2025-09-15", plan.Date)
	// 이 는 격주 쉬는 주
	assert.Equal(t, []recipe.Entry{{Name: "MixA", Quantity: 2}}, plan.Packaged)

	w = env.do(t, http.MethodPost, "/api/shipments", ShipmentRequest{Date: "2025-09-15", Names: []string{"김"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	records, err := env.store.ListHistory(store.HistoryQueryOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Round)
	assert.Equal(t, "MixA:2", records[0].Items)
	assert.NotEmpty(t, records[0].BatchID)

	d, err := env.store.GetLastShipDate()
	require.NoError(t, err)
	assert.Equal(t, "2025-09-15", d.Format("2006-01-02"))

	w = env.do(t, http.MethodPost, "/api/shipments", ShipmentRequest{Date: "2025-09-15", Names: []string{"없음"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/api/shipments", ShipmentRequest{Date: "2025-09-15"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func seedHistory(t *testing.T, st *store.Store) {
	t.Helper()
	require.NoError(t, st.BatchInsertHistory([]*model.HistoryRecord{
		{ShipDate: "2025-09-01", Name: "김", Group: "매주", Round: 1, Items: "MixA:2,RawHoney:1"},
		{ShipDate: "2025-09-08", Name: "김", Group: "매주", Round: 2, Items: "MixA:2"},
		{ShipDate: "2025-09-08", Name: "이", Group: "격주", Round: 1, Items: "MixB:3"},
	}))
}

func TestHistoryListAndSummary(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env.store)

	w := env.do(t, http.MethodGet, "/api/history?names="+url.QueryEscape("김"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Records   []model.HistoryRecord `json:"records"`
		Total     int                   `json:"total"`
		Names     []string              `json:"names"`
		ShipDates []string              `json:"shipDates"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, []string{"김", "이"}, list.Names)
	assert.Equal(t, []string{"2025-09-08", "2025-09-01"}, list.ShipDates)

	w = env.do(t, http.MethodGet, "/api/history/summary?names="+url.QueryEscape("김"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Packaged  []recipe.Entry `json:"packaged"`
		Materials []recipe.Entry `json:"materials"`
	}
	decode(t, w, &summary)
	assert.Equal(t, []recipe.Entry{{Name: "MixA", Quantity: 4}, {Name: "RawHoney", Quantity: 1}}, summary.Packaged)
	assert.Len(t, summary.Materials, 3)
}

func TestHistoryDateFilter(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env.store)

	// 자리수가 다른 날짜도 YYYY-MM-DD 로 맞춰 비교한다
	w := env.do(t, http.MethodGet, "/api/history?from=2025-9-8", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Total)

	w = env.do(t, http.MethodGet, "/api/history?to=2025.09.01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, 1, list.Total)

	for _, path := range []string{
		"/api/history?from=someday",
		"/api/history/summary?to=2025-13-40",
		"/api/history/export?from=abc",
	} {
		w = env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w = env.do(t, http.MethodPost, "/api/history/export/xlsx", ExportRequest{From: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHistoryCSV(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env.store)

	w := env.do(t, http.MethodGet, "/api/history/export?names="+url.QueryEscape("이"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "history_export_20250915.csv")
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\uFEFF발송일,이름,그룹,회차,발송내역\n"))
	assert.Contains(t, body, "2025-09-08,이,격주,1,MixB:3\n")
	assert.NotContains(t, body, "김")
}

func TestExportXLSXDownloadOnce(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env.store)

	w := env.do(t, http.MethodPost, "/api/history/export/xlsx", ExportRequest{Names: []string{"김"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token       string `json:"token"`
		DownloadURL string `json:"downloadUrl"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	w = env.do(t, http.MethodGet, resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"패키징합계", "성분분해합계", "히스토리"}, f.GetSheetList())

	w = env.do(t, http.MethodGet, resp.DownloadURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	seedPatients(t, env.store)

	w := env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st StatusResponse
	decode(t, w, &st)
	assert.True(t, st.Initialized)
	assert.Equal(t, 2, st.Patients)
	assert.Equal(t, 1, st.Recipes)
	assert.Equal(t, "2025-09-15", st.Today)
	assert.Empty(t, st.LastImportTime)
	assert.Empty(t, st.Settings)

	require.NoError(t, env.store.SetLastShipDate(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)))
	w = env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &st)
	assert.Equal(t, "2025-09-15", st.LastShipDate)
	assert.Equal(t, map[string]string{"last_ship_date": "2025-09-15"}, st.Settings)
}

func TestImportStreamsProgress(t *testing.T) {
	env := newTestEnv(t)

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "patients"))
	require.NoError(t, wb.SetSheetRow("patients", "A1", &[]interface{}{"이름", "그룹", "시작일", "주문내역"}))
	require.NoError(t, wb.SetSheetRow("patients", "A2", &[]interface{}{"김", "매주", "2025-09-01", "MixA:2"}))
	xlsx, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "patients.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var types []string
	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt importer.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		types = append(types, evt.Type)
	}
	require.NotEmpty(t, types)
	assert.Equal(t, importer.EventDone, types[len(types)-1])

	n, err := env.store.CountPatients()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportRequiresFile(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
