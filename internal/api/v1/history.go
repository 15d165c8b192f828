package v1

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/faisos7/Elan-vpmi-app/internal/analysis"
	"github.com/faisos7/Elan-vpmi-app/internal/exporter"
	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/round"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

const downloadTTL = 10 * time.Minute

// splitNames "a,b" 쿼리를 이름 목록으로
func splitNames(raw string) []string {
	var out []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// normalizeDate 기간 조건을 YYYY-MM-DD 로 맞춘다. 비어 있으면 조건 없음.
func normalizeDate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	d, err := round.ParseDate(raw)
	if err != nil {
		return "", err
	}
	return d.Format(round.DateLayout), nil
}

// historyFilter names/from/to 조건. 날짜를 읽을 수 없으면 400 을 쓰고 false.
func historyFilter(c *gin.Context, names []string, from, to string) (store.HistoryQueryOptions, bool) {
	opts := store.HistoryQueryOptions{Names: names}
	for _, f := range []struct {
		raw string
		dst *string
	}{{from, &opts.From}, {to, &opts.To}} {
		v, err := normalizeDate(f.raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "날짜 형식 오류: "+f.raw)
			return opts, false
		}
		*f.dst = v
	}
	return opts, true
}

func historyQuery(c *gin.Context) (store.HistoryQueryOptions, bool) {
	opts, ok := historyFilter(c, splitNames(c.Query("names")), c.Query("from"), c.Query("to"))
	if !ok {
		return opts, false
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	return opts, true
}

// ListHistory 이력 조회
// GET /api/history?names=a,b&from=&to=&limit=
// 응답의 names, shipDates 는 필터 선택지용 전체 목록
func (h *Handler) ListHistory(c *gin.Context) {
	opts, ok := historyQuery(c)
	if !ok {
		return
	}
	records, err := h.store.ListHistory(opts)
	if err != nil {
		h.internalError(c, "이력 조회 실패", err)
		return
	}
	total, err := h.store.CountHistory(opts)
	if err != nil {
		h.internalError(c, "이력 수 조회 실패", err)
		return
	}
	names, err := h.store.ListHistoryNames()
	if err != nil {
		h.internalError(c, "이름 목록 조회 실패", err)
		return
	}
	dates, err := h.store.ListShipDates()
	if err != nil {
		h.internalError(c, "발송일 목록 조회 실패", err)
		return
	}
	if records == nil {
		records = []*model.HistoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"records":   records,
		"total":     total,
		"names":     names,
		"shipDates": dates,
	})
}

// SummarizeHistory 선택 환자 누적 집계. names 를 비우면 전체.
// GET /api/history/summary?names=a,b
func (h *Handler) SummarizeHistory(c *gin.Context) {
	opts, ok := historyQuery(c)
	if !ok {
		return
	}
	records, err := h.store.ListHistory(opts)
	if err != nil {
		h.internalError(c, "이력 조회 실패", err)
		return
	}
	c.JSON(http.StatusOK, analysis.Summarize(records, h.catalog))
}

// ExportHistoryCSV 선택 이력 CSV 다운로드
// GET /api/history/export?names=a,b
func (h *Handler) ExportHistoryCSV(c *gin.Context) {
	opts, ok := historyQuery(c)
	if !ok {
		return
	}
	records, err := h.store.ListHistory(opts)
	if err != nil {
		h.internalError(c, "이력 조회 실패", err)
		return
	}
	filename := exporter.HistoryFilename(h.now(), h.opts.Location)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)
	if err := exporter.WriteHistoryCSV(c.Writer, records); err != nil {
		h.logger.Error("write csv failed", zap.Error(err))
	}
}

// ExportRequest 엑셀 내보내기 조건
type ExportRequest struct {
	Names []string `json:"names"`
	From  string   `json:"from"`
	To    string   `json:"to"`
}

// ExportHistoryXLSX 집계 통합문서를 만들고 일회용 다운로드 토큰을 준다
// POST /api/history/export/xlsx
func (h *Handler) ExportHistoryXLSX(c *gin.Context) {
	var req ExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "잘못된 요청: "+err.Error())
			return
		}
	}

	filter, ok := historyFilter(c, req.Names, req.From, req.To)
	if !ok {
		return
	}
	file, err := exporter.NewExporter(h.store, h.catalog).Export(exporter.ExportOptions{
		Names: filter.Names,
		From:  filter.From,
		To:    filter.To,
	})
	if err != nil {
		h.internalError(c, "내보내기 실패", err)
		return
	}
	defer file.Close()

	tempPath := filepath.Join(h.opts.ExportDir, fmt.Sprintf("elan_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		_ = os.Remove(tempPath)
		h.internalError(c, "내보내기 파일 저장 실패", err)
		return
	}

	token := h.downloads.put(tempPath, exporter.SummaryFilename(h.now(), h.opts.Location), downloadTTL)
	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"downloadUrl": "/api/export/download/" + token,
	})
}

// DownloadExport 내보낸 파일 다운로드 (일회용)
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.get(token)
	if !ok {
		respondError(c, http.StatusNotFound, "다운로드 링크가 만료됨")
		return
	}
	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		respondError(c, http.StatusNotFound, "내보내기 파일이 없음")
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.FileAttachment(item.filePath, item.filename)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}
