package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faisos7/Elan-vpmi-app/internal/importer"
)

// Import 엑셀 가져오기 (SSE 진행 스트림)
// POST /api/import
//
// form: file, replacePatients(기본 false), clearHistory(기본 false)
func (h *Handler) Import(c *gin.Context) {
	uploaded, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "업로드 파일이 없음")
		return
	}

	tempPath := filepath.Join(h.opts.UploadDir, fmt.Sprintf("elan_import_%d_%s", time.Now().UnixNano(), filepath.Base(uploaded.Filename)))
	if err := c.SaveUploadedFile(uploaded, tempPath); err != nil {
		h.internalError(c, "파일 저장 실패", err)
		return
	}
	defer os.Remove(tempPath)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, http.StatusInternalServerError, "스트리밍을 지원하지 않음")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	coordinator := importer.NewCoordinator(h.store, h.logger.Named("import"))
	events := coordinator.Import(c.Request.Context(), importer.ImportOptions{
		FilePath:         tempPath,
		OriginalFilename: uploaded.Filename,
		ReplacePatients:  c.DefaultPostForm("replacePatients", "false") == "true",
		ClearHistory:     c.DefaultPostForm("clearHistory", "false") == "true",
		PatientSheet:     h.opts.PatientSheet,
		HistorySheet:     h.opts.HistorySheet,
	})

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
}
