package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faisos7/Elan-vpmi-app/internal/round"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

// StatusResponse 시스템 상태
type StatusResponse struct {
	Initialized    bool              `json:"initialized"` // 환자 데이터가 있는지
	Today          string            `json:"today"`
	Timezone       string            `json:"timezone"`
	Patients       int               `json:"patients"`
	HistoryRecords int               `json:"historyRecords"`
	Recipes        int               `json:"recipes"`
	LastImportTime string            `json:"lastImportTime"`
	LastShipDate   string            `json:"lastShipDate"`
	Settings       map[string]string `json:"settings"` // 저장소 config 테이블
}

// GetStatus 시스템 상태
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	patients, err := h.store.CountPatients()
	if err != nil {
		h.internalError(c, "환자 수 조회 실패", err)
		return
	}
	records, err := h.store.CountHistory(store.HistoryQueryOptions{})
	if err != nil {
		h.internalError(c, "이력 수 조회 실패", err)
		return
	}

	resp := StatusResponse{
		Initialized:    patients > 0,
		Today:          h.today().Format(round.DateLayout),
		Timezone:       h.opts.Location.String(),
		Patients:       patients,
		HistoryRecords: records,
		Recipes:        len(h.catalog),
	}
	if t, err := h.store.LastImportTime(); err == nil {
		resp.LastImportTime = t.In(h.opts.Location).Format(time.RFC3339)
	} else if !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, "가져오기 기록 조회 실패", err)
		return
	}
	if d, err := h.store.GetLastShipDate(); err == nil {
		resp.LastShipDate = d.Format(round.DateLayout)
	}
	settings, err := h.store.GetAllConfig()
	if err != nil {
		h.internalError(c, "설정 조회 실패", err)
		return
	}
	resp.Settings = settings

	c.JSON(http.StatusOK, resp)
}
