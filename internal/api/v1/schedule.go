package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/faisos7/Elan-vpmi-app/internal/schedule"
)

// GetSchedule 발송일 기준 계획
// GET /api/schedule?date=YYYY-MM-DD
func (h *Handler) GetSchedule(c *gin.Context) {
	target, ok := h.referenceDate(c, c.Query("date"))
	if !ok {
		return
	}
	patients, err := h.store.ListPatients()
	if err != nil {
		h.internalError(c, "환자 목록 조회 실패", err)
		return
	}
	c.JSON(http.StatusOK, schedule.Build(patients, target, h.catalog))
}

// ShipmentRequest 발송 기록 요청
type ShipmentRequest struct {
	Date  string   `json:"date"`
	Names []string `json:"names" binding:"required,min=1"`
}

// RecordShipments 선택한 환자의 발송을 이력에 기록
// POST /api/shipments
func (h *Handler) RecordShipments(c *gin.Context) {
	var req ShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "잘못된 요청: "+err.Error())
		return
	}
	target, ok := h.referenceDate(c, req.Date)
	if !ok {
		return
	}

	patients, err := h.store.ListPatients()
	if err != nil {
		h.internalError(c, "환자 목록 조회 실패", err)
		return
	}
	plan := schedule.Build(patients, target, h.catalog)
	records, err := schedule.Record(plan, req.Names)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.BatchInsertHistory(records); err != nil {
		h.internalError(c, "이력 저장 실패", err)
		return
	}
	if err := h.store.SetLastShipDate(target); err != nil {
		h.logger.Warn("save last ship date failed", zap.Error(err))
	}

	h.logger.Info("shipments recorded",
		zap.String("date", plan.Date),
		zap.Int("count", len(records)),
		zap.String("batch", records[0].BatchID))

	c.JSON(http.StatusCreated, gin.H{
		"date":    plan.Date,
		"batchId": records[0].BatchID,
		"records": records,
	})
}
