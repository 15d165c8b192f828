package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/round"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

// PatientView 환자 + 기준일 회차
type PatientView struct {
	*model.Patient
	Cadence round.Cadence `json:"cadence"`
	Round   round.Result  `json:"round"`
}

// PatientRequest 환자 저장 요청
type PatientRequest struct {
	Group     string `json:"group"`
	StartDate string `json:"startDate"`
	Orders    string `json:"orders"`
	Memo      string `json:"memo"`
}

func viewPatient(p *model.Patient, ref time.Time) PatientView {
	cadence := round.ParseCadence(p.Group)
	return PatientView{
		Patient: p,
		Cadence: cadence,
		Round:   round.Compute(p.StartDateRaw, ref, cadence),
	}
}

// ListPatients 환자 목록 (?date= 기준 회차 포함)
// GET /api/patients
func (h *Handler) ListPatients(c *gin.Context) {
	ref, ok := h.referenceDate(c, c.Query("date"))
	if !ok {
		return
	}
	patients, err := h.store.ListPatients()
	if err != nil {
		h.internalError(c, "환자 목록 조회 실패", err)
		return
	}
	out := make([]PatientView, 0, len(patients))
	for _, p := range patients {
		out = append(out, viewPatient(p, ref))
	}
	c.JSON(http.StatusOK, gin.H{"patients": out, "total": len(out)})
}

// GetPatient 환자 조회
// GET /api/patients/:name
func (h *Handler) GetPatient(c *gin.Context) {
	ref, ok := h.referenceDate(c, c.Query("date"))
	if !ok {
		return
	}
	p, err := h.store.GetPatient(c.Param("name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "환자를 찾을 수 없음")
			return
		}
		h.internalError(c, "환자 조회 실패", err)
		return
	}
	c.JSON(http.StatusOK, viewPatient(p, ref))
}

// PutPatient 환자 추가/수정
// PUT /api/patients/:name
func (h *Handler) PutPatient(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, "이름이 필요함")
		return
	}
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "잘못된 요청: "+err.Error())
		return
	}

	startRaw := strings.TrimSpace(req.StartDate)
	if d, err := round.ParseDate(startRaw); err == nil {
		startRaw = d.Format(round.DateLayout)
	}

	p := &model.Patient{
		Name:         name,
		Group:        strings.TrimSpace(req.Group),
		StartDateRaw: startRaw,
		Orders:       strings.TrimSpace(req.Orders),
		Memo:         req.Memo,
	}
	if err := h.store.UpsertPatient(p); err != nil {
		h.internalError(c, "환자 저장 실패", err)
		return
	}

	saved, err := h.store.GetPatient(name)
	if err != nil {
		h.internalError(c, "환자 조회 실패", err)
		return
	}
	c.JSON(http.StatusOK, viewPatient(saved, h.today()))
}

// DeletePatient 환자 삭제 (이력은 남긴다)
// DELETE /api/patients/:name
func (h *Handler) DeletePatient(c *gin.Context) {
	if err := h.store.DeletePatient(c.Param("name")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "환자를 찾을 수 없음")
			return
		}
		h.internalError(c, "환자 삭제 실패", err)
		return
	}
	c.Status(http.StatusNoContent)
}
