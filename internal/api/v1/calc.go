package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/round"
)

// RoundRequest 회차 계산 요청
type RoundRequest struct {
	StartDate     string `json:"startDate"`
	ReferenceDate string `json:"referenceDate"` // 비우면 오늘
	Group         string `json:"group"`
	Cadence       string `json:"cadence"` // 비우면 그룹 라벨로 추론
}

// RoundResponse 회차 계산 결과
type RoundResponse struct {
	round.Result
	Cadence       round.Cadence `json:"cadence"`
	ReferenceDate string        `json:"referenceDate"`
}

// ComputeRound 회차 계산
// POST /api/round
func (h *Handler) ComputeRound(c *gin.Context) {
	var req RoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "잘못된 요청: "+err.Error())
		return
	}

	ref, ok := h.referenceDate(c, req.ReferenceDate)
	if !ok {
		return
	}

	label := req.Cadence
	if strings.TrimSpace(label) == "" {
		label = req.Group
	}
	cadence := round.ParseCadence(label)

	c.JSON(http.StatusOK, RoundResponse{
		Result:        round.Compute(req.StartDate, ref, cadence),
		Cadence:       cadence,
		ReferenceDate: ref.Format(round.DateLayout),
	})
}

// referenceDate 요청 날짜를 읽는다. 비어 있으면 오늘. 실패하면 400 을 쓰고 false.
func (h *Handler) referenceDate(c *gin.Context, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return h.today(), true
	}
	d, err := round.ParseDate(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "날짜 형식 오류: "+raw)
		return time.Time{}, false
	}
	return d, true
}

// ExpandRequest 주문 집계 요청. orders 문자열과 lines 를 함께 보내면 둘 다 더한다.
type ExpandRequest struct {
	Orders string             `json:"orders"`
	Lines  []recipe.OrderLine `json:"lines"`
	Mode   string             `json:"mode"`
}

// ExpandResponse 주문 집계 결과
type ExpandResponse struct {
	Mode    string         `json:"mode"`
	Totals  []recipe.Entry `json:"totals"`
	Skipped []string       `json:"skipped"`
}

// ExpandOrders 주문을 포장 또는 원재료 단위로 집계
// POST /api/expand
func (h *Handler) ExpandOrders(c *gin.Context) {
	var req ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "잘못된 요청: "+err.Error())
		return
	}
	mode, err := recipe.ParseMode(req.Mode)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	lines, skipped := recipe.ParseOrders(req.Orders)
	lines = append(lines, req.Lines...)
	if skipped == nil {
		skipped = []string{}
	}

	c.JSON(http.StatusOK, ExpandResponse{
		Mode:    mode.String(),
		Totals:  recipe.Expand(lines, h.catalog, mode).Sorted(),
		Skipped: skipped,
	})
}

// RecipeView 레시피 목록 항목
type RecipeView struct {
	Product string `json:"product"`
	recipe.Recipe
}

// ListRecipes 등록된 레시피
// GET /api/recipes
func (h *Handler) ListRecipes(c *gin.Context) {
	names := h.catalog.Names()
	out := make([]RecipeView, 0, len(names))
	for _, n := range names {
		r, _ := h.catalog.Lookup(n)
		out = append(out, RecipeView{Product: n, Recipe: r})
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}
