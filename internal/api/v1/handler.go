package v1

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

// Options 핸들러 설정
type Options struct {
	Location     *time.Location // 발송일 기준 시간대
	PatientSheet string
	HistorySheet string
	UploadDir    string // 가져오기 임시 파일
	ExportDir    string // 내보내기 임시 파일
	Logger       *zap.Logger
}

// Handler API 처리기
type Handler struct {
	store     *store.Store
	catalog   recipe.Catalog
	opts      Options
	logger    *zap.Logger
	downloads *exportDownloadStore
	now       func() time.Time
}

// NewHandler API 처리기 생성
func NewHandler(store *store.Store, catalog recipe.Catalog, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = os.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = recipe.Catalog{}
	}
	return &Handler{
		store:     store,
		catalog:   catalog,
		opts:      opts,
		logger:    opts.Logger,
		downloads: newExportDownloadStore(),
		now:       time.Now,
	}
}

// RegisterRoutes API 라우트 등록
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 시스템 상태
	router.GET("/status", h.GetStatus)

	// 계산
	router.POST("/round", h.ComputeRound)
	router.POST("/expand", h.ExpandOrders)
	router.GET("/recipes", h.ListRecipes)

	// 환자
	router.GET("/patients", h.ListPatients)
	router.GET("/patients/:name", h.GetPatient)
	router.PUT("/patients/:name", h.PutPatient)
	router.DELETE("/patients/:name", h.DeletePatient)

	// 발송
	router.GET("/schedule", h.GetSchedule)
	router.POST("/shipments", h.RecordShipments)

	// 이력
	router.GET("/history", h.ListHistory)
	router.GET("/history/summary", h.SummarizeHistory)
	router.GET("/history/export", h.ExportHistoryCSV)
	router.POST("/history/export/xlsx", h.ExportHistoryXLSX)
	router.GET("/export/download/:token", h.DownloadExport)

	// 가져오기
	router.POST("/import", h.Import)
}

// today 설정 시간대 기준 오늘
func (h *Handler) today() time.Time {
	return h.now().In(h.opts.Location)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (h *Handler) internalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err), zap.String("path", c.FullPath()))
	respondError(c, http.StatusInternalServerError, message)
}
