package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/faisos7/Elan-vpmi-app/internal/api/v1"
	"github.com/faisos7/Elan-vpmi-app/internal/config"
	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

// Server HTTP 서버
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *v1.Handler
	logger *zap.Logger
	addr   string
}

// NewServer 서버 생성. store 와 catalog 의 수명은 호출 측이 관리한다.
func NewServer(cfg *config.AppConfig, st *store.Store, catalog recipe.Catalog, logger *zap.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api := v1.NewHandler(st, catalog, v1.Options{
		Location:     cfg.Location(),
		PatientSheet: cfg.Business.PatientSheet,
		HistorySheet: cfg.Business.HistorySheet,
		UploadDir:    cfg.GetDataPath("uploads", ""),
		ExportDir:    cfg.GetDataPath("exports", ""),
		Logger:       logger.Named("api"),
	})

	s := &Server{
		router: gin.New(),
		store:  st,
		api:    api,
		logger: logger,
		addr:   fmt.Sprintf(":%d", cfg.Server.Port),
	}
	s.setupRoutes()
	return s
}

// setupRoutes 라우트 설정
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), ginLogger(s.logger.Named("http")))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		if err := s.store.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}
}

// ginLogger 요청 한 건마다 zap 로그 한 줄
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// Handler 라우터 (테스트용)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr 수신 주소
func (s *Server) Addr() string {
	return s.addr
}

// Run ctx 가 끝날 때까지 서비스하고 정상 종료한다
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
