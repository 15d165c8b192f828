package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/faisos7/Elan-vpmi-app/internal/config"
	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/server"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
	"github.com/faisos7/Elan-vpmi-app/internal/util"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port        int
		devMode     bool
		dataDir     string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP 서버 시작",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			// 설정 파일에 port 가 명시돼 있으면 그쪽이 우선
			if port > 0 && !a.info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}
			if dataDir != "" {
				cfg.Data.DataDir = dataDir
			}
			return runServe(cmd.Context(), a, openBrowser)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "서비스 포트 (config.toml 에 port 가 없을 때만 적용)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "개발 모드")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "데이터 디렉터리 (설정 파일보다 우선)")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "시작 후 브라우저 열기")
	return cmd
}

func runServe(parent context.Context, a *app, openBrowser bool) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, log := a.cfg, a.logger

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	log.Info("data dir ready", zap.String("path", dataDir))

	catalog, err := recipe.LoadCatalog(cfg.RecipePath())
	if err != nil {
		return err
	}
	log.Info("recipes loaded", zap.String("path", cfg.RecipePath()), zap.Int("count", len(catalog)))

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer st.Close()

	srv := server.NewServer(cfg, st, catalog, log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if openBrowser {
		g.Go(func() error {
			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
			select {
			case <-time.After(500 * time.Millisecond):
			case <-gctx.Done():
				return nil
			}
			if err := util.OpenBrowserWithFallback(url); err != nil {
				log.Warn("open browser failed", zap.String("url", url), zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
