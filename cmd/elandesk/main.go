package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/faisos7/Elan-vpmi-app/internal/config"
	"github.com/faisos7/Elan-vpmi-app/internal/logger"
)

// app 명령 사이에 공유하는 상태
type app struct {
	configPath string
	cfg        *config.AppConfig
	info       config.LoadConfigInfo
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	serve := newServeCmd(a)
	root := &cobra.Command{
		Use:   "elandesk",
		Short: "Elan 발송 관리 - 회차 계산, 레시피 분해, 발송 이력",
		Long: `elandesk 는 환자별 발송 회차를 계산하고 주문을 원재료로 분해하며
발송 이력을 SQLite 에 보관하는 대시보드 서버다.

인자 없이 실행하면 serve 와 같다.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config.toml 경로 (기본: 실행 파일 옆)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newInitCmd(a), newRoundCmd(a), newExpandCmd(a), newImportCmd(a))
	return root
}

// load 설정과 로거 초기화
func (a *app) load() error {
	path := a.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, info, err := config.LoadConfigFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	a.cfg, a.info = cfg, info

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.logger = lg
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
