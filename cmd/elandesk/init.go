package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/faisos7/Elan-vpmi-app/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "현재 설정(기본값 + 환경변수)으로 config.toml 생성",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.info.Path
			if a.info.FileFound && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create config dir: %w", err)
			}
			if err := config.SaveConfig(a.cfg, path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			a.logger.Info("config written", zap.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "설정 파일 생성: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "이미 있는 config.toml 덮어쓰기")
	return cmd
}
