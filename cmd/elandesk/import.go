package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/faisos7/Elan-vpmi-app/internal/config"
	"github.com/faisos7/Elan-vpmi-app/internal/importer"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

func newImportCmd(a *app) *cobra.Command {
	var replacePatients, clearHistory bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "엑셀 통합문서의 환자/이력 시트를 가져오기",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.EnsureDataDir(a.cfg); err != nil {
				return fmt.Errorf("failed to create data dir: %w", err)
			}
			st, err := store.New(a.cfg.DBPath())
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			out := cmd.OutOrStdout()
			coordinator := importer.NewCoordinator(st, a.logger.Named("import"))
			report, err := coordinator.ImportSync(ctx, importer.ImportOptions{
				FilePath:         args[0],
				OriginalFilename: filepath.Base(args[0]),
				ReplacePatients:  replacePatients,
				ClearHistory:     clearHistory,
				PatientSheet:     a.cfg.Business.PatientSheet,
				HistorySheet:     a.cfg.Business.HistorySheet,
			}, func(evt importer.ProgressEvent) {
				if evt.Type == importer.EventDone {
					return
				}
				fmt.Fprintf(out, "[%s] %s\n", evt.Type, evt.Message)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "완료: 시트 %d/%d, 행 %d (오류 %d)\n",
				report.ImportedSheets, report.TotalSheets, report.ImportedRows, report.ErrorRows)
			for _, s := range report.Sheets {
				for _, e := range s.Errors {
					fmt.Fprintf(out, "  %s: %s\n", s.SheetName, e)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&replacePatients, "replace-patients", false, "기존 환자 목록을 비우고 가져오기")
	cmd.Flags().BoolVar(&clearHistory, "clear-history", false, "기존 이력을 모두 지우고 가져오기")
	return cmd
}
