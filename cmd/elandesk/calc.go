package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/round"
)

func newRoundCmd(a *app) *cobra.Command {
	var start, date, group, cadence string

	cmd := &cobra.Command{
		Use:   "round",
		Short: "시작일과 기준일로 회차 계산",
		Example: `  elandesk round --start 2025-09-01 --date 2025-09-08 --group 매주
  elandesk round --start 45901 --cadence biweekly`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := nowIn(a)
			if strings.TrimSpace(date) != "" {
				d, err := round.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				ref = d
			}
			label := cadence
			if label == "" {
				label = group
			}
			c := round.ParseCadence(label)
			res := round.Compute(start, ref, c)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "회차: %d\n", res.Round)
			fmt.Fprintf(out, "시작일: %s\n", res.StartDate)
			fmt.Fprintf(out, "상태: %s\n", res.Status)
			fmt.Fprintf(out, "주기: %s\n", c)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "시작일 (YYYY-MM-DD, YYYY.MM.DD, 엑셀 일련번호 등)")
	cmd.Flags().StringVar(&date, "date", "", "기준일 (기본: 오늘)")
	cmd.Flags().StringVar(&group, "group", "", "그룹 라벨 (주기 추론)")
	cmd.Flags().StringVar(&cadence, "cadence", "", "주기 직접 지정 (weekly/biweekly)")
	return cmd
}

func newExpandCmd(a *app) *cobra.Command {
	var orders []string
	var mode, recipesPath string

	cmd := &cobra.Command{
		Use:     "expand",
		Short:   "주문 문자열을 제품 또는 원재료 합계로",
		Example: `  elandesk expand --orders "MixA:20,RawHoney:5" --mode decomposed`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := recipe.ParseMode(mode)
			if err != nil {
				return err
			}
			path := recipesPath
			if path == "" {
				path = a.cfg.RecipePath()
			}
			catalog, err := recipe.LoadCatalog(path)
			if err != nil {
				return err
			}

			totals, skipped := recipe.ExpandOrders(orders, catalog, m)
			out := cmd.OutOrStdout()
			for _, e := range totals.Sorted() {
				fmt.Fprintf(out, "%s\t%s\n", e.Name, strconv.FormatFloat(e.Quantity, 'f', -1, 64))
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "건너뛴 토큰 %d개\n", skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&orders, "orders", nil, "주문 문자열 \"제품:수량,...\" (여러 번 지정 가능)")
	cmd.Flags().StringVar(&mode, "mode", "raw", "raw 또는 decomposed")
	cmd.Flags().StringVar(&recipesPath, "recipes", "", "레시피 YAML (기본: 설정의 recipe_file)")
	return cmd
}

// nowIn 설정 시간대의 현재 시각
func nowIn(a *app) time.Time {
	return time.Now().In(a.cfg.Location())
}
