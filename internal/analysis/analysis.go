// Package analysis 누적 발송 이력을 포장 단위와 원재료 단위로 집계한다.
package analysis

import (
	"sort"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
)

// Summary 선택한 이력의 집계
type Summary struct {
	Names         []string               `json:"names"`
	Packaged      []recipe.Entry         `json:"packaged"`
	Materials     []recipe.Entry         `json:"materials"`
	Records       []*model.HistoryRecord `json:"records"`
	SkippedTokens []string               `json:"skippedTokens,omitempty"`
}

// Summarize 이력 레코드의 발송내역을 합산한다. 읽을 수 없는 토큰은 건너뛰고 모아 둔다.
func Summarize(records []*model.HistoryRecord, catalog recipe.Catalog) *Summary {
	s := &Summary{Records: records}
	if s.Records == nil {
		s.Records = []*model.HistoryRecord{}
	}

	names := map[string]bool{}
	var lines []recipe.OrderLine
	for _, r := range records {
		names[r.Name] = true
		parsed, skipped := recipe.ParseOrders(r.Items)
		lines = append(lines, parsed...)
		s.SkippedTokens = append(s.SkippedTokens, skipped...)
	}
	for n := range names {
		s.Names = append(s.Names, n)
	}
	sort.Strings(s.Names)

	s.Packaged = recipe.Expand(lines, catalog, recipe.RawTotals).Sorted()
	s.Materials = recipe.Expand(lines, catalog, recipe.DecomposedTotals).Sorted()
	return s
}
