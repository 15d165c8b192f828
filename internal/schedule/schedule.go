// Package schedule 특정 발송일의 환자별 회차와 생산 수요를 묶어 발송 계획을 만든다.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/recipe"
	"github.com/faisos7/Elan-vpmi-app/internal/round"
)

// Entry 발송 계획의 환자 한 명
type Entry struct {
	Name    string             `json:"name"`
	Group   string             `json:"group"`
	Cadence round.Cadence      `json:"cadence"`
	Round   round.Result       `json:"round"`
	Due     bool               `json:"due"` // 이번 주 정기 발송 대상
	Orders  []recipe.OrderLine `json:"orders"`
	Skipped []string           `json:"skipped,omitempty"` // 읽을 수 없는 주문 토큰
	Memo    string             `json:"memo,omitempty"`
}

// Plan 발송일 기준 계획
type Plan struct {
	Date      string         `json:"date"`
	Entries   []Entry        `json:"entries"`
	Packaged  []recipe.Entry `json:"packaged"`  // 발송 대상 포장 합계
	Materials []recipe.Entry `json:"materials"` // 발송 대상 원재료 합계
}

// Build 환자 목록으로 target 날짜의 발송 계획을 만든다.
// 모든 환자가 Entries 에 들어가고, 합계는 Due 인 환자만 더한다.
func Build(patients []*model.Patient, target time.Time, catalog recipe.Catalog) *Plan {
	plan := &Plan{
		Date:    target.Format(round.DateLayout),
		Entries: make([]Entry, 0, len(patients)),
	}

	var dueLines []recipe.OrderLine
	for _, p := range patients {
		cadence := round.ParseCadence(p.Group)
		lines, skipped := recipe.ParseOrders(p.Orders)
		e := Entry{
			Name:    p.Name,
			Group:   p.Group,
			Cadence: cadence,
			Round:   round.Compute(p.StartDateRaw, target, cadence),
			Orders:  lines,
			Skipped: skipped,
			Memo:    p.Memo,
		}
		if e.Round.Status == round.StatusOK {
			start, err := round.ParseDate(e.Round.StartDate)
			e.Due = err == nil && round.IsShipWeek(start, target, cadence)
		}
		if e.Due {
			dueLines = append(dueLines, lines...)
		}
		plan.Entries = append(plan.Entries, e)
	}

	sort.SliceStable(plan.Entries, func(i, j int) bool {
		if plan.Entries[i].Due != plan.Entries[j].Due {
			return plan.Entries[i].Due
		}
		return plan.Entries[i].Name < plan.Entries[j].Name
	})

	plan.Packaged = recipe.Expand(dueLines, catalog, recipe.RawTotals).Sorted()
	plan.Materials = recipe.Expand(dueLines, catalog, recipe.DecomposedTotals).Sorted()
	return plan
}

// Record 계획에서 고른 환자들의 발송 이력을 만든다. 같은 배치 ID 를 공유한다.
// 계획에 없는 이름이 있으면 오류.
func Record(plan *Plan, names []string) ([]*model.HistoryRecord, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no patients selected")
	}
	byName := make(map[string]*Entry, len(plan.Entries))
	for i := range plan.Entries {
		byName[plan.Entries[i].Name] = &plan.Entries[i]
	}

	batchID := uuid.NewString()
	now := time.Now()
	seen := make(map[string]bool, len(names))
	records := make([]*model.HistoryRecord, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		e, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("patient %s is not in the plan for %s", name, plan.Date)
		}
		records = append(records, &model.HistoryRecord{
			ShipDate:  plan.Date,
			Name:      e.Name,
			Group:     e.Group,
			Round:     e.Round.Round,
			Items:     recipe.FormatOrders(e.Orders),
			BatchID:   batchID,
			CreatedAt: now,
		})
	}
	return records, nil
}
