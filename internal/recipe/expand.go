package recipe

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Mode 집계 방식
type Mode int

const (
	RawTotals        Mode = iota // 포장 단위 합계
	DecomposedTotals             // 원재료 분해 합계
)

// ParseMode 문자열을 집계 방식으로
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw", "packaged":
		return RawTotals, nil
	case "decomposed", "materials":
		return DecomposedTotals, nil
	}
	return RawTotals, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) String() string {
	if m == DecomposedTotals {
		return "decomposed"
	}
	return "raw"
}

// OrderLine 주문 한 줄
type OrderLine struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
}

// Totals 이름 -> 합계
type Totals map[string]float64

// Entry 정렬된 합계 항목
type Entry struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// ParseOrders "제품:수량,제품:수량" 문자열을 주문 줄로 분해한다.
// 형식이 맞지 않는 토큰은 두 번째 반환값으로 돌려주고 건너뛴다.
func ParseOrders(s string) ([]OrderLine, []string) {
	var lines []OrderLine
	var skipped []string
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		line, ok := parseToken(tok)
		if !ok {
			skipped = append(skipped, tok)
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func parseToken(tok string) (OrderLine, bool) {
	parts := strings.Split(tok, ":")
	if len(parts) != 2 {
		return OrderLine{}, false
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return OrderLine{}, false
	}
	qty, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || qty < 0 {
		return OrderLine{}, false
	}
	return OrderLine{Product: name, Quantity: float64(qty)}, true
}

// FormatOrders 주문 줄을 "제품:수량" 문자열로 (발송내역 기록용)
func FormatOrders(lines []OrderLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Product+":"+strconv.FormatFloat(l.Quantity, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func validLine(l OrderLine) bool {
	if l.Product == "" {
		return false
	}
	return !math.IsNaN(l.Quantity) && !math.IsInf(l.Quantity, 0) && l.Quantity >= 0
}

// Expand 주문 줄을 합산한다.
// RawTotals 는 제품명 그대로, DecomposedTotals 는 카탈로그에 있는 제품을
// qty/batch_size 비율로 원재료에 나눠 더하고 없는 제품은 그대로 더한다.
// 수량 0 인 줄도 키는 남긴다.
func Expand(lines []OrderLine, catalog Catalog, mode Mode) Totals {
	totals := make(Totals)
	for _, l := range lines {
		if !validLine(l) {
			continue
		}
		if mode == DecomposedTotals {
			if r, ok := catalog[l.Product]; ok {
				ratio := l.Quantity / r.BatchSize
				for name, qty := range r.Materials {
					totals[name] += qty * ratio
				}
				continue
			}
		}
		totals[l.Product] += l.Quantity
	}
	return totals
}

// ExpandOrders 여러 주문 문자열을 한 번에 집계. 건너뛴 토큰 수를 함께 반환.
func ExpandOrders(orders []string, catalog Catalog, mode Mode) (Totals, int) {
	var all []OrderLine
	skipped := 0
	for _, o := range orders {
		lines, bad := ParseOrders(o)
		all = append(all, lines...)
		skipped += len(bad)
	}
	return Expand(all, catalog, mode), skipped
}

// Add 다른 합계를 더한다
func (t Totals) Add(other Totals) {
	for k, v := range other {
		t[k] += v
	}
}

// Sorted 수량 내림차순, 같으면 이름순
func (t Totals) Sorted() []Entry {
	out := make([]Entry, 0, len(t))
	for name, qty := range t {
		out = append(out, Entry{Name: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	return out
}
