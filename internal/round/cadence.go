package round

import "strings"

// Cadence 발송 주기
type Cadence int

const (
	Irregular Cadence = iota // 비정기/단발
	Weekly                   // 매주
	Biweekly                 // 격주
)

// 격주 키워드는 먼저 검사한다: "biweekly", "bi-weekly" 는 "weekly" 를 포함한다
var (
	biweeklyKeywords = []string{
		"격주", "biweekly", "bi-weekly", "bi weekly", "fortnight",
		"2-week", "2 week", "two week", "other week", "2주", "유방암", "breast-cancer-group",
	}
	weeklyKeywords   = []string{"매주", "weekly"}
)

// ParseCadence 그룹 라벨(자유 입력)에서 발송 주기를 추론
func ParseCadence(label string) Cadence {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return Irregular
	}
	for _, kw := range biweeklyKeywords {
		if strings.Contains(l, kw) {
			return Biweekly
		}
	}
	for _, kw := range weeklyKeywords {
		if strings.Contains(l, kw) {
			return Weekly
		}
	}
	return Irregular
}

// String 주기 이름
func (c Cadence) String() string {
	switch c {
	case Weekly:
		return "weekly"
	case Biweekly:
		return "biweekly"
	default:
		return "irregular"
	}
}

// MarshalText JSON 등에서 문자열로 노출
func (c Cadence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
