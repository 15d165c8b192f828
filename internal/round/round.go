// Package round 환자별 발송 회차 계산.
//
// 회차는 시작일이 속한 주의 월요일을 기준으로 센다. 실제 발송은 월요일 저녁이지만
// 월요일 당일 준비 화면에서 이미 새 회차가 보여야 하므로, 기준일 역시 그 주의
// 월요일로 내려서 주 차이를 계산한다.
package round

import "time"

// Status 계산 결과 상태
type Status string

const (
	StatusOK         Status = "ok"
	StatusMissing    Status = "missing"     // 시작일 미입력
	StatusParseError Status = "parse_error" // 시작일 형식 오류
	StatusFuture     Status = "future"      // 기준일이 시작일보다 이전
)

// 시작일 칸에 날짜 대신 들어가는 표식
const (
	MarkerMissing    = "미입력"
	MarkerParseError = "날짜오류"
)

// Result 회차 계산 결과
type Result struct {
	Round     int    `json:"round"`
	StartDate string `json:"startDate"` // YYYY-MM-DD 또는 Marker*
	Status    Status `json:"status"`
}

// Compute 시작일 원문, 기준일, 주기로 현재 회차를 계산한다. 오류를 반환하지 않으며
// 시작일이 없거나 읽을 수 없으면 1회차와 표식을 돌려준다.
func Compute(startRaw string, reference time.Time, cadence Cadence) Result {
	if IsMissing(startRaw) {
		return Result{Round: 1, StartDate: MarkerMissing, Status: StatusMissing}
	}
	start, err := ParseDate(startRaw)
	if err != nil {
		return Result{Round: 1, StartDate: MarkerParseError, Status: StatusParseError}
	}
	return ComputeDate(start, reference, cadence)
}

// ComputeDate 이미 파싱된 시작일로 회차 계산
func ComputeDate(start, reference time.Time, cadence Cadence) Result {
	startDay := dateOf(start)
	refDay := dateOf(reference)
	res := Result{Round: 1, StartDate: startDay.Format(DateLayout), Status: StatusOK}

	if daysBetween(startDay, refDay) < 0 {
		res.Status = StatusFuture
		return res
	}

	diffWeeks := WeeksSince(startDay, refDay)
	switch cadence {
	case Weekly:
		res.Round = diffWeeks + 1
	case Biweekly:
		res.Round = diffWeeks/2 + 1
	default:
		res.Round = 1
	}
	if res.Round < 1 {
		res.Round = 1
	}
	return res
}

// ForGroup 그룹 라벨로 주기를 추론해 계산
func ForGroup(startRaw string, reference time.Time, group string) Result {
	return Compute(startRaw, reference, ParseCadence(group))
}

// WeeksSince 시작 주 월요일부터 기준 주 월요일까지의 주 수. 기준일이 앞서면 음수.
func WeeksSince(start, reference time.Time) int {
	return daysBetween(mondayOf(dateOf(start)), mondayOf(dateOf(reference))) / 7
}

// IsShipWeek 기준일이 속한 주가 발송 주인지. 격주는 시작 주와 짝이 맞는 주만,
// 비정기는 항상 false.
func IsShipWeek(start, reference time.Time, cadence Cadence) bool {
	if daysBetween(dateOf(start), dateOf(reference)) < 0 {
		return false
	}
	switch cadence {
	case Weekly:
		return true
	case Biweekly:
		return WeeksSince(start, reference)%2 == 0
	default:
		return false
	}
}
