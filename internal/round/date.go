package round

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout 정규화된 날짜 문자열 형식
const DateLayout = "2006-01-02"

// ErrEmptyDate 빈 날짜 입력
var ErrEmptyDate = errors.New("empty date")

var (
	// 2025-09-01 / 2025/9/1 / 2025.09.01 / 2025. 9. 1. / 2025년 9월 1일, 뒤의 시간 부분은 무시
	separatedDateRe = regexp.MustCompile(`^(\d{4})\s*[-./년]\s*(\d{1,2})\s*[-./월]\s*(\d{1,2})`)
	compactDateRe   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// 엑셀 날짜 일련번호 (5자리: 1927~2173년)
var serialRe = regexp.MustCompile(`^\d{5}(\.\d+)?$`)

// IsMissing 시작일 미입력 여부 (빈 값, nan/none 등 스프레드시트가 남기는 빈 표식)
func IsMissing(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "nan", "none", "null", "nat":
		return true
	}
	return false
}

// ParseDate 시작일 문자열을 달력 날짜(UTC 자정)로 파싱
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if IsMissing(s) {
		return time.Time{}, ErrEmptyDate
	}

	if m := separatedDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := compactDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if serialRe.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q", raw)
		}
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date serial %q: %w", raw, err)
		}
		return dateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func buildDate(ys, ms, ds string) (time.Time, error) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date 는 2025-02-30 을 3월로 넘겨버리므로 되돌려 확인
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid calendar date %s-%s-%s", ys, ms, ds)
	}
	return t, nil
}

// dateOf 시각의 (자기 위치 기준) 날짜만 UTC 자정으로
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mondayOf 해당 주의 월요일
func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
