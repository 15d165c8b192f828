package parser

// fieldPatterns 정규화된 열 이름에 대한 패턴. 순서대로 검사하므로
// 발송일이 시작일보다, 발송내역이 주문보다 먼저 온다.
var fieldPatterns = []struct {
	field   Field
	pattern string
}{
	{FieldShipDate, `발송일|발송날짜|출고일|shipdate`},
	{FieldItems, `발송내역|발송품목|^items$`},
	{FieldStartDate, `시작일|시작날짜|첫발송일|startdate`},
	{FieldRound, `^(회차|round)`},
	{FieldName, `^(이름|환자명|환자|성함|성명|name)$`},
	{FieldGroup, `^(그룹|그룹명|구분|group)`},
	{FieldOrders, `주문|구성|제품|orders`},
	{FieldMemo, `메모|비고|memo|note`},
}

// FieldMapper 열 이름 → 필드 매핑
type FieldMapper struct{}

// NewFieldMapper 매퍼 생성
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// MapColumns 표제 행을 필드로 매핑. 같은 필드는 처음 나온 열만 사용한다.
func (m *FieldMapper) MapColumns(headers []string) map[Field]FieldMapping {
	mappings := make(map[Field]FieldMapping)

	for idx, raw := range headers {
		col := NormalizeColumnName(raw)
		if col == "" {
			continue
		}
		for _, fp := range fieldPatterns {
			if _, taken := mappings[fp.field]; taken {
				continue
			}
			if MatchPattern(col, fp.pattern) {
				mappings[fp.field] = FieldMapping{
					ColumnIndex: idx,
					ColumnName:  raw,
					Field:       fp.field,
				}
				break
			}
		}
	}

	return mappings
}

// column 필드의 열 인덱스, 없으면 -1
func column(mappings map[Field]FieldMapping, f Field) int {
	if m, ok := mappings[f]; ok {
		return m.ColumnIndex
	}
	return -1
}
