package parser

import "strings"

// SheetRecognizer 시트 종류 인식기
type SheetRecognizer struct {
	mapper *FieldMapper
}

// NewSheetRecognizer 인식기 생성
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{mapper: NewFieldMapper()}
}

var (
	patientKeyFields = []Field{FieldName, FieldGroup, FieldStartDate, FieldOrders}
	historyKeyFields = []Field{FieldShipDate, FieldName, FieldGroup, FieldRound, FieldItems}

	patientSheetNames = []string{"patient", "환자", "명단"}
	historySheetNames = []string{"history", "이력", "히스토리", "발송"}
)

// Recognize 시트 이름과 표제 행으로 종류 판별
func (r *SheetRecognizer) Recognize(sheetName string, headers []string) SheetRecognitionResult {
	mappings := r.mapper.MapColumns(headers)
	name := strings.ToLower(sheetName)

	// 발송일 + 발송내역이 있으면 이력 시트
	if _, ok := mappings[FieldShipDate]; ok {
		if result := score(sheetName, SheetTypeHistory, mappings, historyKeyFields, ContainsAny(name, historySheetNames)); result.Confidence >= 0.6 {
			if _, hasItems := mappings[FieldItems]; hasItems {
				return result
			}
		}
	}

	if _, ok := mappings[FieldName]; ok {
		if result := score(sheetName, SheetTypePatients, mappings, patientKeyFields, ContainsAny(name, patientSheetNames)); result.Confidence >= 0.5 {
			return result
		}
	}

	return SheetRecognitionResult{
		SheetName:  sheetName,
		SheetType:  SheetTypeUnknown,
		Confidence: 0,
	}
}

func score(sheetName string, sheetType SheetType, mappings map[Field]FieldMapping, keys []Field, nameHit bool) SheetRecognitionResult {
	matched := 0
	for _, f := range keys {
		if _, ok := mappings[f]; ok {
			matched++
		}
	}
	confidence := float64(matched) / float64(len(keys))
	if nameHit {
		confidence += 0.2
	}
	if confidence > 1 {
		confidence = 1
	}
	return SheetRecognitionResult{
		SheetName:  sheetName,
		SheetType:  sheetType,
		Confidence: confidence,
	}
}
