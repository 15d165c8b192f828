package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/faisos7/Elan-vpmi-app/internal/model"
	"github.com/faisos7/Elan-vpmi-app/internal/parser"
	"github.com/faisos7/Elan-vpmi-app/internal/store"
)

// Coordinator 엑셀 가져오기 조정자
type Coordinator struct {
	store      *store.Store
	recognizer *parser.SheetRecognizer
	logger     *zap.Logger
}

// NewCoordinator 가져오기 조정자 생성
func NewCoordinator(store *store.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:      store,
		recognizer: parser.NewSheetRecognizer(),
		logger:     logger,
	}
}

// ImportOptions 가져오기 옵션
type ImportOptions struct {
	FilePath         string
	OriginalFilename string
	ReplacePatients  bool   // 환자 시트를 읽었을 때만 기존 환자를 비우고 새로 채움
	ClearHistory     bool   // 이력 시트를 읽었을 때만 기존 이력을 비움 (false 면 같은 발송일 이력만 교체)
	PatientSheet     string // 우선 인식할 시트 이름
	HistorySheet     string
}

// 이벤트 종류
const (
	EventStart      = "start"
	EventInfo       = "info"
	EventWarning    = "warning"
	EventSheetStart = "sheet_start"
	EventSheetDone  = "sheet_done"
	EventDone       = "done"
	EventError      = "error"
)

// ProgressEvent 진행 이벤트
type ProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// importContext 한 번의 가져오기 상태
type importContext struct {
	ctx      context.Context
	file     *excelize.File
	report   *parser.ImportReport
	progress chan ProgressEvent
	opts     ImportOptions

	// 모든 시트를 읽은 뒤 한 번에 반영
	patients []*model.Patient
	history  []*model.HistoryRecord
	staged   []parser.ParseResult
}

// Import 가져오기를 시작하고 진행 채널을 반환한다. 채널은 끝나면 닫힌다.
// ctx 가 취소되면 남은 시트는 처리하지 않는다.
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progress := make(chan ProgressEvent, 100)

	go func() {
		defer close(progress)
		c.doImport(ctx, opts, progress)
	}()

	return progress
}

// ImportSync 가져오기를 끝까지 실행하고 보고서를 반환 (CLI 용)
func (c *Coordinator) ImportSync(ctx context.Context, opts ImportOptions, onEvent func(ProgressEvent)) (*parser.ImportReport, error) {
	var report *parser.ImportReport
	var lastErr string
	for evt := range c.Import(ctx, opts) {
		if onEvent != nil {
			onEvent(evt)
		}
		switch evt.Type {
		case EventDone:
			report, _ = evt.Data.(*parser.ImportReport)
		case EventError:
			lastErr = evt.Message
		}
	}
	if report == nil {
		if lastErr == "" {
			lastErr = "import did not complete"
		}
		return nil, fmt.Errorf("%s", lastErr)
	}
	return report, nil
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progress chan ProgressEvent) {
	startTime := time.Now()
	filename := opts.OriginalFilename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}

	c.send(ctx, progress, EventStart, "엑셀 파일 가져오기 시작", map[string]string{"filename": filename})

	size, hash := fileDigest(opts.FilePath)
	logID, err := c.store.CreateImportLog(filename, opts.FilePath, size, hash)
	if err != nil {
		c.logger.Warn("create import log failed", zap.Error(err))
	}

	file, err := excelize.OpenFile(opts.FilePath)
	if err != nil {
		c.fail(ctx, progress, logID, fmt.Sprintf("파일 열기 실패: %v", err))
		return
	}
	defer file.Close()

	ic := &importContext{
		ctx:      ctx,
		file:     file,
		progress: progress,
		opts:     opts,
		report: &parser.ImportReport{
			Filename: filename,
			Sheets:   []parser.ParseResult{},
		},
	}

	sheetList := orderSheets(file.GetSheetList(), opts)
	ic.report.TotalSheets = len(sheetList)
	c.send(ctx, progress, EventInfo, fmt.Sprintf("시트 %d개 발견", len(sheetList)), map[string]interface{}{
		"total_sheets": len(sheetList),
	})

	seen := map[parser.SheetType]bool{}
	for _, sheetName := range sheetList {
		if ctx.Err() != nil {
			c.fail(ctx, progress, logID, "가져오기 취소됨")
			return
		}
		c.processSheet(ic, sheetName, seen)
	}
	if ctx.Err() != nil {
		c.fail(ctx, progress, logID, "가져오기 취소됨")
		return
	}

	if opts.ReplacePatients && !seen[parser.SheetTypePatients] {
		c.send(ctx, progress, EventWarning, "환자 시트가 없어 기존 환자 목록을 유지함", nil)
	}
	if opts.ClearHistory && !seen[parser.SheetTypeHistory] {
		c.send(ctx, progress, EventWarning, "이력 시트가 없어 기존 이력을 유지함", nil)
	}

	if err := c.store.ApplyImport(store.ImportBatch{
		Patients:        ic.patients,
		ReplacePatients: opts.ReplacePatients,
		History:         ic.history,
		ClearHistory:    opts.ClearHistory,
	}); err != nil {
		for _, result := range ic.staged {
			result.Status = "error"
			result.ErrorRows += result.ImportedRows
			result.ImportedRows = 0
			result.Errors = append(result.Errors, fmt.Sprintf("저장 실패: %v", err))
			c.recordSheetResult(ic, result)
		}
		c.fail(ctx, progress, logID, fmt.Sprintf("저장 실패 (변경 없음): %v", err))
		return
	}
	for _, result := range ic.staged {
		c.recordSheetResult(ic, result)
		c.send(ctx, progress, EventSheetDone, fmt.Sprintf("시트 \"%s\" %s %d건 가져옴", result.SheetName, result.SheetType, result.ImportedRows), map[string]interface{}{
			"sheet_name":    result.SheetName,
			"sheet_type":    string(result.SheetType),
			"imported_rows": result.ImportedRows,
			"error_rows":    result.ErrorRows,
		})
	}

	ic.report.Duration = time.Since(startTime)

	if logID > 0 {
		if err := c.store.UpdateImportLog(logID, store.ImportLogResult{
			TotalSheets:    ic.report.TotalSheets,
			ImportedSheets: ic.report.ImportedSheets,
			SkippedSheets:  ic.report.SkippedSheets,
			TotalRows:      ic.report.TotalRows,
			ImportedRows:   ic.report.ImportedRows,
			ErrorRows:      ic.report.ErrorRows,
			Status:         "done",
		}); err != nil {
			c.logger.Warn("update import log failed", zap.Error(err))
		}
	}

	c.logger.Info("import finished",
		zap.String("file", filename),
		zap.Int("imported_rows", ic.report.ImportedRows),
		zap.Int("error_rows", ic.report.ErrorRows),
		zap.Duration("duration", ic.report.Duration))

	c.send(ctx, progress, EventDone, "가져오기 완료", ic.report)
}

// orderSheets 설정된 시트 이름을 앞으로
func orderSheets(sheets []string, opts ImportOptions) []string {
	out := make([]string, 0, len(sheets))
	for _, preferred := range []string{opts.PatientSheet, opts.HistorySheet} {
		for _, s := range sheets {
			if preferred != "" && s == preferred {
				out = append(out, s)
			}
		}
	}
	for _, s := range sheets {
		if s != opts.PatientSheet && s != opts.HistorySheet {
			out = append(out, s)
		}
	}
	return out
}

// processSheet 시트 하나를 인식하고 읽는다. 저장은 하지 않는다.
// 종류별로 처음 인식된 시트만 가져온다.
func (c *Coordinator) processSheet(ic *importContext, sheetName string, seen map[parser.SheetType]bool) {
	sheetStart := time.Now()
	c.send(ic.ctx, ic.progress, EventSheetStart, fmt.Sprintf("시트 분석 중: %s", sheetName), map[string]string{
		"sheet_name": sheetName,
	})

	rows, err := ic.file.GetRows(sheetName)
	if err != nil || len(rows) < 1 {
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypeUnknown,
			Status:    "skipped",
			Errors:    []string{"빈 시트"},
			Duration:  time.Since(sheetStart),
		})
		return
	}

	recognition := c.recognizer.Recognize(sheetName, rows[0])
	switch {
	case sheetName == ic.opts.PatientSheet && recognition.SheetType == parser.SheetTypeUnknown:
		recognition.SheetType = parser.SheetTypePatients
	case sheetName == ic.opts.HistorySheet && recognition.SheetType == parser.SheetTypeUnknown:
		recognition.SheetType = parser.SheetTypeHistory
	}

	c.send(ic.ctx, ic.progress, EventInfo, fmt.Sprintf("시트 \"%s\" 인식: %s (신뢰도 %.2f)", sheetName, recognition.SheetType, recognition.Confidence), map[string]interface{}{
		"sheet_name": sheetName,
		"sheet_type": string(recognition.SheetType),
		"confidence": recognition.Confidence,
	})

	if recognition.SheetType != parser.SheetTypeUnknown && seen[recognition.SheetType] {
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: recognition.SheetType,
			Status:    "skipped",
			Errors:    []string{"같은 종류의 시트를 이미 가져옴"},
			Duration:  time.Since(sheetStart),
		})
		return
	}

	switch recognition.SheetType {
	case parser.SheetTypePatients:
		seen[recognition.SheetType] = true
		c.stagePatients(ic, sheetName, sheetStart)
	case parser.SheetTypeHistory:
		seen[recognition.SheetType] = true
		c.stageHistory(ic, sheetName, sheetStart)
	default:
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypeUnknown,
			Status:    "skipped",
			Errors:    []string{"시트 종류를 인식할 수 없음"},
			Duration:  time.Since(sheetStart),
		})
		c.send(ic.ctx, ic.progress, EventWarning, fmt.Sprintf("인식할 수 없는 시트: %s", sheetName), nil)
	}
}

func (c *Coordinator) stagePatients(ic *importContext, sheetName string, sheetStart time.Time) {
	patients, rowErrs, err := parser.NewSheetParser(ic.file).ParsePatients(sheetName)
	if err != nil {
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypePatients,
			Status:    "error",
			Errors:    []string{err.Error()},
			Duration:  time.Since(sheetStart),
		})
		return
	}

	ic.patients = append(ic.patients, patients...)
	ic.staged = append(ic.staged, parser.ParseResult{
		SheetName:    sheetName,
		SheetType:    parser.SheetTypePatients,
		Status:       "imported",
		ImportedRows: len(patients),
		Errors:       rowErrorStrings(rowErrs),
		Duration:     time.Since(sheetStart),
	})
}

func (c *Coordinator) stageHistory(ic *importContext, sheetName string, sheetStart time.Time) {
	records, rowErrs, err := parser.NewSheetParser(ic.file).ParseHistory(sheetName)
	if err != nil {
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypeHistory,
			Status:    "error",
			Errors:    []string{err.Error()},
			Duration:  time.Since(sheetStart),
		})
		return
	}

	ic.history = append(ic.history, records...)
	ic.staged = append(ic.staged, parser.ParseResult{
		SheetName:    sheetName,
		SheetType:    parser.SheetTypeHistory,
		Status:       "imported",
		ImportedRows: len(records),
		ErrorRows:    len(rowErrs),
		Errors:       rowErrorStrings(rowErrs),
		Duration:     time.Since(sheetStart),
	})
}

func rowErrorStrings(errs []parser.RowError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, fmt.Sprintf("%d행: %s", e.Row, e.Message))
	}
	return out
}

// recordSheetResult 시트 결과 집계
func (c *Coordinator) recordSheetResult(ic *importContext, result parser.ParseResult) {
	ic.report.Sheets = append(ic.report.Sheets, result)

	switch result.Status {
	case "imported":
		ic.report.ImportedSheets++
		ic.report.ImportedRows += result.ImportedRows
	case "skipped":
		ic.report.SkippedSheets++
	}

	ic.report.ErrorRows += result.ErrorRows
	ic.report.TotalRows += result.ImportedRows + result.ErrorRows
}

func (c *Coordinator) fail(ctx context.Context, progress chan ProgressEvent, logID int64, message string) {
	c.logger.Error("import failed", zap.String("reason", message))
	if logID > 0 {
		_ = c.store.UpdateImportLog(logID, store.ImportLogResult{Status: "error", ErrorMessage: message})
	}
	c.send(ctx, progress, EventError, message, nil)
}

// send 이벤트 전송. 수신 측이 떠나(ctx 취소) 버리면 버린다.
func (c *Coordinator) send(ctx context.Context, ch chan ProgressEvent, typ, message string, data interface{}) {
	evt := ProgressEvent{Type: typ, Message: message, Data: data, Timestamp: time.Now()}
	select {
	case ch <- evt:
	case <-ctx.Done():
	}
}

// fileDigest 파일 크기와 sha256
func fileDigest(path string) (int64, string) {
	f, err := os.Open(path)
	if err != nil {
		return 0, ""
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return n, ""
	}
	return n, hex.EncodeToString(h.Sum(nil))
}
