package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/faisos7/Elan-vpmi-app/internal/config"
)

// writeConfig 임시 데이터 디렉터리를 가리키는 config.toml
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	recipes := filepath.Join(dir, "recipes.yaml")
	require.NoError(t, os.WriteFile(recipes, []byte(`recipes:
  MixA:
    batch_size: 10
    materials:
      Honey: 5
      Ginger: 5
`), 0o644))

	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("[data]\ndata_dir = %q\n\n[business]\nrecipe_file = %q\n\n[log]\nlevel = \"error\"\n", filepath.Join(dir, "data"), recipes)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoundCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "--config", cfgPath, "round", "--start", "2025-09-01", "--date", "2025-09-08", "--group", "매주")
	require.NoError(t, err)
	assert.Contains(t, out, "회차: 2\n")
	assert.Contains(t, out, "시작일: 2025-09-01\n")
	assert.Contains(t, out, "주기: weekly\n")

	out, err = run(t, "--config", cfgPath, "round", "--start", "", "--date", "2025-09-08")
	require.NoError(t, err)
	assert.Contains(t, out, "시작일: 미입력\n")

	_, err = run(t, "--config", cfgPath, "round", "--start", "2025-09-01", "--date", "someday")
	assert.Error(t, err)
}

func TestExpandCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "--config", cfgPath, "expand", "--orders", "MixA:20,RawHoney:5", "--mode", "decomposed")
	require.NoError(t, err)
	assert.Equal(t, "Ginger\t10\nHoney\t10\nRawHoney\t5\n", out)

	out, err = run(t, "--config", cfgPath, "expand", "--orders", "MixA:20", "--orders", "MixA:1,x")
	require.NoError(t, err)
	assert.Contains(t, out, "MixA\t21\n")
	assert.Contains(t, out, "건너뛴 토큰 1개")

	_, err = run(t, "--config", cfgPath, "expand", "--orders", "MixA:1", "--mode", "bogus")
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "patients"))
	require.NoError(t, wb.SetSheetRow("patients", "A1", &[]interface{}{"이름", "그룹", "시작일", "주문내역"}))
	require.NoError(t, wb.SetSheetRow("patients", "A2", &[]interface{}{"김", "매주", "2025-09-01", "MixA:2"}))
	xlsx := filepath.Join(dir, "in.xlsx")
	require.NoError(t, wb.SaveAs(xlsx))
	require.NoError(t, wb.Close())

	out, err := run(t, "--config", cfgPath, "import", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "완료: 시트 1/1, 행 1 (오류 0)")
	assert.FileExists(t, filepath.Join(dir, "data", "elan.db"))
}

func TestInitCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "conf", "config.toml")

	out, err := run(t, "--config", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)

	cfg, info, err := config.LoadConfigFrom(cfgPath)
	require.NoError(t, err)
	assert.True(t, info.FileFound)
	assert.True(t, info.PortSpecified)
	assert.Equal(t, config.DefaultConfig().Business.PatientSheet, cfg.Business.PatientSheet)

	_, err = run(t, "--config", cfgPath, "init")
	assert.Error(t, err)

	_, err = run(t, "--config", cfgPath, "init", "--force")
	assert.NoError(t, err)
}
