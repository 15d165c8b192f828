package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 애플리케이션 설정
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Business BusinessConfig `toml:"business"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig 서버 설정
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 데이터 설정
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	DBName  string `toml:"db_name"`
}

// BusinessConfig 업무 설정
type BusinessConfig struct {
	Timezone     string `toml:"timezone"`
	RecipeFile   string `toml:"recipe_file"`
	PatientSheet string `toml:"patient_sheet"`
	HistorySheet string `toml:"history_sheet"`
}

// LogConfig 로그 설정
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// LoadConfigInfo 설정 로드 메타 정보
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 기본 설정
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			DBName:  "elan.db",
		},
		Business: BusinessConfig{
			Timezone:     "Asia/Seoul",
			RecipeFile:   "recipes.yaml",
			PatientSheet: "patients",
			HistorySheet: "history",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 실행 파일 디렉터리
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrCwd() string {
	dir, err := GetExeDir()
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

// DefaultConfigPath 실행 파일 옆의 config.toml
func DefaultConfigPath() string {
	return filepath.Join(exeDirOrCwd(), "config.toml")
}

// LoadConfigWithInfo 기본 경로의 config.toml 로드
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadConfigFrom(DefaultConfigPath())
}

// LoadConfigFrom 지정 경로에서 설정 로드. 파일이 없으면 기본값에 환경변수만 적용.
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	// .env 는 있으면 읽는다 (이미 설정된 환경변수는 덮어쓰지 않음)
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, info, err
		}
	} else {
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	}

	applyEnv(config, &info)
	return config, info, nil
}

// applyEnv 환경변수 덮어쓰기
func applyEnv(config *AppConfig, info *LoadConfigInfo) {
	if v := os.Getenv("ELAN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			info.PortSpecified = true
		}
	}
	if v := os.Getenv("ELAN_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("ELAN_RECIPE_FILE"); v != "" {
		config.Business.RecipeFile = v
	}
	if v := os.Getenv("ELAN_TIMEZONE"); v != "" {
		config.Business.Timezone = v
	}
	if v := os.Getenv("ELAN_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

// LoadConfig config.toml 로드
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig config.toml 저장
func SaveConfig(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

// resolve 상대 경로는 실행 파일 디렉터리 기준
func resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(exeDirOrCwd(), path)
}

// EnsureDataDir 데이터 디렉터리와 하위 디렉터리 생성
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := resolve(config.Data.DataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// DBPath SQLite 파일 경로
func (c *AppConfig) DBPath() string {
	return filepath.Join(resolve(c.Data.DataDir), c.Data.DBName)
}

// RecipePath 레시피 카탈로그 파일 경로
func (c *AppConfig) RecipePath() string {
	return resolve(c.Business.RecipeFile)
}

// GetDataPath 데이터 하위 파일 경로
func (c *AppConfig) GetDataPath(subdir, filename string) string {
	return filepath.Join(resolve(c.Data.DataDir), subdir, filename)
}

// kst tzdata 가 없는 환경용 고정 시간대
var kst = time.FixedZone("KST", 9*60*60)

// Location 업무 시간대. 로드 실패 시 KST(+09:00).
func (c *AppConfig) Location() *time.Location {
	if c.Business.Timezone == "" {
		return kst
	}
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return kst
	}
	return loc
}
