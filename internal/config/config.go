package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/suribanpo/excelprocess/internal/exporter"
	"github.com/suribanpo/excelprocess/internal/parser"
	"github.com/suribanpo/excelprocess/internal/pipeline"
)

// FileName 配置文件名（位于可执行文件同目录）
const FileName = "config.toml"

// 环境变量覆盖
const (
	EnvDataDir  = "EXCELPROCESS_DATA_DIR"
	EnvLogLevel = "EXCELPROCESS_LOG_LEVEL"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Excel    ExcelConfig    `toml:"excel"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// PipelineConfig 处理流程配置
type PipelineConfig struct {
	IdentityPrecedence string `toml:"identity_precedence"` // discrete/compound
	StrictRoster       bool   `toml:"strict_roster"`
	LabelSkipSegments  int    `toml:"label_skip_segments"`
	MergeSeparator     string `toml:"merge_separator"`
}

// ExcelConfig Excel 导出配置
type ExcelConfig struct {
	SheetName   string  `toml:"sheet_name"`
	ColumnWidth float64 `toml:"column_width"`
	ClassSheets bool    `toml:"class_sheets"`
	ByteLimit   int     `toml:"byte_limit"` // 合本字节上限，负数不检查
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port: 20262,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Pipeline: PipelineConfig{
			IdentityPrecedence: string(parser.PreferDiscrete),
			LabelSkipSegments:  1,
			MergeSeparator:     " | ",
		},
		Excel: ExcelConfig{
			SheetName:   "특기사항",
			ColumnWidth: 50,
			ByteLimit:   exporter.DefaultByteLimit,
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
	server, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = server["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return LoadFile(filepath.Join(exeDir, FileName))
}

// LoadFile 从指定路径加载；文件不存在时使用默认配置，环境变量总是生效
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, info, err
	default:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, info, fmt.Errorf("解析 %s 失败: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, info, err
	}
	return cfg, info, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	cfg, _, err := LoadConfigWithInfo()
	return cfg, err
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if _, err := parser.ParsePrecedence(c.Pipeline.IdentityPrecedence); err != nil {
		return fmt.Errorf("pipeline.identity_precedence: %w", err)
	}
	if c.Pipeline.LabelSkipSegments < 0 {
		return fmt.Errorf("pipeline.label_skip_segments 不能为负数: %d", c.Pipeline.LabelSkipSegments)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", c.Server.Port)
	}
	return nil
}

// PipelineOptions 转换为流水线选项
func (c *AppConfig) PipelineOptions() pipeline.Options {
	precedence, err := parser.ParsePrecedence(c.Pipeline.IdentityPrecedence)
	if err != nil {
		precedence = parser.PreferDiscrete
	}
	return pipeline.Options{
		Precedence:     precedence,
		StrictRoster:   c.Pipeline.StrictRoster,
		MergeSeparator: c.Pipeline.MergeSeparator,
	}
}

// ExporterOptions 转换为导出选项
func (c *AppConfig) ExporterOptions() exporter.Options {
	return exporter.Options{
		SheetName:   c.Excel.SheetName,
		ColumnWidth: c.Excel.ColumnWidth,
		ClassSheets: c.Excel.ClassSheets,
		ByteLimit:   c.Excel.ByteLimit,
	}
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(cfg *AppConfig, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 相对路径以可执行文件所在目录为基准
func ResolveDataDir(cfg *AppConfig) string {
	if filepath.IsAbs(cfg.Data.DataDir) {
		return cfg.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, cfg.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := ResolveDataDir(cfg)
	for _, dir := range []string{dataDir, filepath.Join(dataDir, "exports"), filepath.Join(dataDir, "tools")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}
