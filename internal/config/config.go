package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"docstack/internal/reconcile"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Split     SplitConfig     `toml:"split"`
	Publish   PublishConfig   `toml:"publish"`
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

// DateColumnConfig 日期列与来源格式
type DateColumnConfig struct {
	Column string `toml:"column"`
	Format string `toml:"format"`
}

// ReconcileConfig 对账配置
type ReconcileConfig struct {
	SheetName         string             `toml:"sheet_name"` // 为空时按表头识别
	StackIDWidth      int                `toml:"stack_id_width"`
	Workers           int                `toml:"workers"`
	ProjectCode       string             `toml:"project_code"`
	XrefIdentityField string             `toml:"xref_identity_field"`
	ReviewSentinel    string             `toml:"review_sentinel"`
	DateColumns       []DateColumnConfig `toml:"date_columns"`
}

// SplitConfig 装载表拆分配置
type SplitConfig struct {
	Enabled          bool   `toml:"enabled"`
	RowsPerSheet     int    `toml:"rows_per_sheet"`
	BaseName         string `toml:"base_name"`
	ImportCodePrefix string `toml:"import_code_prefix"`
}

// PublishConfig 结果上传配置；Bucket 为空时不上传
type PublishConfig struct {
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Endpoint string `toml:"endpoint"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	Path          string
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Reconcile: ReconcileConfig{
			SheetName:         "",
			StackIDWidth:      reconcile.DefaultStackIDWidth,
			Workers:           4,
			XrefIdentityField: string(reconcile.IdentityDocumentNumber),
			ReviewSentinel:    reconcile.DefaultReviewSentinel,
		},
		Split: SplitConfig{
			RowsPerSheet:     5000,
			BaseName:         "loadsheet",
			ImportCodePrefix: "IMP",
		},
		Publish: PublishConfig{
			Prefix: "docstack",
		},
	}
}

// Options 转换为引擎参数，并校验日期格式
func (c ReconcileConfig) Options() (reconcile.Options, error) {
	opts := reconcile.DefaultOptions()
	if c.StackIDWidth > 0 {
		opts.StackIDWidth = c.StackIDWidth
	}
	opts.Workers = c.Workers
	if c.ReviewSentinel != "" {
		opts.ReviewSentinel = c.ReviewSentinel
	}
	opts.ProjectCode = c.ProjectCode

	switch field := reconcile.XrefIdentityField(c.XrefIdentityField); field {
	case "":
	case reconcile.IdentityDocumentNumber, reconcile.IdentityDocumentName:
		opts.XrefIdentityField = field
	default:
		return opts, fmt.Errorf("unknown xref_identity_field %q", c.XrefIdentityField)
	}

	for _, dc := range c.DateColumns {
		format, err := reconcile.ParseDateFormat(dc.Format)
		if err != nil {
			return opts, fmt.Errorf("date column %q: %w", dc.Column, err)
		}
		opts.DateColumns = append(opts.DateColumns, reconcile.DateColumn{Column: dc.Column, Format: format})
	}
	return opts, nil
}

// DateColumnNames 配置的日期列名
func (c ReconcileConfig) DateColumnNames() []string {
	out := make([]string, 0, len(c.DateColumns))
	for _, dc := range c.DateColumns {
		out = append(out, dc.Column)
	}
	return out
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
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定路径加载；文件不存在时使用默认配置
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	case err != nil:
		return nil, info, err
	default:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	applyEnv(config)
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("DOCSTACK_PROJECT_CODE"); v != "" {
		config.Reconcile.ProjectCode = v
	}
	if v := os.Getenv("DOCSTACK_GCS_BUCKET"); v != "" {
		config.Publish.Bucket = v
	}
	if v := os.Getenv("DOCSTACK_GCS_ENDPOINT"); v != "" {
		config.Publish.Endpoint = v
	}
}

// SaveConfig 保存配置到指定路径
func SaveConfig(config *AppConfig, configPath string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	// 先写临时文件再改名，避免写到一半的配置
	tmp := configPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, configPath)
}

// ResolveDataDir 相对路径按可执行文件目录解析
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports", "splits"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
