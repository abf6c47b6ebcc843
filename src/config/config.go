package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataRoot     string `json:"data_root" yaml:"data_root"`         // 数据根目录
	RawDir       string `json:"raw_dir" yaml:"raw_dir"`             // 原始CSV目录(相对data_root)
	ProcessedDir string `json:"processed_dir" yaml:"processed_dir"` // 处理后CSV目录(相对data_root)
	ReportFile   string `json:"report_file" yaml:"report_file"`     // 汇总报表xlsx
	MetricsFile  string `json:"metrics_file" yaml:"metrics_file"`   // prometheus textfile

	LogName    string `json:"log_name" yaml:"log_name"`
	LogMaxSize int    `json:"log_max_size" yaml:"log_max_size"` // MB

	TopN       int      `json:"top_n" yaml:"top_n"`             // 象限分析截取条数
	ImputeSeed *uint64  `json:"impute_seed" yaml:"impute_seed"` // 为空时每次运行随机插补
	Schedule   Duration `json:"schedule" yaml:"schedule"`       // 为0时只运行一次
}

// envOverride 唯一允许的环境变量: EDA_DATA_ROOT
type envOverride struct {
	DataRoot string `envconfig:"DATA_ROOT"`
}

const envPrefix = "EDA"

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// LoadConfig 读取配置文件，进程内只加载一次
func LoadConfig(jsonFolder, jsonFile string) (*Config, error) {
	once.Do(func() {
		instance, loadErr = Load(jsonFolder, jsonFile)
	})
	return instance, loadErr
}

// Load 读取配置文件并应用.env与环境变量覆盖
// 配置文件不存在时使用默认配置
func Load(jsonFolder, jsonFile string) (*Config, error) {
	cfg := Default()

	configFile := filepath.Join(jsonFolder, jsonFile)
	data, err := readFile(configFile)
	switch {
	case err == nil:
		if err := parseConfig(data, configFile, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		// 没有配置文件时只依赖默认值和环境变量
	default:
		return nil, err
	}

	// .env 不存在不算错误
	envFile := filepath.Join(jsonFolder, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("加载.env失败: %w", err)
		}
	}

	var env envOverride
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}
	if env.DataRoot != "" {
		cfg.DataRoot = env.DataRoot
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		DataRoot:     "./data",
		RawDir:       "raw",
		ProcessedDir: "processed",
		ReportFile:   "report.xlsx",
		MetricsFile:  "eda.prom",
		LogName:      "app.log",
		LogMaxSize:   100,
		TopN:         10,
	}
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

// parseConfig 按扩展名选择 yaml 或 json
func parseConfig(data []byte, name string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析Config(yaml)失败: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("解析Config失败: %w", err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("data_root 不能为空")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n 必须大于0, 当前为 %d", c.TopN)
	}
	if c.Schedule < 0 {
		return fmt.Errorf("schedule 不能为负数")
	}
	return nil
}

// RawPath 原始数据目录
func (c *Config) RawPath() string {
	return filepath.Join(c.DataRoot, c.RawDir)
}

// ProcessedPath 处理后数据目录
func (c *Config) ProcessedPath() string {
	return filepath.Join(c.DataRoot, c.ProcessedDir)
}

// ReportPath 报表文件路径，放在处理后目录下
func (c *Config) ReportPath() string {
	return filepath.Join(c.ProcessedPath(), c.ReportFile)
}

// MetricsPath 指标文件路径
func (c *Config) MetricsPath() string {
	return filepath.Join(c.ProcessedPath(), c.MetricsFile)
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON/YAML序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.set(s)
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML 实现yaml.Unmarshaler接口
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.set(value.Value)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}
