package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/de-tools/flow-atlas/pkg/models/domain"
)

const EnvPrefix = "FLOWATLAS"

const (
	DefaultPrimaryURL = "https://pfs.zjlib.cn/zhejiangshengtsg/alvarainflow/api/WwStatisticsLog/GetBigFlowByLocations"
	DefaultBackupURL  = "https://shujia.alva.com.cn/zhejiangshengtsg/alvarainflow/api/WwStatisticsLog/GetBigFlowByLocations"
)

type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Branches []BranchConfig `mapstructure:"branches"`
	Database DatabaseConfig `mapstructure:"database"`
	DingTalk DingTalkConfig `mapstructure:"dingtalk"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
	Events   EventsConfig   `mapstructure:"events"`
	Server   ServerConfig   `mapstructure:"server"`
	Report   ReportConfig   `mapstructure:"report"`
}

type UpstreamConfig struct {
	PrimaryURL string        `mapstructure:"primary_url"`
	BackupURL  string        `mapstructure:"backup_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type BranchConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type DingTalkConfig struct {
	Webhook string `mapstructure:"webhook"`
	Secret  string `mapstructure:"secret"`
}

type ScheduleConfig struct {
	Daily    string `mapstructure:"daily"`
	Weekly   string `mapstructure:"weekly"`
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File enables a rotated log file next to stdout
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Prefix  string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ReportConfig struct {
	Heading     string `mapstructure:"heading"`
	TitlePrefix string `mapstructure:"title_prefix"`
}

var defaultBranches = []BranchConfig{
	{ID: "CN-ZJLIB_ZJ", Name: "之江馆"},
	{ID: "CN-ZJLIB_BSGL", Name: "曙光馆"},
	{ID: "CN-ZJLIB_BSL", Name: "大学路馆"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream.primary_url", DefaultPrimaryURL)
	v.SetDefault("upstream.backup_url", DefaultBackupURL)
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("database.path", "data/bot.db")
	v.SetDefault("dingtalk.webhook", "")
	v.SetDefault("dingtalk.secret", "")
	v.SetDefault("schedule.daily", "0 21 * * 1-6")
	v.SetDefault("schedule.weekly", "0 21 * * 0")
	v.SetDefault("schedule.timezone", "Asia/Shanghai")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.prefix", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("report.heading", "浙江图书馆人流统计")
	v.SetDefault("report.title_prefix", "浙图人流速报")
}

// Load reads defaults, the optional config file at path and FLOWATLAS_* variables, in that precedence order
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Branches) == 0 {
		cfg.Branches = append([]BranchConfig(nil), defaultBranches...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.PrimaryURL) == "" {
		return fmt.Errorf("upstream.primary_url is required")
	}
	if strings.TrimSpace(c.Upstream.BackupURL) == "" {
		return fmt.Errorf("upstream.backup_url is required")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}
	if len(c.Branches) == 0 {
		return fmt.Errorf("at least one branch must be configured")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// Catalog builds the branch catalog in configured order
func (c *Config) Catalog() (*domain.BranchCatalog, error) {
	branches := make([]domain.Branch, 0, len(c.Branches))
	for _, b := range c.Branches {
		branches = append(branches, domain.Branch{ID: domain.BranchID(b.ID), Name: b.Name})
	}
	return domain.NewBranchCatalog(branches)
}

func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule.timezone: %w", err)
	}
	return loc, nil
}
