// =============================================================================
// 📦 Instaze 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("instaze.yaml").
//	    WithEnvPrefix("INSTAZE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gotrekbr/instaze/filter"
	"github.com/gotrekbr/instaze/quota"
	"github.com/gotrekbr/instaze/types"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 instaze 的完整配置结构。加载后不可变：整个运行期间共享同一份值。
type Config struct {
	// Account 账号凭据（仅环境变量，不落盘）
	Account AccountConfig `yaml:"-" env:"ACCOUNT"`

	// Limits 各动作种类的滑动窗口限额
	Limits LimitsConfig `yaml:"limits" env:"LIMITS"`

	// Filter 目标过滤配置
	Filter FilterConfig `yaml:"filter" env:"FILTER"`

	// Campaign 多阶段工作流配置
	Campaign CampaignConfig `yaml:"campaign" env:"CAMPAIGN"`

	// Store 动作存储配置
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Driver 浏览器驱动边车配置
	Driver DriverConfig `yaml:"driver" env:"DRIVER"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// DryRun 演练模式：过滤与配额正常评估，但不执行真实动作、不写入存储
	DryRun bool `yaml:"dry_run" env:"DRY_RUN"`
}

// AccountConfig 账号凭据。密码永远不会出现在 YAML 中。
type AccountConfig struct {
	Username string `yaml:"-" env:"USERNAME"`
	Password string `yaml:"-" env:"PASSWORD"`
}

// LimitsConfig 限额配置。follow 与 unfollow 共享小时/天级预算，
// 与平台的实际反滥用计数方式一致。
type LimitsConfig struct {
	// 每小时 follow+unfollow 总数上限
	MaxFollowsPerHour int `yaml:"max_follows_per_hour" env:"MAX_FOLLOWS_PER_HOUR"`
	// 每天 follow+unfollow 总数上限
	MaxFollowsPerDay int `yaml:"max_follows_per_day" env:"MAX_FOLLOWS_PER_DAY"`
	// 每天 like 总数上限
	MaxLikesPerDay int `yaml:"max_likes_per_day" env:"MAX_LIKES_PER_DAY"`
	// 相邻平台调用之间的最小间隔（节流，独立于窗口限额）
	MinActionInterval time.Duration `yaml:"min_action_interval" env:"MIN_ACTION_INTERVAL"`
}

// Windows 将限额配置转换为配额追踪器的滑动窗口。
func (l LimitsConfig) Windows() []quota.Window {
	followKinds := []types.ActionKind{types.KindFollow, types.KindUnfollow}
	return []quota.Window{
		{Name: "follows-hourly", Kinds: followKinds, Per: time.Hour, Max: l.MaxFollowsPerHour},
		{Name: "follows-daily", Kinds: followKinds, Per: 24 * time.Hour, Max: l.MaxFollowsPerDay},
		{Name: "likes-daily", Kinds: []types.ActionKind{types.KindLike}, Per: 24 * time.Hour, Max: l.MaxLikesPerDay},
	}
}

// FilterConfig 目标过滤配置
type FilterConfig struct {
	// Follower / following 数量边界，零值表示不限制
	MinFollowers int `yaml:"min_followers" env:"MIN_FOLLOWERS"`
	MaxFollowers int `yaml:"max_followers" env:"MAX_FOLLOWERS"`
	MinFollowing int `yaml:"min_following" env:"MIN_FOLLOWING"`
	MaxFollowing int `yaml:"max_following" env:"MAX_FOLLOWING"`
	// 永不触碰的用户（好友、真实关注）
	ExcludeUsers []string `yaml:"exclude_users" env:"EXCLUDE_USERS"`
	// 跳过私密账号
	SkipPrivate bool `yaml:"skip_private" env:"SKIP_PRIVATE"`
	// 跳过商业账号
	SkipBusiness bool `yaml:"skip_business" env:"SKIP_BUSINESS"`
	// 用户名或简介包含任一关键词则跳过
	BlockKeywords []string `yaml:"block_keywords" env:"BLOCK_KEYWORDS"`
	// 再次 follow 同一目标前的最短间隔
	RefollowCooldown time.Duration `yaml:"refollow_cooldown" env:"REFOLLOW_COOLDOWN"`
}

// ToFilter 转换为 filter 包的配置值。零值边界转换为"不限制"。
func (f FilterConfig) ToFilter() filter.Config {
	bounds := filter.Bounds{}
	if f.MinFollowers > 0 {
		bounds.MinFollowers = &f.MinFollowers
	}
	if f.MaxFollowers > 0 {
		bounds.MaxFollowers = &f.MaxFollowers
	}
	if f.MinFollowing > 0 {
		bounds.MinFollowing = &f.MinFollowing
	}
	if f.MaxFollowing > 0 {
		bounds.MaxFollowing = &f.MaxFollowing
	}
	return filter.Config{
		Bounds:           bounds,
		ExcludeUsers:     f.ExcludeUsers,
		SkipPrivate:      f.SkipPrivate,
		SkipBusiness:     f.SkipBusiness,
		RefollowCooldown: f.RefollowCooldown,
	}
}

// CampaignConfig 多阶段工作流配置
type CampaignConfig struct {
	// Phases 按配置顺序执行的阶段
	Phases []PhaseConfig `yaml:"phases" env:"-"`
	// SeedUsers 种子账号兜底：followers_of 阶段未单独配置 seed_users
	// 时继承此列表（对应环境变量 INSTAZE_CAMPAIGN_SEED_USERS）
	SeedUsers []string `yaml:"seed_users" env:"SEED_USERS"`
	// InterPhaseCooldown 阶段之间的冷却暂停
	InterPhaseCooldown time.Duration `yaml:"inter_phase_cooldown" env:"INTER_PHASE_COOLDOWN"`
	// UnfollowAfter 自动 follow 后超过该时长即视为陈旧，可被清理阶段取关
	UnfollowAfter time.Duration `yaml:"unfollow_after" env:"UNFOLLOW_AFTER"`
	// DontUnfollowUntil 非互关清理阶段中，follow 后至少保留该时长
	DontUnfollowUntil time.Duration `yaml:"dont_unfollow_until" env:"DONT_UNFOLLOW_UNTIL"`
}

// PhaseConfig 单个阶段的配置
type PhaseConfig struct {
	// Name 阶段名称（日志与指标标签）
	Name string `yaml:"name"`
	// Selector 目标来源: followers_of / stale_followed / non_mutual
	Selector string `yaml:"selector"`
	// SeedUsers followers_of 选择器的种子账号列表
	SeedUsers []string `yaml:"seed_users"`
	// Kind 本阶段执行的动作种类
	Kind types.ActionKind `yaml:"kind"`
	// MaxActions 本阶段动作数上限（同时受全局配额约束）
	MaxActions int `yaml:"max_actions"`
	// PerUserCooldown 每个目标处理后的冷却暂停
	PerUserCooldown time.Duration `yaml:"per_user_cooldown"`
	// LikeMediaMax follow 阶段附带点赞的媒体数上限，0 表示不点赞
	LikeMediaMax int `yaml:"like_media_max"`
}

// StoreConfig 动作存储配置
type StoreConfig struct {
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" env:"PATH"`
}

// DriverConfig 浏览器驱动边车配置。真实的页面操作由独立的驱动进程完成，
// 这里只记录它的 JSON API 地址。
type DriverConfig struct {
	// URL 边车基地址
	URL string `yaml:"url" env:"URL"`
	// Timeout 单次驱动调用超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level: debug / info / warn / error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json / console
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths zap 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否暴露 Prometheus /metrics
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Addr 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
}

// =============================================================================
// 🔄 加载器
// =============================================================================

// Loader 配置加载器
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{envPrefix: "INSTAZE"}
}

// WithConfigPath 设置 YAML 配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load 按 默认值 → YAML → 环境变量 的优先级加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, err
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, err
	}

	// followers_of 阶段继承 campaign 级种子列表
	for i := range cfg.Campaign.Phases {
		p := &cfg.Campaign.Phases[i]
		if p.Selector == "followers_of" && len(p.SeedUsers) == 0 {
			p.SeedUsers = cfg.Campaign.SeedUsers
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置。配置错误在启动时即致命：进程不应带着无效限额继续。
func (c *Config) Validate() error {
	var errs []string

	if !c.DryRun && (c.Account.Username == "" || c.Account.Password == "") {
		errs = append(errs, "account credentials missing (set INSTAZE_ACCOUNT_USERNAME / INSTAZE_ACCOUNT_PASSWORD)")
	}

	if c.Limits.MaxFollowsPerHour < 0 || c.Limits.MaxFollowsPerDay < 0 || c.Limits.MaxLikesPerDay < 0 {
		errs = append(errs, "limits must not be negative")
	}
	if c.Limits.MinActionInterval < 0 {
		errs = append(errs, "min_action_interval must not be negative")
	}

	if c.Store.Path == "" {
		errs = append(errs, "store path is required")
	}

	if c.Driver.URL == "" {
		errs = append(errs, "driver url is required")
	}

	if len(c.Campaign.Phases) == 0 {
		errs = append(errs, "at least one campaign phase is required")
	}
	for i, p := range c.Campaign.Phases {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("phase %d: name is required", i))
		}
		if !p.Kind.Valid() {
			errs = append(errs, fmt.Sprintf("phase %d: unknown action kind %q", i, p.Kind))
		}
		switch p.Selector {
		case "followers_of":
			if len(p.SeedUsers) == 0 {
				errs = append(errs, fmt.Sprintf("phase %d: followers_of selector needs seed_users", i))
			}
		case "stale_followed", "non_mutual":
		default:
			errs = append(errs, fmt.Sprintf("phase %d: unknown selector %q", i, p.Selector))
		}
		if p.MaxActions < 0 {
			errs = append(errs, fmt.Sprintf("phase %d: max_actions must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrConfigInvalid, strings.Join(errs, "; "))
	}

	return nil
}
