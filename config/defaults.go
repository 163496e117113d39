// =============================================================================
// 📦 Instaze 默认配置
// =============================================================================
// 提供所有配置项的合理默认值。限额默认值保守：调得过高会触发平台的
// 临时封禁或限流。
// =============================================================================
package config

import (
	"time"

	"github.com/gotrekbr/instaze/types"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Account:  AccountConfig{},
		Limits:   DefaultLimitsConfig(),
		Filter:   DefaultFilterConfig(),
		Campaign: DefaultCampaignConfig(),
		Store:    DefaultStoreConfig(),
		Driver:   DefaultDriverConfig(),
		Log:      DefaultLogConfig(),
		Metrics:  DefaultMetricsConfig(),
		DryRun:   false,
	}
}

// DefaultLimitsConfig 返回默认限额配置
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxFollowsPerHour: 20,
		MaxFollowsPerDay:  150,
		MaxLikesPerDay:    30,
		MinActionInterval: 30 * time.Second,
	}
}

// DefaultFilterConfig 返回默认过滤配置
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		SkipPrivate:      true,
		RefollowCooldown: 90 * 24 * time.Hour,
	}
}

// DefaultCampaignConfig 返回默认工作流配置：先清理陈旧 follow
// （留出 2/3 天级预算），再 follow 种子账号的粉丝。
func DefaultCampaignConfig() CampaignConfig {
	return CampaignConfig{
		Phases: []PhaseConfig{
			{
				Name:            "unfollow-stale",
				Selector:        "stale_followed",
				Kind:            types.KindUnfollow,
				MaxActions:      100,
				PerUserCooldown: 45 * time.Second,
			},
			{
				Name:            "follow-seed-followers",
				Selector:        "followers_of",
				Kind:            types.KindFollow,
				MaxActions:      50,
				PerUserCooldown: 45 * time.Second,
				LikeMediaMax:    3,
			},
		},
		InterPhaseCooldown: 10 * time.Minute,
		UnfollowAfter:      14 * 24 * time.Hour,
		DontUnfollowUntil:  3 * 24 * time.Hour,
	}
}

// DefaultStoreConfig 返回默认存储配置
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Path: "instaze.db",
	}
}

// DefaultDriverConfig 返回默认驱动边车配置
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		URL:     "http://127.0.0.1:8077",
		Timeout: 30 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: false,
		Addr:    ":9091",
	}
}
