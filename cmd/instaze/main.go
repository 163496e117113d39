// =============================================================================
// Instaze 主入口
// =============================================================================
// 社交账号互动自动化工具：限额调度 + 多阶段工作流编排
//
// 使用方法:
//
//	instaze run                        # 执行配置的 campaign
//	instaze run --config config.yaml   # 指定配置文件
//	instaze run --dry-run              # 演练：完整评估但不执行真实动作
//	instaze history --kind follow      # 按 NDJSON 导出动作历史
//	instaze remaining                  # 查看各动作种类的剩余配额
//	instaze version                    # 显示版本信息
// =============================================================================
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gotrekbr/instaze/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCampaign(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "remaining":
		runRemaining(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("Instaze %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`Instaze - quota-aware social interaction automation

Usage:
  instaze <command> [options]

Commands:
  run        Execute the configured campaign
  history    Export the action history as newline-delimited JSON
  remaining  Show remaining quota per action kind
  version    Show version information
  help       Show this help message

Options for 'run':
  --config <path>   Path to configuration file (YAML)
  --dry-run         Evaluate the full pipeline without acting or recording

Options for 'history':
  --config <path>   Path to configuration file (YAML)
  --kind <kind>     Action kind to export: follow, unfollow or like

Examples:
  instaze run
  instaze run --config /etc/instaze/config.yaml --dry-run
  instaze history --kind unfollow > unfollows.ndjson
  instaze remaining
  instaze version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}

// loadConfig 解析 --config 之外的加载与校验公共路径
func loadConfig(configPath string) *config.Config {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
