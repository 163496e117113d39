// =============================================================================
// 🖥️ run 命令
// =============================================================================
// 完整的 campaign 执行流程：配置 → 存储 → 配额 → 过滤 → 会话装饰链 → 编排器
// =============================================================================
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gotrekbr/instaze/automation"
	"github.com/gotrekbr/instaze/campaign"
	"github.com/gotrekbr/instaze/config"
	"github.com/gotrekbr/instaze/filter"
	"github.com/gotrekbr/instaze/internal/metrics"
	"github.com/gotrekbr/instaze/quota"
	"github.com/gotrekbr/instaze/store"
	"github.com/gotrekbr/instaze/types"
)

func runCampaign(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dryRun := fs.Bool("dry-run", false, "Evaluate without acting or recording")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *dryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting Instaze",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.Bool("dry_run", cfg.DryRun),
	)

	// 打开动作存储：损坏检测失败直接拒绝启动
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("Failed to open action store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// SIGINT/SIGTERM 触发优雅中止：当前动作跑完，冷却立即打断
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 可选的 Prometheus /metrics
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("instaze", logger)
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	session, err := buildSession(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to establish session", zap.Error(err))
		os.Exit(1)
	}

	tracker := quota.NewTracker(st, cfg.Limits.Windows(), logger)
	targetFilter := filter.New(
		cfg.Filter.ToFilter(),
		filter.KeywordRule{Keywords: cfg.Filter.BlockKeywords},
		filter.KeywordRule{Keywords: cfg.Filter.BlockKeywords},
		st, logger,
	)

	orch := campaign.New(session, st, tracker, targetFilter, campaign.Options{
		Phases:             buildPhases(cfg, session, st),
		InterPhaseCooldown: cfg.Campaign.InterPhaseCooldown,
		DryRun:             cfg.DryRun,
	}, logger, collector)

	report, err := orch.Run(ctx)
	printReport(report)
	if err != nil {
		var appErr *types.Error
		if errors.As(err, &appErr) && appErr.Code == types.ErrRunAborted && ctx.Err() != nil {
			// 信号触发的优雅中止不算失败
			logger.Info("Run aborted by signal, records preserved")
			return
		}
		logger.Error("Run failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Instaze finished", zap.String("state", string(report.State)))
}

// buildSession 构建会话装饰链：驱动边车 → 演练包装 → 节奏平滑
func buildSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (automation.Session, error) {
	driver := automation.NewDriverSession(cfg.Driver.URL, cfg.Driver.Timeout, logger)
	if cfg.Account.Username != "" {
		if err := driver.Login(ctx, cfg.Account.Username, cfg.Account.Password); err != nil {
			return nil, err
		}
	}

	var session automation.Session = driver
	if cfg.DryRun {
		session = automation.NewDryRunSession(session, logger)
	}
	if cfg.Limits.MinActionInterval > 0 {
		session = automation.NewPacedSession(session, rate.Every(cfg.Limits.MinActionInterval))
	}
	return session, nil
}

// buildPhases 将配置阶段映射为编排器阶段，按 selector 名绑定目标来源
func buildPhases(cfg *config.Config, session automation.Session, st *store.Store) []campaign.Phase {
	phases := make([]campaign.Phase, 0, len(cfg.Campaign.Phases))
	for _, p := range cfg.Campaign.Phases {
		var sel campaign.Selector
		switch p.Selector {
		case "followers_of":
			sel = &campaign.FollowersOfSelector{Seeds: p.SeedUsers, Session: session}
		case "stale_followed":
			sel = &campaign.StaleFollowedSelector{Store: st, OlderThan: cfg.Campaign.UnfollowAfter}
		case "non_mutual":
			sel = &campaign.NonMutualSelector{
				Store:        st,
				Session:      session,
				SelfUsername: cfg.Account.Username,
				MinAge:       cfg.Campaign.DontUnfollowUntil,
			}
		}
		phases = append(phases, campaign.Phase{
			Name:            p.Name,
			Selector:        sel,
			Kind:            p.Kind,
			MaxActions:      p.MaxActions,
			PerUserCooldown: p.PerUserCooldown,
			LikeMediaMax:    p.LikeMediaMax,
		})
	}
	return phases
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics listener stopped", zap.Error(err))
	}
}

func printReport(report *campaign.Report) {
	if report == nil {
		return
	}
	fmt.Printf("Run %s: %s\n", report.RunID, report.State)
	for _, p := range report.Phases {
		fmt.Printf("  %-24s %-8s ok=%-4d failed=%-4d skipped=%-4d stop=%s\n",
			p.Name, p.Kind, p.Succeeded, p.Failed, p.Skipped, p.StopReason)
	}
}
