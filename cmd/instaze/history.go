// =============================================================================
// 📜 history / remaining 命令
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/quota"
	"github.com/gotrekbr/instaze/store"
	"github.com/gotrekbr/instaze/types"
)

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	kindFlag := fs.String("kind", "follow", "Action kind: follow, unfollow or like")
	fs.Parse(args)

	kind := types.ActionKind(*kindFlag)
	if !kind.Valid() {
		fmt.Fprintf(os.Stderr, "Unknown action kind: %s\n", *kindFlag)
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	st := openStore(cfg.Store.Path)
	defer st.Close()

	if err := st.Export(context.Background(), os.Stdout, kind); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
}

func runRemaining(args []string) {
	fs := flag.NewFlagSet("remaining", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	st := openStore(cfg.Store.Path)
	defer st.Close()

	tracker := quota.NewTracker(st, cfg.Limits.Windows(), zap.NewNop())
	for _, kind := range types.AllKinds() {
		remaining, err := tracker.Remaining(context.Background(), kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Quota lookup failed: %v\n", err)
			os.Exit(1)
		}
		if remaining == quota.Unlimited {
			fmt.Printf("%-10s unlimited\n", kind)
			continue
		}
		fmt.Printf("%-10s %d\n", kind, remaining)
	}
}

func openStore(path string) *store.Store {
	st, err := store.Open(path, zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open action store: %v\n", err)
		os.Exit(1)
	}
	return st
}
