package main

import (
	"context"
	"fmt"
	logslog "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/config"
	"github.com/JulianoL13/tube-summary-engine/internal/logs/slog"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy/geonode"
	proxystore "github.com/JulianoL13/tube-summary-engine/internal/proxy/store"
	"github.com/JulianoL13/tube-summary-engine/internal/verifier"
	httpverifier "github.com/JulianoL13/tube-summary-engine/internal/verifier/http"
	"github.com/JulianoL13/tube-summary-engine/internal/workerpool"
)

const verifyWorkers = 10

func main() {
	cfg := config.Load()

	logger := slog.New(logslog.LevelWarn)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := httpverifier.NewChecker("", cfg.VerifyTimeout, logger)

	if info, err := checker.Lookup(ctx); err != nil {
		fmt.Printf("direct egress lookup failed: %v\n", err)
	} else {
		fmt.Printf("direct egress: %s (%s, %s) %s\n", info.IP, info.City, info.Country, info.Org)
	}

	source := geonode.NewClient(cfg.ProxyListingURL, cfg.ProxyPoolSize, cfg.HTTPTimeout, logger)
	candidates, err := source.FetchCandidates(ctx)
	if err != nil {
		fmt.Printf("listing fetch failed: %v\n", err)
		os.Exit(1)
	}

	policy := proxy.FilterPolicyFromString(cfg.ProxyFilter)
	candidates = proxy.Filter(candidates, policy)
	fmt.Printf("checking %d candidates (%s filter, %d workers)\n\n", len(candidates), policy, verifyWorkers)

	pool, err := workerpool.New(verifyWorkers)
	if err != nil {
		fmt.Printf("worker pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Stop()

	probes := make([]verifier.Probe, len(candidates))
	for i, c := range candidates {
		probes[i] = c
	}

	reports := verifier.New(checker, pool, logger).VerifyAll(ctx, probes)

	now := time.Now().UTC()
	var alive []*proxy.Candidate
	for i, report := range reports {
		if report.Output.Alive {
			fmt.Printf("  ok   %-21s  %6dms  egress %s\n",
				report.Address, report.Output.Latency.Milliseconds(), report.Output.EgressIP)
			candidates[i].MarkVerified(now, report.Output.Latency)
			alive = append(alive, candidates[i])
		} else {
			fmt.Printf("  dead %-21s  %v\n", report.Address, report.Output.Error)
		}
	}
	fmt.Printf("\n%d alive of %d checked\n", len(alive), len(reports))

	if len(alive) == 0 {
		os.Exit(1)
	}

	store := proxystore.NewFileStore(cfg.ProxyFallbackFile, logger)
	fresh := proxy.NewPool(alive, now, cfg.ProxyRefresh, cfg.ProxyPoolSize)
	if err := store.Save(ctx, fresh); err != nil {
		fmt.Printf("saving fallback pool failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("fallback pool written to %s (%d proxies)\n", cfg.ProxyFallbackFile, fresh.Size())
}
