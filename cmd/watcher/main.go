package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"BurnSentinel/internal/collector"
	"BurnSentinel/internal/config"
	"BurnSentinel/internal/logger"
	"BurnSentinel/internal/persister"
	"BurnSentinel/internal/pipeline"
	"BurnSentinel/internal/recorder"
	"BurnSentinel/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run one pipeline execution and exit with the status code")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("loading .env failed")
	}
	log := logger.Init()
	log.Info("BurnSentinel starting")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config validation")
	}

	// Init upstream clients
	chain := collector.NewRPCChain(cfg.Chain.RPCURL, cfg.Chain.MinterAddress,
		cfg.Proxy, cfg.Run.RetryLimit, cfg.CallTimeout())

	var explorer collector.ExplorerClient
	if cfg.Explorer.APIKey != "" {
		explorer = collector.NewEtherscanClient(cfg.Explorer.BaseURL, cfg.Explorer.APIKey,
			cfg.Proxy, cfg.Explorer.RateLimit, cfg.Run.RetryLimit, cfg.CallTimeout())
	} else {
		log.Warn("no explorer API key, token supply will be unavailable")
	}

	dex := collector.NewDexscreenerClient(cfg.Dex.BaseURL, cfg.Proxy,
		cfg.Run.RetryLimit, cfg.CallTimeout())

	col := collector.NewCollector(chain, explorer, dex, cfg.Chain.TokenAddress, cfg.Dex.Chain)

	// Init persister
	p := persister.New(cfg.Run.OutputPath)

	// Init run journal
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	runner := pipeline.NewRunner(col, p, rec)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, runner, cfg.TimeoutBudget())

	if *once {
		report := sched.RunNow()
		if sr, ok := rec.(*recorder.SQLiteRecorder); ok {
			sr.Close()
		}
		os.Exit(report.Status.ExitCode())
	}

	if err := sched.Register(cfg.Run.CronSpec); err != nil {
		log.WithError(err).Fatal("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing pipeline now")
		go sched.RunNow()
	}

	log.Info("BurnSentinel is running")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
	log.Info("BurnSentinel stopped")
}
