// Command kirkrun is the CLI wiring around the kirk core: it loads
// configuration, builds a localsut.Local, drives a scheduler.SuiteScheduler
// over a suite-definition file, and optionally exposes a statusapi.Server
// while it runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kirk/config"
	"kirk/localsut"
	"kirk/logging"
	"kirk/scheduler"
	"kirk/statusapi"
	"kirk/suiteconfig"
)

func main() {
	suitesPath := flag.String("suites", "suites.yaml", "path to a suite-definition YAML file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.NewStructuredLogger(logging.ParseLogLevel(cfg.Logging.Level), os.Stdout)

	suites, err := suiteconfig.Load(*suitesPath)
	if err != nil {
		log.Fatalf("loading suites: %v", err)
	}

	sut := localsut.New(cfg.SUT.WorkDir,
		localsut.WithTaintPath(cfg.SUT.TaintPath),
		localsut.WithDmesgPath(cfg.SUT.DmesgPath),
		localsut.WithLogger(logger),
	)

	suiteSched := scheduler.NewSuiteScheduler(
		sut,
		cfg.Scheduling.SuiteTimeout,
		cfg.Scheduling.ExecTimeout,
		cfg.Scheduling.MaxWorkers,
		scheduler.WithSuiteLogger(logger),
	)

	var statusSrv *statusapi.Server
	if cfg.StatusAPI.Enabled {
		statusSrv = statusapi.NewServer(cfg.StatusAPI.Addr, suiteSched, logger)
		go func() {
			if err := statusSrv.Start(); err != nil {
				logger.Error("status api failed", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("received interrupt, stopping scheduler")
		_ = suiteSched.Stop(context.Background())
		cancel()
	}()

	if err := suiteSched.Schedule(ctx, suites); err != nil {
		log.Fatalf("schedule: %v", err)
	}
	cancel()

	printSummary(suiteSched)

	if statusSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = statusSrv.Shutdown(shutdownCtx)
	}
}

func printSummary(ss *scheduler.SuiteScheduler) {
	results := ss.Results()
	fmt.Printf("suites run: %d, reboots: %d\n", len(results), ss.Rebooted())
	for _, sr := range results {
		passed, failed, broken, skipped := 0, 0, 0, 0
		for _, tr := range sr.TestsResults {
			passed += tr.Passed
			failed += tr.Failed
			broken += tr.Broken
			skipped += tr.Skipped
		}
		fmt.Printf("  %s: %d tests, %d passed, %d failed, %d broken, %d skipped\n",
			sr.Suite.Name, len(sr.TestsResults), passed, failed, broken, skipped)
	}
}
