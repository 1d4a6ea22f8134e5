// Command edge-audit runs a single scan over the dual-sided membership
// arrays and reports dangling and asymmetric entries. With -repair it also
// fixes what it finds. The API server runs the same audit on a schedule;
// this command exists for ad-hoc runs and migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"callcenter_backend/internal/relationships"
	"callcenter_backend/platform/config"
	"callcenter_backend/platform/db"
	"callcenter_backend/platform/logger"
)

func main() {
	repair := flag.Bool("repair", false, "repair findings instead of only reporting them")
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the audit after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting edge audit", "repair", *repair)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	manager := relationships.NewManager(pool, nil, log)

	report, err := manager.Audit(ctx, *repair)
	if err != nil {
		log.Error("edge audit failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("scanned:    %d\n", report.Scanned)
	fmt.Printf("dangling:   %d\n", report.Dangling)
	fmt.Printf("asymmetric: %d\n", report.Asymmetric)
	fmt.Printf("repaired:   %d\n", report.Repaired)
	for _, finding := range report.Findings {
		fmt.Printf("  %s %s: owner=%s member=%s side=%s\n",
			finding.Kind, finding.Problem, finding.OwnerID, finding.MemberID, finding.Side)
	}

	if !*repair && report.Dangling+report.Asymmetric > 0 {
		os.Exit(2)
	}
}
