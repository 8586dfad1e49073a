// Command audit scans the database for integrity violations and exits
// non-zero when any check fails.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"sazon/internal/bootstrap"
	"sazon/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	asJSON := flag.Bool("json", false, "Print the full report as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipSchema: true, ServiceName: "sazon-audit"})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	report, err := rt.Engine.Audit(ctx)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}

	for _, c := range report.Failed() {
		log.Printf("FAIL %s: %d", c.Name, c.Violations)
	}
	if !report.Clean() {
		return fmt.Errorf("%d integrity violations found", report.Total())
	}
	log.Printf("all %d checks clean", len(report.Checks))
	return nil
}
