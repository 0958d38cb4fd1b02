// Command calibrate runs the statistical correction for one case day: for
// every 6-hour lead up to endLeadHour it reads the raw ensemble for
// (init time, lead, model), quantile-maps and dresses it against fitted
// distribution parameters, and writes one exceedance probability file per
// lead.
//
// Usage:
//
//	calibrate YYYYMMDDHH endLeadHour model
//
// model is one of GEFS, CMC, ECMWF. Configuration (directories, grid size,
// strategy switches) comes from the environment, optionally via a .env file.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nwp-tools/precip-calib/internal/config"
	"github.com/nwp-tools/precip-calib/internal/domain"
	"github.com/nwp-tools/precip-calib/internal/usecase"
)

func main() {
	// A .env is a convenience for local runs; operational runs set the
	// environment directly.
	_ = godotenv.Load()

	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: %s YYYYMMDDHH endLeadHour model\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "  model: GEFS, CMC or ECMWF")
		os.Exit(2)
	}

	init, err := parseInit(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	endLead, err := strconv.Atoi(os.Args[2])
	if err != nil || endLead <= 0 || endLead%6 != 0 {
		fmt.Fprintf(os.Stderr, "error: invalid ending lead hour %q (expected a positive multiple of 6)\n", os.Args[2])
		os.Exit(2)
	}
	model, err := domain.ParseModel(os.Args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	// One invocation per 6-hour lead up to the ending lead hour. Each lead is
	// its own independent run with its own output file.
	for lead := 6; lead <= endLead; lead += 6 {
		logger := log.New(os.Stdout, fmt.Sprintf("[%s %s f%03d] ", model, init, lead), log.LstdFlags)
		logger.Printf("starting calibration (cdf=%s kernel=%s csgd=%v)", cfg.CDFMode, cfg.KernelMode, cfg.EnableCSGD)

		assembler := usecase.NewAssembler(cfg, logger)
		res, err := assembler.Run(usecase.Request{Model: model, Init: init, LeadHours: lead})
		if err != nil {
			// Only a missing/unreadable forecast file reaches here; auxiliary
			// inputs degrade to partial output instead.
			logger.Printf("run failed: %v", err)
			os.Exit(1)
		}

		if len(res.Skipped) > 0 {
			logger.Printf("completed with skipped stages %v -> %s", res.Skipped, res.OutputPath)
		} else {
			logger.Printf("completed -> %s", res.OutputPath)
		}
	}
}

// parseInit validates a YYYYMMDDHH initial date-time.
func parseInit(s string) (string, error) {
	if len(s) != 10 {
		return "", fmt.Errorf("invalid initial date-time %q (expected YYYYMMDDHH)", s)
	}
	if _, err := time.Parse("2006010215", s); err != nil {
		return "", fmt.Errorf("invalid initial date-time %q: %w", s, err)
	}
	return s, nil
}
