// Command server exposes produced probability forecast files over HTTP:
// run listing, grid extraction and bilinear point queries.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/nwp-tools/precip-calib/internal/config"
	httpHandler "github.com/nwp-tools/precip-calib/internal/http"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("precip-calib server version %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting probability forecast server...")
	log.Printf("Output directory: %s", cfg.OutputDir)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/runs")
	log.Printf("  - GET /v1/probabilities?file=&lat=&lon=&field=")
	log.Printf("  - GET /v1/grid?file=&threshold=&field=")

	router := httpHandler.SetupRouter(cfg.OutputDir)

	log.Printf("Server listening on %s", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
