// Package config holds the process-wide run configuration. Everything the
// pipeline branches on (grid size, directories, strategy switches) lives in
// an immutable Config value passed in explicitly, so tests can inject small
// grids instead of the operational analysis grid.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Thresholds is the fixed ordered list of precipitation amounts (mm) at
// which exceedance probability is reported.
var Thresholds = []float64{0.254, 1.0, 2.5, 5.0, 10.0, 25.0, 50.0}

// CDF strategy switch values.
const (
	CDFGamma     = "gamma"
	CDFEmpirical = "empirical"
)

// Dressing-kernel strategy switch values.
const (
	KernelFitted = "fitted"
	KernelSimple = "simple"
)

// Config is the immutable run configuration.
type Config struct {
	// Operational analysis grid dimensions.
	GridNY int
	GridNX int

	// Input/output directories.
	ForecastDir    string // Raw ensemble forecast files.
	ParamsDir      string // Distribution params, histogram, kernel, CSGD files.
	ClimatologyDir string // Climatological exceedance probability files.
	OutputDir      string // Probability forecast output.

	// Strategy switches.
	CDFMode    string // CDFGamma or CDFEmpirical.
	KernelMode string // KernelFitted or KernelSimple.
	EnableCSGD bool

	// HTTP serving surface.
	HTTPAddr string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	ny, err := envInt("GRID_NY", 224)
	if err != nil {
		return nil, err
	}
	nx, err := envInt("GRID_NX", 464)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GridNY:         ny,
		GridNX:         nx,
		ForecastDir:    envOrDefault("FORECAST_DIR", "./data/forecast"),
		ParamsDir:      envOrDefault("PARAMS_DIR", "./data/params"),
		ClimatologyDir: envOrDefault("CLIMATOLOGY_DIR", "./data/climatology"),
		OutputDir:      envOrDefault("OUTPUT_DIR", "./data/output"),
		CDFMode:        envOrDefault("CDF_MODE", CDFGamma),
		KernelMode:     envOrDefault("KERNEL_MODE", KernelFitted),
		EnableCSGD:     envOrDefault("ENABLE_CSGD", "false") == "true",
		HTTPAddr:       envOrDefault("HTTP_ADDR", ":8080"),
	}

	if cfg.CDFMode != CDFGamma && cfg.CDFMode != CDFEmpirical {
		return nil, fmt.Errorf("invalid CDF_MODE %q (expected %s or %s)", cfg.CDFMode, CDFGamma, CDFEmpirical)
	}
	if cfg.KernelMode != KernelFitted && cfg.KernelMode != KernelSimple {
		return nil, fmt.Errorf("invalid KERNEL_MODE %q (expected %s or %s)", cfg.KernelMode, KernelFitted, KernelSimple)
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
