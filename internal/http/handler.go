// Package http serves finished probability forecast files read-only: run
// listing, full per-threshold grids and bilinear point queries.
package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nwp-tools/precip-calib/internal/adapter/interp"
	"github.com/nwp-tools/precip-calib/internal/adapter/store/output"
	"github.com/nwp-tools/precip-calib/internal/domain"
)

// Handler handles HTTP requests over the output directory.
type Handler struct {
	outputDir string
}

// NewHandler creates a handler rooted at outputDir.
func NewHandler(outputDir string) *Handler {
	return &Handler{outputDir: outputDir}
}

// ListRuns handles GET /v1/runs.
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := output.ListRuns(h.outputDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// selectFields picks the probability path named by the field query.
func selectFields(set *output.ProbabilitySet, field string) ([]*domain.GridField, error) {
	switch field {
	case "", "dressed":
		return set.Dressed, nil
	case "raw":
		return set.Raw, nil
	case "qmapped":
		return set.QMapped, nil
	case "csgd":
		if set.CSGD == nil {
			return nil, fmt.Errorf("run has no CSGD grid")
		}
		return set.CSGD, nil
	}
	return nil, fmt.Errorf("invalid field %q (expected raw, qmapped, dressed or csgd)", field)
}

// GetPointProbabilities handles GET /v1/probabilities: per-threshold
// probabilities bilinearly interpolated at (lat, lon) from one run file.
func (h *Handler) GetPointProbabilities(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parameter is required"})
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	geom, set, err := output.Read(h.outputDir, file)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	fields, err := selectFields(set, c.Query("field"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	type point struct {
		ThresholdMM float64  `json:"threshold_mm"`
		Probability *float64 `json:"probability"`
	}
	points := make([]point, len(set.Thresholds))
	for t, thr := range set.Thresholds {
		points[t] = point{ThresholdMM: thr}
		grid := &interp.ProbGrid{Lats: geom.Lats, Lons: geom.Lons, Values: fields[t].Data}
		if err := grid.Validate(); err != nil {
			continue
		}
		if p, err := grid.At(lat, lon); err == nil {
			v := p
			points[t].Probability = &v
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"lat":           lat,
		"lon":           lon,
		"probabilities": points,
	})
}

// GetGrid handles GET /v1/grid: one full probability grid for a threshold
// index of one run file.
func (h *Handler) GetGrid(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parameter is required"})
		return
	}
	tIdx := 0
	if s := c.Query("threshold"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid threshold index: %v", err)})
			return
		}
		tIdx = v
	}

	geom, set, err := output.Read(h.outputDir, file)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	fields, err := selectFields(set, c.Query("field"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tIdx < 0 || tIdx >= len(fields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("threshold index %d out of range [0, %d)", tIdx, len(fields))})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"threshold_mm": set.Thresholds[tIdx],
		"lats":         geom.Lats,
		"lons":         geom.Lons,
		"values":       fields[tIdx].Data,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
