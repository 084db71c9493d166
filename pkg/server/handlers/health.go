package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const serviceName = "surveylens"

var startedAt = time.Now()

// HealthHandler handles health check requests
type HealthHandler struct {
	source ResultSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(source ResultSource) *HealthHandler {
	return &HealthHandler{
		source: source,
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready. The service is ready once its output
// directory can be read.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	response := gin.H{
		"status":    "ready",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	checks := gin.H{}
	response["checks"] = checks

	allHealthy := true
	if h.source == nil {
		checks["results"] = gin.H{"status": "unhealthy", "error": "result source not initialized"}
		allHealthy = false
	} else {
		start := time.Now()
		if err := h.source.Ping(); err != nil {
			checks["results"] = gin.H{"status": "unhealthy", "error": err.Error(), "duration": time.Since(start).String()}
			allHealthy = false
		} else {
			checks["results"] = gin.H{"status": "healthy", "duration": time.Since(start).String()}
		}
	}

	checks["system"] = gin.H{
		"status": "healthy",
		"uptime": time.Since(startedAt).String(),
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed. Besides the readiness
// probe it reports which result tables are present.
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	startTime := time.Now()
	checks := gin.H{}
	response := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": checks,
	}

	allHealthy := true
	if h.source == nil {
		checks["results"] = gin.H{"status": "unhealthy", "error": "result source not initialized"}
		allHealthy = false
	} else if err := h.source.Ping(); err != nil {
		checks["results"] = gin.H{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		tables := gin.H{}
		tables["clusters"] = tableStatus(func() (int, error) {
			rows, err := h.source.ClusterRows()
			return len(rows), err
		})
		tables["representatives"] = tableStatus(func() (int, error) {
			rows, err := h.source.Representatives()
			return len(rows), err
		})
		tables["agreement"] = tableStatus(func() (int, error) {
			rows, err := h.source.Agreement()
			return len(rows), err
		})
		tables["spectrum"] = tableStatus(func() (int, error) {
			rows, err := h.source.Spectrum()
			return len(rows), err
		})
		checks["results"] = gin.H{"status": "healthy", "tables": tables}
	}

	metrics := h.getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": metrics.MemoryUsage,
		"goroutines":   metrics.Goroutines,
		"gc_cycles":    metrics.GCCycles,
		"heap_objects": metrics.HeapObjects,
		"stack_usage":  metrics.StackUsage,
		"uptime":       time.Since(startedAt).String(),
	}

	response["metrics"] = gin.H{"response_time_ms": time.Since(startTime).Milliseconds()}

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// tableStatus reports a table as available with its row count, or missing.
func tableStatus(read func() (int, error)) gin.H {
	n, err := read()
	if err != nil {
		return gin.H{"available": false, "error": err.Error()}
	}
	return gin.H{"available": true, "rows": n}
}

// SystemMetrics holds system runtime metrics
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
	StackUsage  string `json:"stack_usage"`
}

// getSystemMetrics collects current system runtime metrics
func (h *HealthHandler) getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024)),
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
		StackUsage:  fmt.Sprintf("%.2f MB", float64(m.StackSys)/(1024*1024)),
	}
}
