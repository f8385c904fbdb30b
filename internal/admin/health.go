package admin

import (
	"fmt"
	"net/http"
	"time"

	"Fitdiary/internal/utility"
	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// StartTime is when the process started serving.
var StartTime = time.Now()

const gb = 1024 * 1024 * 1024

/* =================================================================================
								SERVER HEALTH
=================================================================================*/

// GetServerHealthHandler serves GET /admin/server-health with host CPU,
// memory, disk and runtime figures. A probe that fails is reported as
// unavailable in its own section and the overall status becomes "degraded".
func GetServerHealthHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := utility.GetLogger(c)
	status := "online"

	unavailable := func(section string, err error) map[string]interface{} {
		logger.Warn().Err(err).Str("section", section).Msg("Server health probe failed")
		status = "degraded"
		return map[string]interface{}{"error": "unavailable"}
	}

	// 1. Memory
	var memory map[string]interface{}
	if v, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		memory = unavailable("memory", err)
	} else {
		memory = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/gb),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/gb),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
			"free_gb":      fmt.Sprintf("%.2f GB", float64(v.Free)/gb),
		}
	}

	// 2. CPU, measured since the previous call so the request never blocks
	var cpuStats map[string]interface{}
	percent, err := cpu.PercentWithContext(ctx, 0, false)
	switch {
	case err != nil:
		cpuStats = unavailable("cpu", err)
	case len(percent) == 0:
		cpuStats = unavailable("cpu", fmt.Errorf("no cpu samples"))
	default:
		cpuStats = map[string]interface{}{
			"usage_percent": fmt.Sprintf("%.2f%%", percent[0]),
		}
		if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
			cpuStats["cores"] = cores
		}
	}

	// 3. Disk (root partition)
	var diskStats map[string]interface{}
	if d, err := disk.UsageWithContext(ctx, "/"); err != nil {
		diskStats = unavailable("disk", err)
	} else {
		diskStats = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/gb),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(d.Used)/gb),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		}
	}

	// 4. Host and runtime
	runtime := map[string]interface{}{
		"uptime":     time.Since(StartTime).Round(time.Second).String(),
		"start_time": StartTime.Format(time.RFC3339),
	}
	if h, err := host.InfoWithContext(ctx); err != nil {
		unavailable("host", err)
	} else {
		runtime["os"] = h.OS
		runtime["platform"] = h.Platform
		runtime["arch"] = h.KernelArch
		runtime["hostname"] = h.Hostname
		runtime["processes"] = h.Procs
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  status,
		"runtime": runtime,
		"cpu":     cpuStats,
		"memory":  memory,
		"disk":    diskStats,
	})
}
