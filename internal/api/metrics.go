package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает метрики процесса для /health и /api/stats
type ServerMetrics struct {
	StartTime time.Time
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
	}
}

// ProcessStats это срез состояния процесса
type ProcessStats struct {
	Uptime       string  `json:"uptime"`
	UptimeSec    float64 `json:"uptime_sec"`
	AllocMB      float64 `json:"alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
	Goroutines   int     `json:"goroutines"`
	CPUPercent   float64 `json:"cpu_percent,omitempty"`
	RSSMB        float64 `json:"rss_mb,omitempty"`
	SystemCPU    float64 `json:"system_cpu_percent,omitempty"`
	CPUAvailable bool    `json:"cpu_available"`
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	uptime := time.Since(sm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// Runtime возвращает дешёвые метрики рантайма Go
func (sm *ServerMetrics) Runtime() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessStats{
		Uptime:     sm.GetUptime(),
		UptimeSec:  time.Since(sm.StartTime).Seconds(),
		AllocMB:    float64(m.Alloc) / 1024 / 1024,
		SysMB:      float64(m.Sys) / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

// Full дополняет Runtime метриками CPU и RSS процесса через gopsutil.
// Если ОС их не отдаёт, CPUAvailable остаётся false.
func (sm *ServerMetrics) Full() ProcessStats {
	stats := sm.Runtime()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if pct, err := proc.CPUPercent(); err == nil {
			stats.CPUPercent = pct
			stats.CPUAvailable = true
		}
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			stats.RSSMB = float64(mem.RSS) / 1024 / 1024
		}
	}

	if pcts, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pcts) > 0 {
		stats.SystemCPU = pcts[0]
	}
	return stats
}
