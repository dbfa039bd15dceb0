package worker

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostStats 转码节点的资源占用，用于判断是否还能加并发
type HostStats struct {
	NumCPU            int
	CPUPercent        float64
	MemoryTotal       uint64
	MemoryUsedPercent float64
}

// SampleHost 采集失败的字段保持零值
func SampleHost(ctx context.Context) HostStats {
	stats := HostStats{NumCPU: runtime.NumCPU()}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryTotal = vm.Total
		stats.MemoryUsedPercent = vm.UsedPercent
	}
	return stats
}
