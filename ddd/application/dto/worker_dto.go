package dto

import "time"

// WorkerStatsDTO 本节点 Worker 运行情况
type WorkerStatsDTO struct {
	Enabled          bool           `json:"enabled"`
	WorkerID         string         `json:"worker_id,omitempty"`
	Concurrency      int            `json:"concurrency"`
	ProcessedTasks   uint64         `json:"processed_tasks"`
	SuccessfulTasks  uint64         `json:"successful_tasks"`
	FailedTasks      uint64         `json:"failed_tasks"`
	CurrentlyRunning int            `json:"currently_running"`
	StartTime        time.Time      `json:"start_time,omitempty"`
	LastTaskTime     time.Time      `json:"last_task_time,omitempty"`
	ActiveJobs       []ActiveJobDTO `json:"active_jobs"`
	Host             HostStatsDTO   `json:"host"`
}

// ActiveJobDTO 执行中的任务
type ActiveJobDTO struct {
	JobID     string    `json:"job_id"`
	ContentID string    `json:"content_id"`
	Progress  int       `json:"progress"`
	Attempt   int       `json:"attempt"`
	StartedAt time.Time `json:"started_at"`
}

// HostStatsDTO 主机资源占用
type HostStatsDTO struct {
	NumCPU            int     `json:"num_cpu"`
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryTotal       uint64  `json:"memory_total"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
}
