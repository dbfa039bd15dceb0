package entity

import "time"

// JobTypeTranscode 本地转码任务类型
const JobTypeTranscode = "transcode"

// TranscodeJob 队列中的转码任务载荷，仅在队列保留期内存在
type TranscodeJob struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ContentID   string    `json:"content_id"`
	SourcePath  string    `json:"source_path"`
	Filename    string    `json:"filename"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"max_attempts"`
	Progress    int       `json:"progress"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}

// NewTranscodeJob 创建任务载荷，ID 由队列分配
func NewTranscodeJob(contentID, sourcePath, filename string) *TranscodeJob {
	return &TranscodeJob{
		Type:       JobTypeTranscode,
		ContentID:  contentID,
		SourcePath: sourcePath,
		Filename:   filename,
		CreatedAt:  time.Now(),
	}
}

// SetProgress 进度只增不减，范围 0-100
func (j *TranscodeJob) SetProgress(p int) bool {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p <= j.Progress {
		return false
	}
	j.Progress = p
	return true
}
