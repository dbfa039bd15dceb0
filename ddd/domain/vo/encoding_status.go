package vo

import "strings"

// EncodingStatus 清晰度记录的编码状态
type EncodingStatus string

const (
	EncodingPending    EncodingStatus = "PENDING"
	EncodingProcessing EncodingStatus = "PROCESSING"
	EncodingCompleted  EncodingStatus = "COMPLETED"
	EncodingFailed     EncodingStatus = "FAILED"
)

// IsValid 检查状态是否有效
func (s EncodingStatus) IsValid() bool {
	switch s {
	case EncodingPending, EncodingProcessing, EncodingCompleted, EncodingFailed:
		return true
	default:
		return false
	}
}

func (s EncodingStatus) String() string {
	return string(s)
}

// IsTerminal 是否为最终状态
func (s EncodingStatus) IsTerminal() bool {
	return s == EncodingCompleted || s == EncodingFailed
}

// ParseEncodingStatus 大小写不敏感，无法识别时返回 PENDING
func ParseEncodingStatus(s string) EncodingStatus {
	st := EncodingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st.IsValid() {
		return st
	}
	return EncodingPending
}

// DeriveOverallStatus 由全部记录的状态推导整体状态：
// 任一 FAILED 为 FAILED；全部 COMPLETED 为 COMPLETED；任一 PROCESSING 为 PROCESSING；其余 PENDING。
// 空集合为 PENDING。
func DeriveOverallStatus(statuses []EncodingStatus) EncodingStatus {
	if len(statuses) == 0 {
		return EncodingPending
	}
	completed := 0
	processing := false
	for _, s := range statuses {
		switch s {
		case EncodingFailed:
			return EncodingFailed
		case EncodingCompleted:
			completed++
		case EncodingProcessing:
			processing = true
		}
	}
	if completed == len(statuses) {
		return EncodingCompleted
	}
	if processing {
		return EncodingProcessing
	}
	return EncodingPending
}
