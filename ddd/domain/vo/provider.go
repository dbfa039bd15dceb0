package vo

import "strings"

// ProviderTag 视频由哪条编码链路产出
type ProviderTag string

const (
	ProviderNone  ProviderTag = ""
	ProviderLocal ProviderTag = "local"
	ProviderCDN   ProviderTag = "cdn"
)

// LocalProviderRef 本地转码产物的 provider 引用
func LocalProviderRef(contentID string) string {
	return "local:" + contentID
}

// providerStatusTable 外部编码服务状态到内部状态的映射，未列出的值按 PENDING 处理
var providerStatusTable = map[string]EncodingStatus{
	"":           EncodingPending,
	"pending":    EncodingPending,
	"processing": EncodingProcessing,
	"ready":      EncodingCompleted,
	"viewable":   EncodingCompleted,
	"errored":    EncodingFailed,
}

// MapProviderStatus 映射外部状态
func MapProviderStatus(status string) EncodingStatus {
	if s, ok := providerStatusTable[strings.ToLower(strings.TrimSpace(status))]; ok {
		return s
	}
	return EncodingPending
}
