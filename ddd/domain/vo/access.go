package vo

import "strings"

// AccessType 播放授权类型
type AccessType string

const (
	AccessFree         AccessType = "free"
	AccessSubscription AccessType = "subscription"
	AccessPurchase     AccessType = "purchase"
	AccessAdmin        AccessType = "admin"
)

// 拒绝原因，原样返回给调用方
const (
	ReasonContentUnavailable = "content unavailable"
	ReasonAuthRequired       = "authentication required"
	ReasonPaymentRequired    = "subscription or purchase required"
)

// Caller 调用方身份，匿名访问时为 nil
type Caller struct {
	UserID string
	Role   string
}

// IsElevated 管理员与审核员绕过所有检查
func (c *Caller) IsElevated() bool {
	if c == nil {
		return false
	}
	switch strings.ToLower(c.Role) {
	case "admin", "administrator", "moderator":
		return true
	}
	return false
}

// AccessDecision 授权结果
type AccessDecision struct {
	Granted    bool
	AccessType AccessType
	Reason     string
}

// MaxAllowedQuality 免费内容最高 720p，其他授权类型返回实际最高档
func MaxAllowedQuality(available []Quality, access AccessType) (Quality, bool) {
	top, ok := MaxQuality(available)
	if !ok {
		return "", false
	}
	if access == AccessFree {
		return CapQuality(top, FreeQualityCap()), true
	}
	return top, true
}
