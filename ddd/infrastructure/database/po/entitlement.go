package po

import "time"

// Subscription 订阅，content_id 为空表示全站订阅
type Subscription struct {
	BaseModel
	UserID    string    `gorm:"column:user_id;type:varchar(36);index" json:"user_id"`
	ContentID string    `gorm:"column:content_id;type:varchar(36);index" json:"content_id"`
	Status    string    `gorm:"column:status;type:varchar(20)" json:"status"` // active, cancelled, expired
	ExpiresAt time.Time `gorm:"column:expires_at" json:"expires_at"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// Purchase 单片购买
type Purchase struct {
	BaseModel
	UserID    string `gorm:"column:user_id;type:varchar(36);index:idx_purchase_user_content" json:"user_id"`
	ContentID string `gorm:"column:content_id;type:varchar(36);index:idx_purchase_user_content" json:"content_id"`
}

// TableName 指定表名
func (Purchase) TableName() string {
	return "purchases"
}
