package model

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationNewFollower NotificationType = "NEW_FOLLOWER"
)

// Notification 通知：notifyer 触发，notifyee 接收；resource_path/resource_id 组成跳转地址
type Notification struct {
	ID           string           `gorm:"primaryKey;type:varchar(36)"`
	NotifyeeID   string           `gorm:"type:varchar(36);index:idx_notification_notifyee;not null"`
	NotifyerID   string           `gorm:"type:varchar(36);not null"`
	Type         NotificationType `gorm:"type:varchar(32);not null"`
	ResourcePath string           `gorm:"type:varchar(64)"`
	ResourceID   string           `gorm:"type:varchar(36)"`
	CreatedAt    time.Time        `gorm:"index"`

	Notifyee User `gorm:"foreignKey:NotifyeeID"`
	Notifyer User `gorm:"foreignKey:NotifyerID"`
}

func (Notification) TableName() string { return "notifications" }
