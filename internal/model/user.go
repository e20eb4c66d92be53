package model

import "time"

// User 用户（身份由外部登录提供方签发，这里只保存展示字段）
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(128);index:idx_user_name"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Image     string    `json:"image" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }
