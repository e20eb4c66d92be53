package model

import "time"

// All 返回需要 AutoMigrate 的全部模型
func All() []interface{} {
	return []interface{}{
		&User{}, &Tweet{}, &Image{}, &Like{}, &Retweet{}, &Comment{}, &Follow{}, &Notification{},
	}
}

// Now 统一写入时间：UTC 且截断到微秒，保证游标经 JSON/Postgres 往返后不丢精度
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
