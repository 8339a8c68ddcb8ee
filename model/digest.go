package model

import "time"

/*

DigestPreference is the per-user digest and email settings

UserID: primary key
Enabled: whether the in-app digest is generated at all
EmailEnabled: whether the digest is also delivered by email
EmailTime: preferred local delivery time, "HH:MM:SS"
EmailTimezone: IANA timezone name the delivery time is interpreted in

*/

type DigestPreference struct {
	UserID        string `gorm:"primaryKey"`
	Enabled       bool   `gorm:"default:true"`
	EmailEnabled  bool   `gorm:"default:true"`
	EmailTime     string `gorm:"default:'08:00:00'"`
	EmailTimezone string `gorm:"default:'America/New_York'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

/*

DigestHistoryEntry records that a nugget or article was surfaced to a
user on a given day, so digest selection can suppress repeats within a
rolling window. Exactly one of NuggetID / ArticleID is set.

*/

type DigestHistoryEntry struct {
	Id        string `gorm:"primaryKey"`
	UserID    string `gorm:"index:idx_digest_history_user_sent"`
	NuggetID  *string
	ArticleID *string
	SentAt    time.Time `gorm:"index:idx_digest_history_user_sent"`
}
