package model

import (
	"time"

	"gorm.io/gorm"
)

/*

UserNuggetFavorite is a "many-to-many" relation of user favoriting a nugget

UserID: user id
NuggetID: nugget id
CreatedAt: time when relation is created

The composite primary key guarantees at most one row per (user, nugget)
pair; favoriting twice is an upsert no-op.

*/

type UserNuggetFavorite struct {
	UserID    string `gorm:"primaryKey"`
	NuggetID  string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (UserNuggetFavorite) BeforeCreate(db *gorm.DB) error {
	return nil
}
