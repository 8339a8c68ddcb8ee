package model

import (
	"time"

	"gorm.io/gorm"
)

/*

User is a data model for an authenticated user

Id: primary key, the stable subject id issued by the identity provider
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Email: contact address used for the digest email
Name: display name
FavoriteNuggets: nuggets this user favorited, "many-to-many" relation

*/

type User struct {
	Id              string `gorm:"primaryKey"`
	CreatedAt       time.Time
	DeletedAt       gorm.DeletedAt
	Email           string
	Name            string
	FavoriteNuggets []*Nugget `json:"favorite_nuggets" gorm:"many2many:user_nugget_favorites;"`
}
