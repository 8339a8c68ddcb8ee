package model

import (
	"time"

	"gorm.io/gorm"
)

/*

SavedArticle is a read-it-later bookmark

Id: primary key
CreatedAt: time when the article was saved
DeletedAt: time when entity is deleted

UserID: owner, unique together with Url so the same link saves once
Url: the bookmarked address as submitted
Title, Description, ImageUrl: scraped metadata, null when scraping
	failed (the bookmark still saves)
Domain: host of the url minus any leading "www.", used for display
IsRead:
ReadAt: read state toggled by the user; ReadAt is set when IsRead
	flips to true and cleared when it flips back

*/

type SavedArticle struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	UserID      string `gorm:"index;uniqueIndex:idx_saved_article_user_url"`
	Url         string `gorm:"uniqueIndex:idx_saved_article_user_url"`
	Title       *string
	Description *string
	ImageUrl    *string
	Domain      string
	IsRead      bool `gorm:"index"`
	ReadAt      *time.Time
}
