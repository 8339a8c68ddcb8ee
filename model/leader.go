package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Leader is a data model for a business leader whose wisdom we curate

Id: primary key, use to identify a leader
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Name: display name, for example "Andy Grove"
Slug: unique stable identifier used in routes, for example "andy-grove"
Title: short descriptor, for example "Former CEO, Intel"
Portrait: JSON descriptor of the leader's image, either a licensed
	external photo (url, credit, license, source_url, attribution) or a
	generated fallback (generated=true)
Nuggets: all nuggets attributed to this leader, "has-many" relation

*/

type Leader struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	Name      string
	Slug      string `gorm:"uniqueIndex"`
	Title     string
	Portrait  datatypes.JSON
	Nuggets   []*Nugget `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

// LeaderPortrait is the decoded shape of Leader.Portrait.
type LeaderPortrait struct {
	Url         string `json:"url"`
	Credit      string `json:"credit,omitempty"`
	License     string `json:"license,omitempty"`
	SourceUrl   string `json:"source_url,omitempty"`
	Attribution string `json:"attribution,omitempty"`
	Generated   bool   `json:"generated,omitempty"`
}
