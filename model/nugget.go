package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NuggetType is the closed set of content types a nugget can carry.
type NuggetType string

const (
	NuggetTypeQuote     NuggetType = "quote"
	NuggetTypePrinciple NuggetType = "principle"
	NuggetTypeFramework NuggetType = "framework"
	NuggetTypeStory     NuggetType = "story"
)

// NuggetStatus is the review lifecycle state. Transitions are one-way:
// draft -> published, draft -> rejected.
type NuggetStatus string

const (
	NuggetStatusDraft     NuggetStatus = "draft"
	NuggetStatusPublished NuggetStatus = "published"
	NuggetStatusRejected  NuggetStatus = "rejected"
)

// NuggetConfidence records how well the attribution is sourced.
type NuggetConfidence string

const (
	NuggetConfidenceVerified    NuggetConfidence = "verified"
	NuggetConfidenceAttributed  NuggetConfidence = "attributed"
	NuggetConfidenceParaphrased NuggetConfidence = "paraphrased"
)

/*

Nugget is a single attributed piece of wisdom shown to users

Id: primary key, use to identify a nugget
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

LeaderID:
Leader: the leader this nugget is attributed to, "belongs-to" relation
Text: the nugget content in plain text, bounded length
TopicTags: 0-3 topic tags drawn from the curated vocabulary, stored as text[]
Type: one of quote/principle/framework/story
SourceTitle, SourceUrl, SourceYear: optional provenance of the attribution
Confidence: attribution confidence level
Status: review lifecycle state, only published nuggets are user visible

FavoritedBy: users who favorited this nugget, "many-to-many" relation

*/

type Nugget struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	LeaderID    string  `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Leader      *Leader `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Text        string
	TopicTags   pq.StringArray `gorm:"type:text[]"`
	Type        NuggetType
	SourceTitle *string
	SourceUrl   *string
	SourceYear  *int
	Confidence  NuggetConfidence `gorm:"default:attributed"`
	Status      NuggetStatus     `gorm:"index;default:draft"`
	FavoritedBy []*User          `json:"favorited_by" gorm:"many2many:user_nugget_favorites;"`
}

// IsActionable reports whether the nugget type is one users can act on
// directly. Used to bias digest selection.
func (n *Nugget) IsActionable() bool {
	return n.Type == NuggetTypeFramework || n.Type == NuggetTypePrinciple
}

// CanTransitionTo enforces the one-way review lifecycle.
func (s NuggetStatus) CanTransitionTo(next NuggetStatus) bool {
	return s == NuggetStatusDraft &&
		(next == NuggetStatusPublished || next == NuggetStatusRejected)
}
