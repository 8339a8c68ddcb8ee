// Package digest assembles the personalized daily digest: a few
// nuggets matched to the user's topic affinity, their unread saved
// articles, and a short generated message on top.
package digest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	"github.com/fillip-70-jackdaw/business-wisdom/selection"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// Content is one generated digest.
type Content struct {
	Nuggets     []*model.Nugget
	Articles    []*model.SavedArticle
	Affinity    map[string]float64
	Message     string
	GeneratedAt time.Time
}

// Config bounds digest assembly; zero values are replaced with the
// defaults below.
type Config struct {
	NuggetCount       int
	ArticleCount      int
	HistoryWindowDays int
	PoolLimit         int
}

func (c Config) withDefaults() Config {
	if c.NuggetCount <= 0 {
		c.NuggetCount = 3
	}
	if c.ArticleCount <= 0 {
		c.ArticleCount = 3
	}
	if c.HistoryWindowDays <= 0 {
		c.HistoryWindowDays = 30
	}
	if c.PoolLimit <= 0 {
		c.PoolLimit = 500
	}
	return c
}

// Generator builds digests against the store. Captioner may be nil, in
// which case every digest carries the fallback message.
type Generator struct {
	DB        *gorm.DB
	Captioner Captioner
	Config    Config
}

func NewGenerator(db *gorm.DB, captioner Captioner, config Config) *Generator {
	return &Generator{DB: db, Captioner: captioner, Config: config.withDefaults()}
}

// Generate assembles a digest for the user. Under-supply of nuggets or
// articles shortens the digest, it never fails it; only store errors
// propagate.
func (g *Generator) Generate(ctx context.Context, userId string) (*Content, error) {
	now := time.Now().UTC()

	articles, err := g.unreadArticles(userId)
	if err != nil {
		return nil, errors.Wrap(err, "load unread articles")
	}

	affinity, err := g.topicAffinity(userId)
	if err != nil {
		return nil, errors.Wrap(err, "load topic affinity")
	}

	exclude, err := g.recentlySurfaced(userId, now)
	if err != nil {
		return nil, errors.Wrap(err, "load digest history")
	}

	var pool []*model.Nugget
	res := g.DB.Preload("Leader").
		Where("status = ?", model.NuggetStatusPublished).
		Order("created_at desc, id").
		Limit(g.Config.PoolLimit).
		Find(&pool)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load nugget pool")
	}

	nuggets := selection.PickDigestNuggets(
		pool, affinity, exclude, g.Config.NuggetCount, selection.DateSeed(now))

	content := &Content{
		Nuggets:     nuggets,
		Articles:    articles,
		Affinity:    affinity,
		GeneratedAt: now,
	}
	content.Message = g.caption(ctx, content, now)

	return content, nil
}

// caption asks the configured captioner and falls back to the canned
// message on any failure. Captioning never blocks a digest.
func (g *Generator) caption(ctx context.Context, content *Content, now time.Time) string {
	if g.Captioner == nil {
		return FallbackCaption(content, now)
	}
	message, err := g.Captioner.Caption(ctx, content)
	if err != nil {
		Logger.Log.Warn("digest captioner failed, using fallback: ", err)
		return FallbackCaption(content, now)
	}
	return message
}

// LogHistory records what was surfaced so the next month's digests
// skip it.
func (g *Generator) LogHistory(userId string, content *Content) error {
	var entries []*model.DigestHistoryEntry
	now := time.Now().UTC()
	for _, n := range content.Nuggets {
		id := n.Id
		entries = append(entries, &model.DigestHistoryEntry{
			Id:       uuid.New().String(),
			UserID:   userId,
			NuggetID: &id,
			SentAt:   now,
		})
	}
	for _, a := range content.Articles {
		id := a.Id
		entries = append(entries, &model.DigestHistoryEntry{
			Id:        uuid.New().String(),
			UserID:    userId,
			ArticleID: &id,
			SentAt:    now,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return g.DB.Create(entries).Error
}

func (g *Generator) unreadArticles(userId string) ([]*model.SavedArticle, error) {
	var articles []*model.SavedArticle
	res := g.DB.
		Where("user_id = ? AND is_read = ?", userId, false).
		Order("created_at desc").
		Limit(g.Config.ArticleCount).
		Find(&articles)
	return articles, res.Error
}

// topicAffinity counts topic tags across the user's favorited nuggets.
func (g *Generator) topicAffinity(userId string) (map[string]float64, error) {
	var favorites []*model.Nugget
	res := g.DB.
		Joins("JOIN user_nugget_favorites ON user_nugget_favorites.nugget_id = nuggets.id").
		Where("user_nugget_favorites.user_id = ?", userId).
		Find(&favorites)
	if res.Error != nil {
		return nil, res.Error
	}
	return selection.TopicAffinity(favorites), nil
}

// recentlySurfaced returns nugget ids sent to the user within the
// rolling history window.
func (g *Generator) recentlySurfaced(userId string, now time.Time) (map[string]bool, error) {
	cutoff := now.AddDate(0, 0, -g.Config.HistoryWindowDays)
	var entries []*model.DigestHistoryEntry
	res := g.DB.
		Where("user_id = ? AND sent_at >= ? AND nugget_id IS NOT NULL", userId, cutoff).
		Find(&entries)
	if res.Error != nil {
		return nil, res.Error
	}
	exclude := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.NuggetID != nil {
			exclude[*e.NuggetID] = true
		}
	}
	return exclude, nil
}
