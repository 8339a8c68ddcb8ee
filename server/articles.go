package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	"github.com/fillip-70-jackdaw/business-wisdom/scraper"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

type createArticleInput struct {
	Url string `json:"url" binding:"required"`
}

type patchArticleInput struct {
	IsRead *bool `json:"is_read" binding:"required"`
}

// listArticles returns the caller's saved articles, unread first, then
// newest first within each group.
func (s *ApiServer) listArticles(c *gin.Context) {
	uid := userId(c)
	var articles []*model.SavedArticle
	res := s.DB.
		Where("user_id = ?", uid).
		Order("is_read, created_at desc").
		Find(&articles)
	if res.Error != nil {
		Logger.Log.Error("cannot list articles for ", uid, ": ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list articles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articleResponses(articles)})
}

// createArticle saves a bookmark. Metadata scraping is best effort: a
// fetch failure still saves the bookmark with domain-only metadata.
// Saving the same url twice is a conflict.
func (s *ApiServer) createArticle(c *gin.Context) {
	uid := userId(c)

	var input createArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	parsed, err := url.Parse(input.Url)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be absolute http(s)"})
		return
	}

	var existingCount int64
	if err := s.DB.Model(&model.SavedArticle{}).
		Where("user_id = ? AND url = ?", uid, input.Url).
		Count(&existingCount).Error; err != nil {
		Logger.Log.Error("cannot check article duplicate for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save article"})
		return
	}
	if existingCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "article already saved"})
		return
	}

	article := &model.SavedArticle{
		Id:     uuid.New().String(),
		UserID: uid,
		Url:    input.Url,
		Domain: scraper.ExtractDomain(input.Url),
	}
	if s.Fetcher != nil {
		meta, err := s.Fetcher.Fetch(c.Request.Context(), input.Url)
		if err != nil {
			Logger.Log.Info("metadata fetch failed for ", input.Url, ", saving bare: ", err)
		}
		applyMetadata(article, meta)
	}

	if err := s.DB.Create(article).Error; err != nil {
		// The unique index closes the check-then-create window.
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "article already saved"})
			return
		}
		Logger.Log.Error("cannot save article for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save article"})
		return
	}

	c.JSON(http.StatusCreated, articleResponse(article))
}

// patchArticle toggles read state. ReadAt tracks the flip: set when an
// article turns read, cleared when it turns unread again.
func (s *ApiServer) patchArticle(c *gin.Context) {
	uid := userId(c)
	articleId := c.Param("id")

	var input patchArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_read is required"})
		return
	}

	article, ok := s.ownedArticle(c, uid, articleId)
	if !ok {
		return
	}

	article.IsRead = *input.IsRead
	if article.IsRead {
		now := time.Now().UTC()
		article.ReadAt = &now
	} else {
		article.ReadAt = nil
	}

	if err := s.DB.Model(article).
		Select("is_read", "read_at").
		Updates(map[string]interface{}{
			"is_read": article.IsRead,
			"read_at": article.ReadAt,
		}).Error; err != nil {
		Logger.Log.Error("cannot update article ", articleId, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update article"})
		return
	}

	c.JSON(http.StatusOK, articleResponse(article))
}

func (s *ApiServer) deleteArticle(c *gin.Context) {
	uid := userId(c)
	articleId := c.Param("id")

	article, ok := s.ownedArticle(c, uid, articleId)
	if !ok {
		return
	}

	if err := s.DB.Delete(article).Error; err != nil {
		Logger.Log.Error("cannot delete article ", articleId, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete article"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedArticle loads the article and enforces ownership; it writes the
// error response itself and reports whether the caller may proceed.
func (s *ApiServer) ownedArticle(c *gin.Context, uid, articleId string) (*model.SavedArticle, bool) {
	var article model.SavedArticle
	err := s.DB.Where("id = ? AND user_id = ?", articleId, uid).First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return nil, false
	}
	if err != nil {
		Logger.Log.Error("cannot load article ", articleId, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load article"})
		return nil, false
	}
	return &article, true
}

func applyMetadata(article *model.SavedArticle, meta scraper.ArticleMetadata) {
	if meta.Domain != "" {
		article.Domain = meta.Domain
	}
	if meta.Title != "" {
		title := meta.Title
		article.Title = &title
	}
	if meta.Description != "" {
		description := meta.Description
		article.Description = &description
	}
	if meta.ImageUrl != "" {
		imageUrl := meta.ImageUrl
		article.ImageUrl = &imageUrl
	}
}
