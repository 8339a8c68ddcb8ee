package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// getLeaderBySlug returns the leader profile with their published
// nuggets, newest first. Drafts and rejected nuggets stay hidden.
func (s *ApiServer) getLeaderBySlug(c *gin.Context) {
	slug := c.Param("slug")

	var leader model.Leader
	err := s.DB.
		Preload("Nuggets", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", model.NuggetStatusPublished).
				Order("created_at desc, id")
		}).
		Where("slug = ?", slug).
		First(&leader).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "leader not found"})
		return
	}
	if err != nil {
		Logger.Log.Error("cannot load leader ", slug, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load leader"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leader":  leaderResponse(&leader),
		"nuggets": nuggetResponses(leader.Nuggets),
	})
}
