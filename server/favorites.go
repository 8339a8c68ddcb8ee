package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// listFavorites returns the caller's favorited nuggets, most recently
// favorited first.
func (s *ApiServer) listFavorites(c *gin.Context) {
	uid := userId(c)
	var nuggets []*model.Nugget
	res := s.DB.Preload("Leader").
		Joins("JOIN user_nugget_favorites ON user_nugget_favorites.nugget_id = nuggets.id").
		Where("user_nugget_favorites.user_id = ?", uid).
		Order("user_nugget_favorites.created_at desc").
		Find(&nuggets)
	if res.Error != nil {
		Logger.Log.Error("cannot list favorites for ", uid, ": ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list favorites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nuggets": nuggetResponses(nuggets)})
}

// addFavorite is idempotent: favoriting an already favorited nugget is
// a no-op thanks to the composite primary key.
func (s *ApiServer) addFavorite(c *gin.Context) {
	uid := userId(c)
	nuggetId := c.Param("nuggetId")

	var count int64
	if err := s.DB.Model(&model.Nugget{}).
		Where("id = ? AND status = ?", nuggetId, model.NuggetStatusPublished).
		Count(&count).Error; err != nil {
		Logger.Log.Error("cannot check nugget ", nuggetId, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot favorite nugget"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "nugget not found"})
		return
	}

	favorite := model.UserNuggetFavorite{UserID: uid, NuggetID: nuggetId}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&favorite).Error; err != nil {
		Logger.Log.Error("cannot favorite nugget ", nuggetId, " for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot favorite nugget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favorited": true})
}

// removeFavorite is idempotent: unfavoriting a nugget that was never
// favorited succeeds.
func (s *ApiServer) removeFavorite(c *gin.Context) {
	uid := userId(c)
	nuggetId := c.Param("nuggetId")

	err := s.DB.
		Where("user_id = ? AND nugget_id = ?", uid, nuggetId).
		Delete(&model.UserNuggetFavorite{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		Logger.Log.Error("cannot unfavorite nugget ", nuggetId, " for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot unfavorite nugget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favorited": false})
}
