package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	"github.com/fillip-70-jackdaw/business-wisdom/notifier"
	"github.com/fillip-70-jackdaw/business-wisdom/utils"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

type reviewInput struct {
	Status string `json:"status" binding:"required"`
}

// reviewerIds reads the reviewer allow-list, a comma separated list of
// user ids, from the environment on every call so rotation does not
// need a restart.
func reviewerIds() []string {
	var ids []string
	for _, id := range strings.Split(os.Getenv("REVIEWER_IDS"), ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func (s *ApiServer) requireReviewer(c *gin.Context) (string, bool) {
	uid := userId(c)
	if !utils.ContainsString(reviewerIds(), uid) {
		c.JSON(http.StatusForbidden, gin.H{"error": "reviewer access required"})
		return "", false
	}
	return uid, true
}

// listDraftNuggets returns the review queue, oldest first.
func (s *ApiServer) listDraftNuggets(c *gin.Context) {
	if _, ok := s.requireReviewer(c); !ok {
		return
	}

	var drafts []*model.Nugget
	res := s.DB.Preload("Leader").
		Where("status = ?", model.NuggetStatusDraft).
		Order("created_at, id").
		Find(&drafts)
	if res.Error != nil {
		Logger.Log.Error("cannot list draft nuggets: ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list drafts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nuggets": nuggetResponses(drafts)})
}

// reviewNugget publishes or rejects a draft. The lifecycle is one way
// and enforced both in code and by the conditional update, so two
// reviewers racing on the same nugget resolve to the first decision.
func (s *ApiServer) reviewNugget(c *gin.Context) {
	uid, ok := s.requireReviewer(c)
	if !ok {
		return
	}
	nuggetId := c.Param("id")

	var input reviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	next := model.NuggetStatus(input.Status)
	if next != model.NuggetStatusPublished && next != model.NuggetStatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be published or rejected"})
		return
	}

	var nugget model.Nugget
	err := s.DB.Where("id = ?", nuggetId).First(&nugget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "nugget not found"})
		return
	}
	if err != nil {
		Logger.Log.Error("cannot load nugget ", nuggetId, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load nugget"})
		return
	}
	if !nugget.Status.CanTransitionTo(next) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "nugget is already " + string(nugget.Status),
		})
		return
	}

	res := s.DB.Model(&model.Nugget{}).
		Where("id = ? AND status = ?", nuggetId, model.NuggetStatusDraft).
		Update("status", next)
	if res.Error != nil {
		Logger.Log.Error("cannot review nugget ", nuggetId, ": ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot review nugget"})
		return
	}
	if res.RowsAffected == 0 {
		// Another reviewer got here first.
		s.DB.Where("id = ?", nuggetId).First(&nugget)
		c.JSON(http.StatusConflict, gin.H{
			"error": "nugget is already " + string(nugget.Status),
		})
		return
	}

	if s.Bus != nil {
		notifier.Publish(s.Bus, notifier.TopicNuggetReview, notifier.ReviewEvent{
			NuggetID:   nuggetId,
			LeaderID:   nugget.LeaderID,
			Status:     string(next),
			ReviewerID: uid,
		})
	}

	nugget.Status = next
	c.JSON(http.StatusOK, nuggetResponse(&nugget))
}
