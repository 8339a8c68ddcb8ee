package server

import (
	"math/rand"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	"github.com/fillip-70-jackdaw/business-wisdom/selection"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

const feedQueryLimit = 200

// getFeed returns the published nuggets in a stable shuffled order.
// The order is fixed by a seed so pagination and pull-to-refresh see
// the same arrangement: an explicit ?seed= pins it, otherwise a seed
// is minted once per session and reused.
func (s *ApiServer) getFeed(c *gin.Context) {
	seed, sessionId := s.resolveShuffleSeed(c)

	var nuggets []*model.Nugget
	res := s.DB.Preload("Leader").
		Where("status = ?", model.NuggetStatusPublished).
		Order("created_at desc, id").
		Limit(feedQueryLimit).
		Find(&nuggets)
	if res.Error != nil {
		Logger.Log.Error("cannot load feed nuggets: ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load feed"})
		return
	}

	shuffled := selection.AntiClusterShuffle(nuggets, seed)

	c.JSON(http.StatusOK, gin.H{
		"nuggets":    nuggetResponses(shuffled),
		"seed":       strconv.FormatInt(seed, 10),
		"session_id": sessionId,
	})
}

// resolveShuffleSeed prefers an explicit ?seed=, then the seed bound to
// the X-Session-Id header in redis, then mints both. Redis being down
// degrades to a request-scoped random seed rather than failing.
func (s *ApiServer) resolveShuffleSeed(c *gin.Context) (int64, string) {
	if raw := c.Query("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return seed, c.GetHeader("X-Session-Id")
		}
		Logger.Log.Info("ignoring malformed seed ", raw, ": ", err)
	}

	sessionId := c.GetHeader("X-Session-Id")
	if sessionId == "" {
		sessionId = uuid.New().String()
	}
	proposed := rand.Int63()
	if s.Redis == nil {
		return proposed, sessionId
	}
	seed, err := s.Redis.GetOrCreateSessionSeed(c.Request.Context(), sessionId, proposed)
	if err != nil {
		Logger.Log.Info("cannot bind session seed, using request-scoped one: ", err)
		return proposed, sessionId
	}
	return seed, sessionId
}
