package server

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fillip-70-jackdaw/business-wisdom/digest"
	"github.com/fillip-70-jackdaw/business-wisdom/model"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// getDigest assembles the caller's personalized digest and records
// what was surfaced so the next month of digests avoids repeats.
//
// The enabled preference only gates email delivery; a user who turned
// the digest off can still open it in the app whenever they ask.
func (s *ApiServer) getDigest(c *gin.Context) {
	uid := userId(c)

	enabled := true
	var pref model.DigestPreference
	err := s.DB.Where("user_id = ?", uid).First(&pref).Error
	if err == nil {
		enabled = pref.Enabled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		Logger.Log.Error("cannot load digest preference for ", uid, ": ", err)
	}

	content, err := s.Generator.Generate(c.Request.Context(), uid)
	if err != nil {
		Logger.Log.Error("cannot generate digest for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot generate digest"})
		return
	}
	if err := s.Generator.LogHistory(uid, content); err != nil {
		// A missed history entry means a possible repeat next month,
		// not a broken digest.
		Logger.Log.Error("cannot log digest history for ", uid, ": ", err)
	}

	c.JSON(http.StatusOK, digestResponse(content, enabled))
}

func digestResponse(content *digest.Content, enabled bool) gin.H {
	return gin.H{
		"enabled":      enabled,
		"message":      content.Message,
		"nuggets":      nuggetResponses(content.Nuggets),
		"articles":     articleResponses(content.Articles),
		"generated_at": content.GeneratedAt,
	}
}

// postDailyDigestCron generates and emails a digest to every user who
// opted into email delivery. It is invoked by the scheduler, guarded
// by a shared secret. Per-user failures are counted and skipped so one
// bad account never blocks the batch.
func (s *ApiServer) postDailyDigestCron(c *gin.Context) {
	secret := os.Getenv("CRON_SECRET")
	if secret == "" || c.GetHeader("X-Cron-Secret") != secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad cron secret"})
		return
	}

	type recipient struct {
		UserID string
		Email  string
	}
	var recipients []recipient
	res := s.DB.Model(&model.DigestPreference{}).
		Select("digest_preferences.user_id, users.email").
		Joins("JOIN users ON users.id = digest_preferences.user_id").
		Where("digest_preferences.enabled = ? AND digest_preferences.email_enabled = ?", true, true).
		Where("users.email <> ''").
		Scan(&recipients)
	if res.Error != nil {
		Logger.Log.Error("cannot load digest recipients: ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load recipients"})
		return
	}

	sent, failed := 0, 0
	for _, r := range recipients {
		if err := s.emailDigest(c, r.UserID, r.Email); err != nil {
			Logger.Log.Error("cannot email digest to ", r.UserID, ": ", err)
			failed++
			continue
		}
		sent++
	}

	Logger.Log.Info("daily digest run finished, sent: ", sent, " failed: ", failed)
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed})
}

func (s *ApiServer) emailDigest(c *gin.Context, uid, email string) error {
	content, err := s.Generator.Generate(c.Request.Context(), uid)
	if err != nil {
		return errors.Wrap(err, "generate")
	}
	body, err := digest.RenderEmail(content)
	if err != nil {
		return errors.Wrap(err, "render")
	}
	if err := s.Sender.Send(email, digest.EmailSubject(), body); err != nil {
		return errors.Wrap(err, "send")
	}
	if err := s.Generator.LogHistory(uid, content); err != nil {
		Logger.Log.Error("cannot log digest history for ", uid, ": ", err)
	}
	return nil
}
