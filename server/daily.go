package server

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	"github.com/fillip-70-jackdaw/business-wisdom/notifier"
	"github.com/fillip-70-jackdaw/business-wisdom/selection"
	"github.com/fillip-70-jackdaw/business-wisdom/streak"
	"github.com/fillip-70-jackdaw/business-wisdom/utils"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// getDaily serves today's nugget. Anonymous requests get the nugget
// alone; authenticated ones additionally get streak standing, whether
// today's nugget is already favorited, a day-rotated pick from their
// favorites and their digest preferences.
func (s *ApiServer) getDaily(c *gin.Context) {
	today := selection.MidnightUTC(time.Now())

	nuggetId, err := s.todaysNuggetId(c.Request.Context(), today)
	if err != nil {
		Logger.Log.Error("cannot resolve daily nugget: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot resolve daily nugget"})
		return
	}
	if nuggetId == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no published nuggets yet"})
		return
	}

	var nugget model.Nugget
	if res := s.DB.Preload("Leader").Where("id = ?", nuggetId).First(&nugget); res.Error != nil {
		Logger.Log.Error("daily nugget ", nuggetId, " missing from store: ", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load daily nugget"})
		return
	}

	payload := gin.H{
		"date":   today.Format("2006-01-02"),
		"nugget": nuggetResponse(&nugget),
	}

	if uid := userId(c); uid != "" {
		s.attachIdentityExtras(c, payload, uid, nuggetId, today)
	}

	c.JSON(http.StatusOK, payload)
}

// todaysNuggetId resolves the memoized selection for the date: redis
// fast path, then the postgres memo, computing and persisting a fresh
// selection when neither has one. Concurrent first requests race on an
// upsert-do-nothing so every caller converges on the first writer's
// pick. Returns "" when no published nugget exists.
func (s *ApiServer) todaysNuggetId(ctx context.Context, today time.Time) (string, error) {
	if s.Redis != nil {
		if id := s.Redis.GetDailyNugget(ctx, today); id != "" {
			return id, nil
		}
	}

	var memo model.DailyNugget
	err := s.DB.Where("date = ?", today).First(&memo).Error
	if err == nil {
		s.cacheDailyNugget(ctx, today, memo.NuggetID)
		return memo.NuggetID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.Wrap(err, "read daily memo")
	}

	var candidates []string
	res := s.DB.Model(&model.Nugget{}).
		Where("status = ?", model.NuggetStatusPublished).
		Order("created_at, id").
		Pluck("id", &candidates)
	if res.Error != nil {
		return "", errors.Wrap(res.Error, "load daily candidates")
	}
	picked, ok := selection.PickDailyNugget(candidates, today)
	if !ok {
		return "", nil
	}

	memo = model.DailyNugget{Date: today, NuggetID: picked}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&memo).Error; err != nil {
		return "", errors.Wrap(err, "write daily memo")
	}
	// Re-read unconditionally: when a concurrent writer won the upsert,
	// its pick is the answer, not ours.
	if err := s.DB.Where("date = ?", today).First(&memo).Error; err != nil {
		return "", errors.Wrap(err, "reread daily memo")
	}
	s.cacheDailyNugget(ctx, today, memo.NuggetID)
	return memo.NuggetID, nil
}

// cacheDailyNugget is best effort; a redis failure costs a cache miss.
func (s *ApiServer) cacheDailyNugget(ctx context.Context, today time.Time, nuggetId string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.CacheDailyNugget(ctx, today, nuggetId); err != nil {
		Logger.Log.Info("cannot cache daily nugget: ", err)
	}
}

// attachIdentityExtras decorates the daily payload for a signed-in
// user. Each extra degrades independently: a failed lookup logs and
// omits that field, it never fails the request.
func (s *ApiServer) attachIdentityExtras(c *gin.Context, payload gin.H, uid, nuggetId string, today time.Time) {
	var row model.UserStreak
	switch err := s.DB.Where("user_id = ?", uid).First(&row).Error; {
	case err == nil:
		visitedToday := row.LastVisitDate != nil &&
			selection.MidnightUTC(*row.LastVisitDate).Equal(today)
		payload["streak"] = gin.H{
			"current_streak": row.CurrentStreak,
			"longest_streak": row.LongestStreak,
			"total_visits":   row.TotalVisits,
			"visited_today":  visitedToday,
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		payload["streak"] = gin.H{
			"current_streak": 0,
			"longest_streak": 0,
			"total_visits":   0,
			"visited_today":  false,
		}
	default:
		Logger.Log.Error("cannot load streak for ", uid, ": ", err)
	}

	var favoriteCount int64
	if err := s.DB.Model(&model.UserNuggetFavorite{}).
		Where("user_id = ? AND nugget_id = ?", uid, nuggetId).
		Count(&favoriteCount).Error; err != nil {
		Logger.Log.Error("cannot check favorite for ", uid, ": ", err)
	} else {
		payload["is_favorited"] = favoriteCount > 0
	}

	if spotlight := s.favoriteSpotlight(uid, today); spotlight != nil {
		payload["favorite_spotlight"] = nuggetResponse(spotlight)
	}

	var pref model.DigestPreference
	switch err := s.DB.Where("user_id = ?", uid).First(&pref).Error; {
	case err == nil:
		payload["preferences"] = preferenceResponse(&pref)
	case errors.Is(err, gorm.ErrRecordNotFound):
		payload["preferences"] = preferenceResponse(defaultPreference(uid))
	default:
		Logger.Log.Error("cannot load digest preference for ", uid, ": ", err)
	}
}

// favoriteSpotlight rotates through the user's favorites by date, so
// each day resurfaces a different saved nugget. Nil when the user has
// no favorites or the lookup fails.
func (s *ApiServer) favoriteSpotlight(uid string, today time.Time) *model.Nugget {
	var favorites []*model.Nugget
	res := s.DB.Preload("Leader").
		Joins("JOIN user_nugget_favorites ON user_nugget_favorites.nugget_id = nuggets.id").
		Where("user_nugget_favorites.user_id = ?", uid).
		Order("user_nugget_favorites.created_at, nuggets.id").
		Find(&favorites)
	if res.Error != nil {
		Logger.Log.Error("cannot load favorites for ", uid, ": ", res.Error)
		return nil
	}
	if len(favorites) == 0 {
		return nil
	}
	return favorites[int(selection.DateSeed(today))%len(favorites)]
}

// postDailyVisit counts today toward the caller's streak. The write is
// guarded by a compare-and-set on last_visit_date so two concurrent
// requests on the same day count once; the loser re-reads and reports
// the stored standing.
func (s *ApiServer) postDailyVisit(c *gin.Context) {
	uid := userId(c)
	now := time.Now().UTC()

	var row model.UserStreak
	err := s.DB.Where("user_id = ?", uid).First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		Logger.Log.Error("cannot load streak for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load streak"})
		return
	}
	existed := err == nil

	update := streak.RecordVisit(streakState(&row), now)

	switch {
	case !existed:
		fresh := streakRow(uid, update)
		res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
		if res.Error != nil {
			Logger.Log.Error("cannot create streak for ", uid, ": ", res.Error)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot record visit"})
			return
		}
		if res.RowsAffected == 0 {
			// Lost the first-visit race; the winner's row stands.
			update = s.rereadVisit(c, uid, now)
		}
	case update.Maintained && !dateChanged(&row, update):
		// Same-day revisit, nothing to persist.
	default:
		res := s.DB.Model(&model.UserStreak{}).
			Where("user_id = ? AND last_visit_date IS DISTINCT FROM ?", uid, update.LastVisitDate).
			Updates(map[string]interface{}{
				"current_streak":  update.CurrentStreak,
				"longest_streak":  update.LongestStreak,
				"last_visit_date": update.LastVisitDate,
				"total_visits":    update.TotalVisits,
			})
		if res.Error != nil {
			Logger.Log.Error("cannot update streak for ", uid, ": ", res.Error)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot record visit"})
			return
		}
		if res.RowsAffected == 0 {
			// A concurrent request already counted today.
			update = s.rereadVisit(c, uid, now)
		}
	}

	if update.Milestone > 0 && s.Bus != nil {
		notifier.Publish(s.Bus, notifier.TopicStreakMilestone, notifier.MilestoneEvent{
			UserID: uid,
			Days:   update.Milestone,
		})
	}

	c.JSON(http.StatusOK, visitResponse(update))
}

// rereadVisit reloads the stored streak after a lost race and replays
// the visit against it, which lands on the same-day no-op path.
func (s *ApiServer) rereadVisit(c *gin.Context, uid string, now time.Time) streak.Update {
	var row model.UserStreak
	if err := s.DB.Where("user_id = ?", uid).First(&row).Error; err != nil {
		Logger.Log.Error("cannot reread streak for ", uid, ": ", err)
	}
	return streak.RecordVisit(streakState(&row), now)
}

func streakState(row *model.UserStreak) streak.State {
	return streak.State{
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
		LastVisitDate: row.LastVisitDate,
		TotalVisits:   row.TotalVisits,
	}
}

func streakRow(uid string, update streak.Update) model.UserStreak {
	return model.UserStreak{
		UserID:        uid,
		CurrentStreak: update.CurrentStreak,
		LongestStreak: update.LongestStreak,
		LastVisitDate: update.LastVisitDate,
		TotalVisits:   update.TotalVisits,
	}
}

func dateChanged(row *model.UserStreak, update streak.Update) bool {
	if row.LastVisitDate == nil || update.LastVisitDate == nil {
		return row.LastVisitDate != update.LastVisitDate
	}
	return !row.LastVisitDate.Equal(*update.LastVisitDate)
}

func visitResponse(update streak.Update) gin.H {
	return gin.H{
		"current_streak": update.CurrentStreak,
		"longest_streak": update.LongestStreak,
		"total_visits":   update.TotalVisits,
		"maintained":     update.Maintained,
		"broken":         update.Broken,
		"new_streak":     update.NewStreak,
		"milestone":      update.Milestone,
	}
}

var emailTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)

// allowedTimezones is the closed set of delivery timezones offered in
// the preferences UI.
var allowedTimezones = []string{
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Sao_Paulo",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Asia/Kolkata",
	"Asia/Singapore",
	"Asia/Tokyo",
	"Australia/Sydney",
	"UTC",
}

type preferencesInput struct {
	Enabled       *bool   `json:"enabled"`
	EmailEnabled  *bool   `json:"email_enabled"`
	EmailTime     *string `json:"email_time"`
	EmailTimezone *string `json:"email_timezone"`
}

// patchDailyPreferences partially updates the caller's digest and
// email settings. Absent fields keep their stored value.
func (s *ApiServer) patchDailyPreferences(c *gin.Context) {
	uid := userId(c)

	var input preferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	if input.EmailTime != nil {
		if !emailTimePattern.MatchString(*input.EmailTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email_time must be HH:MM or HH:MM:SS"})
			return
		}
		normalized := normalizeEmailTime(*input.EmailTime)
		input.EmailTime = &normalized
	}
	if input.EmailTimezone != nil && !utils.ContainsString(allowedTimezones, *input.EmailTimezone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported email_timezone"})
		return
	}

	pref := defaultPreference(uid)
	if err := s.DB.Where("user_id = ?", uid).First(pref).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		Logger.Log.Error("cannot load digest preference for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load preferences"})
		return
	}
	if input.Enabled != nil {
		pref.Enabled = *input.Enabled
	}
	if input.EmailEnabled != nil {
		pref.EmailEnabled = *input.EmailEnabled
	}
	if input.EmailTime != nil {
		pref.EmailTime = *input.EmailTime
	}
	if input.EmailTimezone != nil {
		pref.EmailTimezone = *input.EmailTimezone
	}

	// Select forces the boolean columns through even when false, which
	// the column defaults would otherwise swallow on insert.
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Select("UserID", "Enabled", "EmailEnabled", "EmailTime", "EmailTimezone",
		"CreatedAt", "UpdatedAt").
		Create(pref).Error; err != nil {
		Logger.Log.Error("cannot save digest preference for ", uid, ": ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save preferences"})
		return
	}

	c.JSON(http.StatusOK, preferenceResponse(pref))
}

func normalizeEmailTime(t string) string {
	if len(t) == len("15:04") {
		return t + ":00"
	}
	return t
}

func defaultPreference(uid string) *model.DigestPreference {
	return &model.DigestPreference{
		UserID:        uid,
		Enabled:       true,
		EmailEnabled:  true,
		EmailTime:     "08:00:00",
		EmailTimezone: "America/New_York",
	}
}

func preferenceResponse(pref *model.DigestPreference) gin.H {
	return gin.H{
		"enabled":        pref.Enabled,
		"email_enabled":  pref.EmailEnabled,
		"email_time":     pref.EmailTime,
		"email_timezone": pref.EmailTimezone,
	}
}
