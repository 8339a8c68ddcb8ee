package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fillip-70-jackdaw/business-wisdom/app_setting"
	"github.com/fillip-70-jackdaw/business-wisdom/digest"
	"github.com/fillip-70-jackdaw/business-wisdom/model"
	"github.com/fillip-70-jackdaw/business-wisdom/utils"
	"github.com/fillip-70-jackdaw/business-wisdom/utils/dotenv"
	"github.com/fillip-70-jackdaw/business-wisdom/utils/flag"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	gin.SetMode(gin.TestMode)
	// Identity bypass: the raw token is trusted as the subject so tests
	// can act as any user.
	flag.ByPassAuth = true
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) (*gin.Engine, *ApiServer, *gorm.DB) {
	t.Helper()
	db, _ := utils.CreateTempDB(t)
	s := NewApiServer(db, nil, nil, app_setting.DefaultServerAppSetting(), nil, digest.LogSender{})
	// No outbound fetches from tests.
	s.Fetcher = nil
	router := gin.New()
	s.RegisterRoutes(router)
	return router, s, db
}

func doRequest(t *testing.T, router *gin.Engine, method, path, userId string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if userId != "" {
		req.Header.Set("token", userId)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doRequestWithHeader(t *testing.T, router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func createTestLeader(t *testing.T, db *gorm.DB, name, slug string) *model.Leader {
	t.Helper()
	leader := &model.Leader{
		Id:   uuid.New().String(),
		Name: name,
		Slug: slug,
	}
	require.NoError(t, db.Create(leader).Error)
	return leader
}

func createTestNugget(t *testing.T, db *gorm.DB, leaderId string, status model.NuggetStatus) *model.Nugget {
	t.Helper()
	nugget := &model.Nugget{
		Id:         uuid.New().String(),
		LeaderID:   leaderId,
		Text:       "test nugget " + uuid.New().String(),
		Type:       model.NuggetTypeQuote,
		Confidence: model.NuggetConfidenceAttributed,
		Status:     status,
	}
	require.NoError(t, db.Create(nugget).Error)
	return nugget
}

func TestPing(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := doRequest(t, router, "GET", "/ping", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDailyNuggetIsStableAcrossRequests(t *testing.T) {
	router, _, db := newTestRouter(t)
	leader := createTestLeader(t, db, "Andy Grove", "andy-grove")
	for i := 0; i < 5; i++ {
		createTestNugget(t, db, leader.Id, model.NuggetStatusPublished)
	}

	var first struct {
		Nugget NuggetResponse `json:"nugget"`
	}
	w := doRequest(t, router, "GET", "/api/daily", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &first)
	require.NotEmpty(t, first.Nugget.Id)
	require.NotNil(t, first.Nugget.Leader)
	require.Equal(t, "andy-grove", first.Nugget.Leader.Slug)

	// New publishes must not change today's pick once memoized.
	createTestNugget(t, db, leader.Id, model.NuggetStatusPublished)

	for i := 0; i < 3; i++ {
		var again struct {
			Nugget NuggetResponse `json:"nugget"`
		}
		w := doRequest(t, router, "GET", "/api/daily", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeBody(t, w, &again)
		require.Equal(t, first.Nugget.Id, again.Nugget.Id)
	}
}

func TestDailyHonorsExistingMemo(t *testing.T) {
	router, _, db := newTestRouter(t)
	leader := createTestLeader(t, db, "Ben Horowitz", "ben-horowitz")
	var nuggets []*model.Nugget
	for i := 0; i < 3; i++ {
		nuggets = append(nuggets, createTestNugget(t, db, leader.Id, model.NuggetStatusPublished))
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	require.NoError(t, db.Create(&model.DailyNugget{
		Date:     today,
		NuggetID: nuggets[2].Id,
	}).Error)

	var resp struct {
		Nugget NuggetResponse `json:"nugget"`
	}
	w := doRequest(t, router, "GET", "/api/daily", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Equal(t, nuggets[2].Id, resp.Nugget.Id)
}

func TestDailyWithoutPublishedNuggets(t *testing.T) {
	router, _, db := newTestRouter(t)
	leader := createTestLeader(t, db, "Draft Only", "draft-only")
	createTestNugget(t, db, leader.Id, model.NuggetStatusDraft)

	w := doRequest(t, router, "GET", "/api/daily", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDailyVisitStreakProgression(t *testing.T) {
	router, _, db := newTestRouter(t)
	userId := "streak-user"

	var first struct {
		CurrentStreak int  `json:"current_streak"`
		NewStreak     bool `json:"new_streak"`
		TotalVisits   int  `json:"total_visits"`
	}
	w := doRequest(t, router, "POST", "/api/daily/visit", userId, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &first)
	require.Equal(t, 1, first.CurrentStreak)
	require.True(t, first.NewStreak)
	require.Equal(t, 1, first.TotalVisits)

	// Same-day revisit counts once.
	var second struct {
		CurrentStreak int  `json:"current_streak"`
		Maintained    bool `json:"maintained"`
		TotalVisits   int  `json:"total_visits"`
	}
	w = doRequest(t, router, "POST", "/api/daily/visit", userId, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &second)
	require.Equal(t, 1, second.CurrentStreak)
	require.True(t, second.Maintained)
	require.Equal(t, 1, second.TotalVisits)

	var row model.UserStreak
	require.NoError(t, db.Where("user_id = ?", userId).First(&row).Error)
	require.Equal(t, 1, row.CurrentStreak)
	require.Equal(t, 1, row.TotalVisits)
}

func TestDailyVisitContinuesYesterdaysStreak(t *testing.T) {
	router, _, db := newTestRouter(t)
	userId := "continuing-user"

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	require.NoError(t, db.Create(&model.UserStreak{
		UserID:        userId,
		CurrentStreak: 6,
		LongestStreak: 6,
		LastVisitDate: &yesterday,
		TotalVisits:   20,
	}).Error)

	var resp struct {
		CurrentStreak int `json:"current_streak"`
		LongestStreak int `json:"longest_streak"`
		Milestone     int `json:"milestone"`
		TotalVisits   int `json:"total_visits"`
	}
	w := doRequest(t, router, "POST", "/api/daily/visit", userId, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Equal(t, 7, resp.CurrentStreak)
	require.Equal(t, 7, resp.LongestStreak)
	require.Equal(t, 7, resp.Milestone)
	require.Equal(t, 21, resp.TotalVisits)
}

func TestDailyVisitResetsAfterGap(t *testing.T) {
	router, _, db := newTestRouter(t)
	userId := "lapsed-user"

	threeDaysAgo := time.Now().UTC().AddDate(0, 0, -3).Truncate(24 * time.Hour)
	require.NoError(t, db.Create(&model.UserStreak{
		UserID:        userId,
		CurrentStreak: 5,
		LongestStreak: 10,
		LastVisitDate: &threeDaysAgo,
		TotalVisits:   40,
	}).Error)

	var resp struct {
		CurrentStreak int  `json:"current_streak"`
		LongestStreak int  `json:"longest_streak"`
		Broken        bool `json:"broken"`
		NewStreak     bool `json:"new_streak"`
	}
	w := doRequest(t, router, "POST", "/api/daily/visit", userId, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Equal(t, 1, resp.CurrentStreak)
	require.Equal(t, 10, resp.LongestStreak)
	require.True(t, resp.Broken)
	require.True(t, resp.NewStreak)
}

func TestDailyVisitRequiresAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := doRequest(t, router, "POST", "/api/daily/visit", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDailyIncludesStreakForSignedInUser(t *testing.T) {
	router, _, db := newTestRouter(t)
	leader := createTestLeader(t, db, "Sara Blakely", "sara-blakely")
	createTestNugget(t, db, leader.Id, model.NuggetStatusPublished)
	userId := "signed-in-user"

	w := doRequest(t, router, "POST", "/api/daily/visit", userId, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Streak *struct {
			CurrentStreak int  `json:"current_streak"`
			VisitedToday  bool `json:"visited_today"`
		} `json:"streak"`
		Preferences *struct {
			EmailTime string `json:"email_time"`
		} `json:"preferences"`
	}
	w = doRequest(t, router, "GET", "/api/daily", userId, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.NotNil(t, resp.Streak)
	require.Equal(t, 1, resp.Streak.CurrentStreak)
	require.True(t, resp.Streak.VisitedToday)
	require.NotNil(t, resp.Preferences)
	require.Equal(t, "08:00:00", resp.Preferences.EmailTime)

	// Anonymous requests carry no identity extras.
	var anonymous map[string]interface{}
	w = doRequest(t, router, "GET", "/api/daily", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &anonymous)
	require.NotContains(t, anonymous, "streak")
}

func TestFeedSeedPinsOrder(t *testing.T) {
	router, _, db := newTestRouter(t)
	for i := 0; i < 4; i++ {
		leader := createTestLeader(t, db, fmt.Sprintf("Leader %d", i), fmt.Sprintf("leader-%d", i))
		for j := 0; j < 3; j++ {
			createTestNugget(t, db, leader.Id, model.NuggetStatusPublished)
		}
	}

	type feedResponse struct {
		Nuggets []NuggetResponse `json:"nuggets"`
		Seed    string           `json:"seed"`
	}

	var first feedResponse
	w := doRequest(t, router, "GET", "/api/feed?seed=42", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &first)
	require.Len(t, first.Nuggets, 12)
	require.Equal(t, "42", first.Seed)

	var second feedResponse
	w = doRequest(t, router, "GET", "/api/feed?seed=42", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &second)
	for i := range first.Nuggets {
		require.Equal(t, first.Nuggets[i].Id, second.Nuggets[i].Id)
	}

	// Drafts never reach the feed.
	for _, n := range first.Nuggets {
		require.Equal(t, string(model.NuggetStatusPublished), n.Status)
	}
}

func TestLeaderBySlug(t *testing.T) {
	router, _, db := newTestRouter(t)
	leader := createTestLeader(t, db, "Indra Nooyi", "indra-nooyi")
	published := createTestNugget(t, db, leader.Id, model.NuggetStatusPublished)
	createTestNugget(t, db, leader.Id, model.NuggetStatusDraft)

	var resp struct {
		Leader  LeaderResponse   `json:"leader"`
		Nuggets []NuggetResponse `json:"nuggets"`
	}
	w := doRequest(t, router, "GET", "/api/leaders/indra-nooyi", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Equal(t, "Indra Nooyi", resp.Leader.Name)
	require.Len(t, resp.Nuggets, 1)
	require.Equal(t, published.Id, resp.Nuggets[0].Id)

	w = doRequest(t, router, "GET", "/api/leaders/nobody", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
