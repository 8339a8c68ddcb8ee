package server

import (
	"net/http"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"

	"github.com/fillip-70-jackdaw/business-wisdom/app_setting"
	"github.com/fillip-70-jackdaw/business-wisdom/digest"
	"github.com/fillip-70-jackdaw/business-wisdom/scraper"
	"github.com/fillip-70-jackdaw/business-wisdom/server/middlewares"
	"github.com/fillip-70-jackdaw/business-wisdom/utils"
	"gorm.io/gorm"
)

// ApiServer carries every dependency the handlers need. Handlers hang
// off it so tests can construct one against a temp database with the
// external sinks left nil.
type ApiServer struct {
	DB        *gorm.DB
	Redis     *utils.RedisClient
	Bus       *gochannel.GoChannel
	Setting   app_setting.ServerAppSetting
	Fetcher   *scraper.Fetcher
	Generator *digest.Generator
	Sender    digest.Sender
}

func NewApiServer(
	db *gorm.DB,
	redis *utils.RedisClient,
	bus *gochannel.GoChannel,
	setting app_setting.ServerAppSetting,
	captioner digest.Captioner,
	sender digest.Sender,
) *ApiServer {
	return &ApiServer{
		DB:      db,
		Redis:   redis,
		Bus:     bus,
		Setting: setting,
		Fetcher: scraper.NewFetcher(
			setting.ScrapeTimeout(), setting.SCRAPE_RATE_PER_SECOND),
		Generator: digest.NewGenerator(db, captioner, digest.Config{
			NuggetCount:       setting.DIGEST_NUGGET_COUNT,
			ArticleCount:      setting.DIGEST_ARTICLE_COUNT,
			HistoryWindowDays: setting.DIGEST_HISTORY_WINDOW_DAYS,
			PoolLimit:         setting.DIGEST_POOL_LIMIT,
		}),
		Sender: sender,
	}
}

// RegisterRoutes binds all handlers. The public group resolves identity
// when a token is present but never rejects; the authed group rejects
// requests without a valid token.
func (s *ApiServer) RegisterRoutes(router *gin.Engine) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	public := router.Group("/api", middlewares.OptionalIdentity())
	public.GET("/feed", s.getFeed)
	public.GET("/daily", s.getDaily)
	public.GET("/leaders/:slug", s.getLeaderBySlug)

	authed := router.Group("/api", middlewares.JWT())
	authed.POST("/daily/visit", s.postDailyVisit)
	authed.PATCH("/daily/preferences", s.patchDailyPreferences)
	authed.GET("/digest", s.getDigest)
	authed.POST("/digest", s.getDigest)
	authed.GET("/articles", s.listArticles)
	authed.POST("/articles", s.createArticle)
	authed.PATCH("/articles/:id", s.patchArticle)
	authed.DELETE("/articles/:id", s.deleteArticle)
	authed.GET("/favorites", s.listFavorites)
	authed.POST("/favorites/:nuggetId", s.addFavorite)
	authed.DELETE("/favorites/:nuggetId", s.removeFavorite)
	authed.GET("/review", s.listDraftNuggets)
	authed.POST("/review/:id", s.reviewNugget)

	// Cron endpoints are machine to machine; they carry a shared secret
	// instead of a user token.
	router.POST("/api/cron/daily-digest", s.postDailyDigestCron)
}

// userId returns the authenticated subject set by the JWT middleware,
// "" for anonymous requests on the public group.
func userId(c *gin.Context) string {
	return c.Request.Header.Get("sub")
}
