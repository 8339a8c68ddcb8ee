package app_setting

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// ServerAppSetting holds the tunables of the api server. Values here
// change operational behavior only; algorithm semantics are fixed in
// the selection and streak packages.
type ServerAppSetting struct {
	// Address the gin server binds to, e.g. ":8080".
	SERVER_ADDR string `yaml:"SERVER_ADDR"`
	// Number of nuggets in a personalized digest.
	DIGEST_NUGGET_COUNT int `yaml:"DIGEST_NUGGET_COUNT"`
	// Number of unread saved articles included in a digest.
	DIGEST_ARTICLE_COUNT int `yaml:"DIGEST_ARTICLE_COUNT"`
	// Rolling window, in days, during which a surfaced nugget or
	// article is suppressed from subsequent digests.
	DIGEST_HISTORY_WINDOW_DAYS int `yaml:"DIGEST_HISTORY_WINDOW_DAYS"`
	// Upper bound of the published pool fed into digest selection.
	DIGEST_POOL_LIMIT int `yaml:"DIGEST_POOL_LIMIT"`
	// Seconds before an article metadata fetch is abandoned.
	SCRAPE_TIMEOUT_SECOND int `yaml:"SCRAPE_TIMEOUT_SECOND"`
	// Outbound metadata fetches allowed per second.
	SCRAPE_RATE_PER_SECOND int `yaml:"SCRAPE_RATE_PER_SECOND"`
}

// DefaultServerAppSetting is used when no config file is provided.
func DefaultServerAppSetting() ServerAppSetting {
	return ServerAppSetting{
		SERVER_ADDR:                ":8080",
		DIGEST_NUGGET_COUNT:        3,
		DIGEST_ARTICLE_COUNT:       3,
		DIGEST_HISTORY_WINDOW_DAYS: 30,
		DIGEST_POOL_LIMIT:          500,
		SCRAPE_TIMEOUT_SECOND:      10,
		SCRAPE_RATE_PER_SECOND:     2,
	}
}

// ScrapeTimeout is SCRAPE_TIMEOUT_SECOND as a duration.
func (s ServerAppSetting) ScrapeTimeout() time.Duration {
	return time.Duration(s.SCRAPE_TIMEOUT_SECOND) * time.Second
}

func ParseServerAppSetting(path string) ServerAppSetting {
	c := DefaultServerAppSetting()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}
