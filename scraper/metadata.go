// Package scraper fetches display metadata for saved article urls:
// Open Graph tags with twitter-card and plain-meta fallbacks. Scraping
// is best effort; a bookmark saves fine with nothing but its domain.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

const userAgent = "Mozilla/5.0 (compatible; BusinessWisdom/1.0; +https://businesswisdom.app)"

// ArticleMetadata is what we could learn about a page. Empty string
// fields mean the page didn't say.
type ArticleMetadata struct {
	Title       string
	Description string
	ImageUrl    string
	Domain      string
	PublishedAt *time.Time
}

// Fetcher fetches pages with a shared rate limit so a burst of saves
// doesn't hammer anyone's origin.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func NewFetcher(timeout time.Duration, ratePerSecond int) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

// ExtractDomain returns the display host of a url, minus any leading
// "www.". Falls back to the raw input when it doesn't parse.
func ExtractDomain(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil || u.Host == "" {
		return rawUrl
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Fetch downloads the page and extracts metadata. On any failure it
// returns domain-only metadata and the error; callers log and save the
// article anyway.
func (f *Fetcher) Fetch(ctx context.Context, pageUrl string) (ArticleMetadata, error) {
	meta := ArticleMetadata{Domain: ExtractDomain(pageUrl)}

	if err := f.limiter.Wait(ctx); err != nil {
		return meta, errors.Wrap(err, "rate limit wait aborted")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageUrl, nil)
	if err != nil {
		return meta, errors.Wrap(err, "build metadata request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return meta, errors.Wrap(err, "fetch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return meta, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return meta, errors.Wrap(err, "parse page html")
	}

	meta.Title = metaContent(doc, "og:title", "twitter:title")
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	meta.Description = metaContent(doc, "og:description", "twitter:description", "description")
	meta.ImageUrl = resolveImageUrl(pageUrl, metaContent(doc, "og:image", "twitter:image"))

	if published := metaContent(doc, "article:published_time"); published != "" {
		if ts, err := dateparse.ParseAny(published); err == nil {
			meta.PublishedAt = &ts
		} else {
			Logger.Log.Info("unparseable published_time for ", meta.Domain, ": ", published)
		}
	}

	return meta, nil
}

// metaContent returns the first non-empty content attribute among meta
// tags whose property or name matches one of the given keys, in order.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)
		content := ""
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
				content = strings.TrimSpace(v)
				return false
			}
			return true
		})
		if content != "" {
			return content
		}
	}
	return ""
}

// resolveImageUrl makes a relative og:image absolute against the page
// url. An unparseable image reference is dropped rather than stored.
func resolveImageUrl(pageUrl, imageUrl string) string {
	if imageUrl == "" || strings.HasPrefix(imageUrl, "http") {
		return imageUrl
	}
	base, err := url.Parse(pageUrl)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(imageUrl)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
