package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(5*time.Second, 100)
}

func TestFetchOpenGraphMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Fallback Title</title>
			<meta property="og:title" content="High Output Management" />
			<meta property="og:description" content="A review of Grove's classic." />
			<meta property="og:image" content="/images/cover.png" />
			<meta property="article:published_time" content="2024-01-15T08:00:00Z" />
		</head><body></body></html>`))
	}))
	defer server.Close()

	meta, err := newTestFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "High Output Management", meta.Title)
	require.Equal(t, "A review of Grove's classic.", meta.Description)
	// Relative image urls resolve against the page url.
	require.Equal(t, server.URL+"/images/cover.png", meta.ImageUrl)
	require.NotNil(t, meta.PublishedAt)
	require.Equal(t, time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC), meta.PublishedAt.UTC())
}

func TestFetchFallsBackToTitleTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Plain Old Title</title>
			<meta name="description" content="plain meta description" />
		</head><body></body></html>`))
	}))
	defer server.Close()

	meta, err := newTestFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Plain Old Title", meta.Title)
	require.Equal(t, "plain meta description", meta.Description)
	require.Empty(t, meta.ImageUrl)
	require.Nil(t, meta.PublishedAt)
}

func TestFetchTwitterCardFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta name="twitter:title" content="Card Title" />
			<meta name="twitter:image" content="https://cdn.example.com/pic.jpg" />
		</head><body></body></html>`))
	}))
	defer server.Close()

	meta, err := newTestFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Card Title", meta.Title)
	require.Equal(t, "https://cdn.example.com/pic.jpg", meta.ImageUrl)
}

func TestFetchDegradesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	meta, err := newTestFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
	// The bookmark still saves: domain survives.
	require.NotEmpty(t, meta.Domain)
	require.Empty(t, meta.Title)
}

func TestFetchDegradesOnUnreachableHost(t *testing.T) {
	meta, err := newTestFetcher().Fetch(context.Background(), "http://127.0.0.1:1/nope")
	require.Error(t, err)
	require.Equal(t, "127.0.0.1", meta.Domain)
}

func TestExtractDomain(t *testing.T) {
	require.Equal(t, "example.com", ExtractDomain("https://www.example.com/a/b?c=d"))
	require.Equal(t, "blog.example.com", ExtractDomain("https://blog.example.com/post"))
	require.Equal(t, "not a url", ExtractDomain("not a url"))
}
