package digest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
)

func sampleContent() *Content {
	title := "The Hard Thing About Hard Things"
	return &Content{
		Nuggets: []*model.Nugget{
			{
				Id:   "n1",
				Text: "Give away your legos.",
				Leader: &model.Leader{
					Name:  "Molly Graham",
					Title: "COO",
				},
			},
			{
				Id:   "n2",
				Text: "Only the paranoid survive.",
				Leader: &model.Leader{
					Name:  "Andy Grove",
					Title: "Former CEO, Intel",
				},
			},
		},
		Articles: []*model.SavedArticle{
			{Id: "a1", Title: &title, Domain: "a16z.com", Url: "https://a16z.com/x"},
		},
		Affinity: map[string]float64{"scaling": 3, "strategy": 1},
	}
}

func TestBuildCaptionPrompt(t *testing.T) {
	prompt := buildCaptionPrompt(sampleContent())

	require.Contains(t, prompt, `"Give away your legos." - Molly Graham`)
	require.Contains(t, prompt, `"Only the paranoid survive." - Andy Grove`)
	require.Contains(t, prompt, "LEADERS FEATURED: Molly Graham, Andy Grove")
	require.Contains(t, prompt, "THEMES THE READER VALUES: scaling, strategy")
	require.Contains(t, prompt, "ARTICLES THE READER SAVED: The Hard Thing About Hard Things")
}

func TestBuildCaptionPromptNoAffinityNoArticles(t *testing.T) {
	content := sampleContent()
	content.Affinity = nil
	content.Articles = nil

	prompt := buildCaptionPrompt(content)
	require.NotContains(t, prompt, "THEMES THE READER VALUES")
	require.NotContains(t, prompt, "ARTICLES THE READER SAVED")
}

func TestTopTopics(t *testing.T) {
	affinity := map[string]float64{"a": 1, "b": 5, "c": 3, "d": 3}
	require.Equal(t, []string{"b", "c", "d"}, topTopics(affinity, 3))
	require.Empty(t, topTopics(nil, 3))
}

func TestFallbackCaption(t *testing.T) {
	content := sampleContent()

	msg := FallbackCaption(content, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, msg)
	require.Contains(t, msg, "2")

	t.Run("rotates by weekday", func(t *testing.T) {
		seen := make(map[string]bool)
		for d := 15; d < 22; d++ {
			seen[FallbackCaption(content, time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC))] = true
		}
		require.Greater(t, len(seen), 1)
	})

	t.Run("single leader", func(t *testing.T) {
		single := &Content{Nuggets: content.Nuggets[:1]}
		// 2024-01-14 is a Sunday, which selects the first canned message.
		msg := FallbackCaption(single, time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC))
		require.Contains(t, msg, "1 exceptional leader.")
	})
}

type failingCaptioner struct{}

func (failingCaptioner) Caption(ctx context.Context, content *Content) (string, error) {
	return "", fmt.Errorf("upstream unavailable")
}

type cannedCaptioner struct{ text string }

func (c cannedCaptioner) Caption(ctx context.Context, content *Content) (string, error) {
	return c.text, nil
}

func TestGeneratorCaptionFallsBack(t *testing.T) {
	now := time.Now().UTC()
	content := sampleContent()

	t.Run("nil captioner", func(t *testing.T) {
		g := &Generator{}
		require.Equal(t, FallbackCaption(content, now), g.caption(context.Background(), content, now))
	})

	t.Run("failing captioner", func(t *testing.T) {
		g := &Generator{Captioner: failingCaptioner{}}
		require.Equal(t, FallbackCaption(content, now), g.caption(context.Background(), content, now))
	})

	t.Run("working captioner wins", func(t *testing.T) {
		g := &Generator{Captioner: cannedCaptioner{text: "seize the day"}}
		require.Equal(t, "seize the day", g.caption(context.Background(), content, now))
	})
}

func TestRenderEmail(t *testing.T) {
	html, err := RenderEmail(&Content{
		Message:  "A message with <script>alert(1)</script> inside.",
		Nuggets:  sampleContent().Nuggets,
		Articles: sampleContent().Articles,
	})
	require.NoError(t, err)
	require.Contains(t, html, "Give away your legos.")
	require.Contains(t, html, "Molly Graham")
	require.Contains(t, html, "a16z.com")
	// html/template escapes injected content.
	require.NotContains(t, html, "<script>")
	require.False(t, strings.Contains(html, "alert(1)</script>"))
}
