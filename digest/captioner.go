package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Captioner produces the short inspirational message that heads a
// digest. Implementations may call out to an AI service; callers treat
// any error as "use the fallback" and never let captioning block or
// fail a digest.
type Captioner interface {
	Caption(ctx context.Context, content *Content) (string, error)
}

// GeminiCaptioner captions digests with the Gemini API.
type GeminiCaptioner struct {
	client *genai.Client
	model  string
}

const defaultCaptionModel = "gemini-2.5-flash"

func NewGeminiCaptioner(ctx context.Context, apiKey, modelName string) (*GeminiCaptioner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if modelName == "" {
		modelName = defaultCaptionModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCaptioner{client: client, model: modelName}, nil
}

func (g *GeminiCaptioner) Caption(ctx context.Context, content *Content) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(buildCaptionPrompt(content)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.8),
			TopP:            genai.Ptr[float32](0.9),
			MaxOutputTokens: 300,
		},
	)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty caption response")
	}
	return text, nil
}

func buildCaptionPrompt(content *Content) string {
	var nuggetLines, leaderNames []string
	seenLeaders := make(map[string]bool)
	for _, n := range content.Nuggets {
		leader := ""
		if n.Leader != nil {
			leader = n.Leader.Name
		}
		nuggetLines = append(nuggetLines, fmt.Sprintf("%q - %s", n.Text, leader))
		if leader != "" && !seenLeaders[leader] {
			seenLeaders[leader] = true
			leaderNames = append(leaderNames, leader)
		}
	}

	var b strings.Builder
	b.WriteString(`You are a wise, inspiring guide helping someone start their day with intention and wisdom.

Write a brief, uplifting message (3-4 sentences, 60-80 words) for their daily wisdom digest. Speak directly to the reader, weave the quotes below into one coherent insight, and end with a gentle prompt to act on it today. Warm and conversational, not a motivational poster. No markdown, no mention of "today's digest".

TODAY'S WISDOM:
`)
	b.WriteString(strings.Join(nuggetLines, "\n"))
	b.WriteString("\n\nLEADERS FEATURED: ")
	b.WriteString(strings.Join(leaderNames, ", "))

	if topics := topTopics(content.Affinity, 3); len(topics) > 0 {
		b.WriteString("\nTHEMES THE READER VALUES: ")
		b.WriteString(strings.Join(topics, ", "))
	}
	if len(content.Articles) > 0 {
		var titles []string
		for _, a := range content.Articles[:min(2, len(content.Articles))] {
			if a.Title != nil && *a.Title != "" {
				titles = append(titles, *a.Title)
			} else {
				titles = append(titles, a.Domain)
			}
		}
		b.WriteString("\nARTICLES THE READER SAVED: ")
		b.WriteString(strings.Join(titles, ", "))
	}
	b.WriteString("\n\nWrite the inspirational message:")
	return b.String()
}

// topTopics returns the n highest-weight topics, ties broken
// alphabetically for stable prompts.
func topTopics(affinity map[string]float64, n int) []string {
	topics := make([]string, 0, len(affinity))
	for topic := range affinity {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if affinity[topics[i]] != affinity[topics[j]] {
			return affinity[topics[i]] > affinity[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

// FallbackCaption is the canned message used whenever the captioner
// errors or none is configured. Rotates by weekday so a broken
// captioner doesn't mean the exact same line every morning.
func FallbackCaption(content *Content, now time.Time) string {
	leaders := make(map[string]bool)
	for _, n := range content.Nuggets {
		if n.Leader != nil {
			leaders[n.Leader.Name] = true
		}
	}
	leaderCount := len(leaders)
	leaderWord := "leaders"
	if leaderCount == 1 {
		leaderWord = "leader"
	}
	articlePrefix := ""
	if len(content.Articles) > 0 {
		articlePrefix = "Along with the articles you've saved, "
	}

	messages := []string{
		fmt.Sprintf("Today's wisdom comes from %d exceptional %s. %sthese insights are here to spark new thinking and strengthen your leadership foundation. What will you apply today?", leaderCount, leaderWord, articlePrefix),
		fmt.Sprintf("Great leaders aren't born knowing everything. They're built through curiosity and consistent learning, and today's %d %s offer fresh perspectives to challenge your assumptions. Which idea will you sit with today?", leaderCount, leaderWord),
		fmt.Sprintf("The wisdom of %d proven %s is at your fingertips. %sThese insights can shape how you show up today. What resonates most right now?", leaderCount, leaderWord, articlePrefix),
	}
	return messages[int(now.Weekday())%len(messages)]
}

var _ Captioner = (*GeminiCaptioner)(nil)
