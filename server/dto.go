package server

import (
	"encoding/json"
	"time"

	"github.com/jinzhu/copier"

	"github.com/fillip-70-jackdaw/business-wisdom/model"
	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

// LeaderResponse is the wire shape of a leader.
type LeaderResponse struct {
	Id       string                `json:"id"`
	Name     string                `json:"name"`
	Slug     string                `json:"slug"`
	Title    string                `json:"title"`
	Portrait *model.LeaderPortrait `json:"portrait,omitempty"`
}

// NuggetResponse is the wire shape of a nugget. Review-only fields
// (status, confidence sourcing) are included; drafts never reach
// public handlers so leaking status here is harmless.
type NuggetResponse struct {
	Id          string          `json:"id"`
	Text        string          `json:"text"`
	TopicTags   []string        `json:"topic_tags"`
	Type        string          `json:"type"`
	Confidence  string          `json:"confidence"`
	Status      string          `json:"status"`
	SourceTitle *string         `json:"source_title,omitempty"`
	SourceUrl   *string         `json:"source_url,omitempty"`
	SourceYear  *int            `json:"source_year,omitempty"`
	Leader      *LeaderResponse `json:"leader,omitempty"`
	IsFavorited bool            `json:"is_favorited,omitempty"`
}

// ArticleResponse is the wire shape of a saved article.
type ArticleResponse struct {
	Id          string     `json:"id"`
	Url         string     `json:"url"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ImageUrl    *string    `json:"image_url,omitempty"`
	Domain      string     `json:"domain"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func leaderResponse(leader *model.Leader) *LeaderResponse {
	if leader == nil {
		return nil
	}
	res := &LeaderResponse{}
	if err := copier.Copy(res, leader); err != nil {
		Logger.Log.Error("cannot copy leader ", leader.Id, ": ", err)
	}
	if len(leader.Portrait) > 0 {
		var portrait model.LeaderPortrait
		if err := json.Unmarshal(leader.Portrait, &portrait); err == nil {
			res.Portrait = &portrait
		}
	}
	return res
}

func nuggetResponse(nugget *model.Nugget) *NuggetResponse {
	if nugget == nil {
		return nil
	}
	res := &NuggetResponse{}
	if err := copier.Copy(res, nugget); err != nil {
		Logger.Log.Error("cannot copy nugget ", nugget.Id, ": ", err)
	}
	// copier maps pq.StringArray and the enum strings already; the
	// leader needs its portrait decoded.
	res.Leader = leaderResponse(nugget.Leader)
	if res.TopicTags == nil {
		res.TopicTags = []string{}
	}
	return res
}

func nuggetResponses(nuggets []*model.Nugget) []*NuggetResponse {
	results := make([]*NuggetResponse, 0, len(nuggets))
	for _, n := range nuggets {
		results = append(results, nuggetResponse(n))
	}
	return results
}

func articleResponse(article *model.SavedArticle) *ArticleResponse {
	if article == nil {
		return nil
	}
	res := &ArticleResponse{}
	if err := copier.Copy(res, article); err != nil {
		Logger.Log.Error("cannot copy article ", article.Id, ": ", err)
	}
	return res
}

func articleResponses(articles []*model.SavedArticle) []*ArticleResponse {
	results := make([]*ArticleResponse, 0, len(articles))
	for _, a := range articles {
		results = append(results, articleResponse(a))
	}
	return results
}
