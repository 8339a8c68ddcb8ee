package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/slack-go/slack"

	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

const (
	statsdMilestoneCounter = "wisdom.streak.milestone"
	statsdReviewCounter    = "wisdom.nugget.review"
)

// Reporter listens to the eventbus and aggregates results, sending to
// Datadog and Slack for monitoring and celebration purposes.
type Reporter struct {
	Statsd          *statsd.Client
	SlackWebhookUrl string

	EventBus *gochannel.GoChannel

	// postWebhook is swappable in tests.
	postWebhook func(url string, msg *slack.WebhookMessage) error
}

func NewReporter(st *statsd.Client, slackWebhookUrl string, bus *gochannel.GoChannel) *Reporter {
	return &Reporter{
		Statsd:          st,
		SlackWebhookUrl: slackWebhookUrl,
		EventBus:        bus,
		postWebhook:     slack.PostWebhook,
	}
}

// Run subscribes to all notifier topics and processes events until the
// context is cancelled. Sink failures are logged, never fatal.
func (r *Reporter) Run(ctx context.Context) error {
	milestones, err := r.EventBus.Subscribe(ctx, TopicStreakMilestone)
	if err != nil {
		return err
	}
	reviews, err := r.EventBus.Subscribe(ctx, TopicNuggetReview)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-milestones:
			if !ok {
				return nil
			}
			msg.Ack()
			var event MilestoneEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				Logger.Log.Error("bad milestone payload: ", err)
				continue
			}
			r.reportMilestone(event)
		case msg, ok := <-reviews:
			if !ok {
				return nil
			}
			msg.Ack()
			var event ReviewEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				Logger.Log.Error("bad review payload: ", err)
				continue
			}
			r.reportReview(event)
		}
	}
}

func (r *Reporter) reportMilestone(event MilestoneEvent) {
	if r.Statsd != nil {
		if err := r.Statsd.Incr(statsdMilestoneCounter,
			[]string{fmt.Sprintf("days:%d", event.Days)}, 1); err != nil {
			Logger.Log.Info("cannot report milestone counter: ", err)
		}
	}
	r.post(fmt.Sprintf(":tada: a user just hit a %d-day streak", event.Days))
}

func (r *Reporter) reportReview(event ReviewEvent) {
	if r.Statsd != nil {
		if err := r.Statsd.Incr(statsdReviewCounter,
			[]string{"status:" + event.Status}, 1); err != nil {
			Logger.Log.Info("cannot report review counter: ", err)
		}
	}
	r.post(fmt.Sprintf("nugget %s reviewed: %s (by %s)", event.NuggetID, event.Status, event.ReviewerID))
}

func (r *Reporter) post(text string) {
	if r.SlackWebhookUrl == "" {
		return
	}
	if err := r.postWebhook(r.SlackWebhookUrl, &slack.WebhookMessage{Text: text}); err != nil {
		Logger.Log.Info("cannot post slack notification: ", err)
	}
}
