// Package notifier carries celebration and review signals out of the
// request path: handlers publish events onto an in-process bus and the
// reporter fans them out to metrics and Slack. Losing an event costs a
// notification, never user-visible state, so publishing is fire and
// forget.
package notifier

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	Logger "github.com/fillip-70-jackdaw/business-wisdom/utils/log"
)

const (
	TopicStreakMilestone = "streak.milestone"
	TopicNuggetReview    = "nugget.review"
)

// MilestoneEvent is published when a visit pushes a user's streak onto
// a milestone value.
type MilestoneEvent struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

// ReviewEvent is published when a reviewer resolves a draft nugget.
type ReviewEvent struct {
	NuggetID   string `json:"nugget_id"`
	LeaderID   string `json:"leader_id"`
	Status     string `json:"status"`
	ReviewerID string `json:"reviewer_id"`
}

// NewEventBus returns the shared in-process pubsub.
func NewEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NopLogger{},
	)
}

// Publish marshals the event and publishes it on the topic. Errors are
// logged and swallowed; notifications are best effort.
func Publish(bus *gochannel.GoChannel, topic string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		Logger.Log.Error("cannot marshal event for topic ", topic, ": ", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := bus.Publish(topic, msg); err != nil {
		Logger.Log.Error("cannot publish event to topic ", topic, ": ", err)
	}
}
