package notify

import "fmt"

const (
	TypeNewPost       = "new_post"
	TypeNewSubscriber = "new_sub"
)

// Notification is the JSON event pushed down a user's channel.
type Notification struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewPostNotification(authorID string) Notification {
	return Notification{
		Type: TypeNewPost,
		Text: fmt.Sprintf("User with id %s created new post!", authorID),
	}
}

func NewSubscriberNotification(subscriberID string) Notification {
	return Notification{
		Type: TypeNewSubscriber,
		Text: fmt.Sprintf("User with id %s subscribed to you!", subscriberID),
	}
}
