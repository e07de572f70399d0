package domain

import "time"

// Subscription records that Subscriber follows Author and should
// receive a push notification when the author posts.
type Subscription struct {
	ID           string
	AuthorID     string
	SubscriberID string
	CreatedAt    time.Time
}
