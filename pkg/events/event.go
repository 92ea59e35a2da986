// Package events defines the graph change notifications published on the
// message bus and consumed by the notification worker.
package events

import "time"

type Type string

const (
	UserCreated   Type = "user.created"
	UserUpdated   Type = "user.updated"
	UserDeleted   Type = "user.deleted"
	FollowCreated Type = "follow.created"
	FollowDeleted Type = "follow.deleted"
)

// Event is the JSON payload put on the events queue. Actor is the user the
// change originates from; Target is the other endpoint for follow events.
type Event struct {
	Type   Type              `json:"type"`
	Actor  string            `json:"actor"`
	Target string            `json:"target,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
	At     time.Time         `json:"at"`
}

func New(t Type, actor, target string, data map[string]string) Event {
	return Event{Type: t, Actor: actor, Target: target, Data: data, At: time.Now().UTC()}
}
