package entity

import "time"

// Follow is a directed edge: Follower observes Followed.
// At most one edge exists per ordered pair. Self-follows are not rejected.
type Follow struct {
	Follower  string
	Followed  string
	CreatedAt time.Time
}

// Relationship describes the two directed edges between a pair of users,
// as seen from the first user.
type Relationship struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followed_by"`
}
