package handlers

import (
	"time"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
)

// userView is what other users see. Email and password hash never leave
// through it.
type userView struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type profileView struct {
	userView
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}

type rankedView struct {
	userView
	FollowerCount int `json:"follower_count"`
}

type recommendationView struct {
	userView
	Score int64 `json:"score"`
}

func toUserView(u *entity.User) userView {
	return userView{Username: u.Username, Name: u.Name, Bio: u.Bio, CreatedAt: u.CreatedAt}
}

func toProfileView(u *entity.User) profileView {
	return profileView{userView: toUserView(u), Email: u.Email, UpdatedAt: u.UpdatedAt}
}

func toUserViews(us []*entity.User) []userView {
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, toUserView(u))
	}
	return out
}

func toRankedViews(rs []application.RankedUser) []rankedView {
	out := make([]rankedView, 0, len(rs))
	for _, r := range rs {
		out = append(out, rankedView{userView: toUserView(r.User), FollowerCount: r.FollowerCount})
	}
	return out
}

func toRecommendationViews(rs []application.Recommendation) []recommendationView {
	out := make([]recommendationView, 0, len(rs))
	for _, r := range rs {
		out = append(out, recommendationView{userView: toUserView(r.User), Score: r.Score})
	}
	return out
}
